package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wadjakorntonsri/go-qr-link/internal/logger"
	"github.com/wadjakorntonsri/go-qr-link/pkg/config"
)

const tokenTTL = 24 * time.Hour

// AuthHandler issues bearer tokens for the single configured API user.
type AuthHandler struct {
	jwtSecret []byte
	user      string
	password  string
	log       *logger.Logger
}

func NewAuthHandler(cfg *config.Config, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		jwtSecret: []byte(cfg.JWTSecret),
		user:      cfg.AuthUser,
		password:  cfg.AuthPassword,
		log:       log,
	}
}

// Token handles POST /token with form fields username and password and
// responds with a bearer JWT.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	// Constant-time compare so the check leaks nothing about either
	// credential.
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.user)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.password)) == 1
	if !userOK || !passOK {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}

	expirationTime := time.Now().Add(tokenTTL)
	claims := &jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(expirationTime),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		h.log.Error("failed signing JWT", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.log.Info("token issued", "user", username)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"access_token": tokenString,
		"token_type":   "bearer",
	})
}
