package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/wadjakorntonsri/go-qr-link/pkg/ports"
)

var ErrInvalidName = errors.New("invalid artifact name")

// DirStore persists artifacts as files in a single directory. Names
// come from slugs but also arrive via the image-fetch endpoint, so they
// are validated against path traversal before touching the filesystem.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DirStore{dir: dir}, nil
}

func (s *DirStore) Save(name string, data []byte) error {
	if !validName(name) {
		return ErrInvalidName
	}
	return os.WriteFile(filepath.Join(s.dir, name), data, 0o644)
}

// Open returns the artifact bytes. A missing artifact satisfies
// errors.Is(err, fs.ErrNotExist).
func (s *DirStore) Open(name string) ([]byte, error) {
	if !validName(name) {
		return nil, ErrInvalidName
	}
	return os.ReadFile(filepath.Join(s.dir, name))
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// Ensure interface compliance
var _ ports.ArtifactStore = (*DirStore)(nil)
