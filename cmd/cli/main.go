package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/wadjakorntonsri/go-qr-link/pkg/adapters/artifact"
	"github.com/wadjakorntonsri/go-qr-link/pkg/adapters/qrcode"
	"github.com/wadjakorntonsri/go-qr-link/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-qr-link/pkg/config"
	"github.com/wadjakorntonsri/go-qr-link/pkg/core/domain"
	"github.com/wadjakorntonsri/go-qr-link/pkg/ports"
)

func main() {
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")

	if len(os.Args) < 2 {
		fmt.Println("expected 'export', 'import' or 'regen' subcommands")
		os.Exit(1)
	}

	cfg := config.Load()
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to db: %v", err)
	}

	switch os.Args[1] {
	case "export":
		doExport(repo)
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		doImport(repo, *importFile)
	case "regen":
		doRegen(repo, cfg)
	default:
		fmt.Println("expected 'export', 'import' or 'regen' subcommands")
		os.Exit(1)
	}
}

// doExport dumps every link record as indented JSON on stdout.
func doExport(repo *sqlite.SQLiteRepository) {
	links, err := repo.Dump(context.Background())
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(links); err != nil {
		log.Fatalf("Encode failed: %v", err)
	}
}

// doImport loads link records from a JSON dump, skipping slugs that
// already exist. Records are immutable so there is nothing to merge.
func doImport(repo *sqlite.SQLiteRepository, filename string) {
	file, err := os.Open(filename)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}
	defer file.Close()

	var links []domain.LinkRecord
	if err := json.NewDecoder(file).Decode(&links); err != nil {
		log.Fatalf("Decode failed: %v", err)
	}

	ctx := context.Background()
	count := 0
	for _, l := range links {
		err := repo.Insert(ctx, &l)
		if errors.Is(err, ports.ErrDuplicateSlug) {
			log.Printf("Skipping existing slug: %s", l.Slug)
			continue
		}
		if err != nil {
			log.Printf("Failed to import %s: %v", l.Slug, err)
			continue
		}
		count++
	}
	log.Printf("Imported %d links", count)
}

// doRegen re-renders the QR PNG for every stored link. Useful after
// losing or relocating the artifact directory: the database is the
// source of truth, the images are derived.
func doRegen(repo *sqlite.SQLiteRepository, cfg *config.Config) {
	artifacts, err := artifact.NewDirStore(cfg.QRDir)
	if err != nil {
		log.Fatalf("Failed to open QR directory: %v", err)
	}
	encoder := qrcode.NewEncoder()

	links, err := repo.Dump(context.Background())
	if err != nil {
		log.Fatalf("Dump failed: %v", err)
	}

	count := 0
	for _, l := range links {
		png, err := encoder.Encode(cfg.BaseURL + "/r/" + l.Slug)
		if err != nil {
			log.Printf("Failed to render %s: %v", l.Slug, err)
			continue
		}
		if err := artifacts.Save(l.Slug+".png", png); err != nil {
			log.Printf("Failed to save %s: %v", l.Slug, err)
			continue
		}
		count++
	}
	log.Printf("Regenerated %d QR images in %s", count, cfg.QRDir)
}
