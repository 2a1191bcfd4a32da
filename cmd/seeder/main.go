package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/manpuku-dev/gift-catalog/internal/config"
	"github.com/manpuku-dev/gift-catalog/internal/database"
	"github.com/manpuku-dev/gift-catalog/internal/models"
	"github.com/manpuku-dev/gift-catalog/internal/services"
)

func main() {
	// Command line flags
	localFile := flag.String("file", "", "Local CSV file to import")
	bucket := flag.String("bucket", "", "S3 bucket to fetch the CSV from (defaults to configured bucket)")
	object := flag.String("object", "", "Object key inside the bucket")
	dryRun := flag.Bool("dry-run", false, "Parse and count rows without writing to database")
	flag.Parse()

	if *localFile == "" && *object == "" {
		log.Fatal("Either -file or -object is required")
	}

	// Load .env
	godotenv.Load()

	// Load config
	cfg := config.Load()

	slogger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx := context.Background()

	// Open the CSV source
	var reader io.ReadCloser
	var filename string
	if *localFile != "" {
		f, err := os.Open(*localFile)
		if err != nil {
			log.Fatalf("Failed to open CSV file: %v", err)
		}
		reader = f
		filename = filepath.Base(*localFile)
	} else {
		bucketName := cfg.S3Bucket
		if *bucket != "" {
			bucketName = *bucket
		}
		storage, err := services.NewStorageService(
			cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey,
			bucketName, cfg.S3Region, cfg.S3UseSSL,
		)
		if err != nil {
			log.Fatalf("Failed to initialize storage service: %v", err)
		}
		obj, err := storage.Download(ctx, *object)
		if err != nil {
			log.Fatalf("Failed to fetch object %q: %v", *object, err)
		}
		reader = obj
		filename = *object
	}
	defer reader.Close()

	// Pick the catalog store
	var store services.CatalogStore
	if *dryRun {
		log.Println("Dry run: no database writes will happen")
		store = discardStore{}
	} else {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := database.RunMigrations(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		store = db
	}

	log.Printf("Starting catalog import from %s...", filename)

	ingester := services.NewIngester(store, slogger)
	res, err := ingester.Replace(ctx, reader, filename)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("Import complete: %d accepted, %d skipped", res.Accepted, res.Skipped)
}

// discardStore accepts writes without performing them, for -dry-run
type discardStore struct{}

func (discardStore) DeleteAllGifts(ctx context.Context) error { return nil }

func (discardStore) BulkInsertGifts(ctx context.Context, gifts []models.Gift) error { return nil }

func (discardStore) InsertUpload(ctx context.Context, filename string, recordCount int, status models.UploadStatus) error {
	return nil
}
