package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/manpuku-dev/gift-catalog/internal/config"
)

// DB wraps the connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// Connect creates a new database connection pool
func Connect(databaseURL string) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	// Configure pool
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log.Println("Database connected successfully")
	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.Pool.Close()
}

// RunMigrations runs all database migrations
func RunMigrations(db *DB) error {
	ctx := context.Background()

	// Create migrations table if it doesn't exist
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Run each migration
	for version, migration := range migrations {
		// Check if migration already applied
		var exists bool
		err := db.Pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
			version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", version, err)
		}

		if exists {
			continue
		}

		// Apply migration
		log.Printf("Applying migration %d...", version)
		_, err = db.Pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}

		// Record migration
		_, err = db.Pool.Exec(ctx,
			"INSERT INTO schema_migrations (version) VALUES ($1)",
			version,
		)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}

		log.Printf("Migration %d applied successfully", version)
	}

	return nil
}

// EnsureAdminUser creates the admin user if it doesn't exist
func EnsureAdminUser(db *DB, cfg *config.Config) error {
	if cfg.AdminPassword == "" {
		log.Println("ADMIN_PASSWORD not set, skipping admin user creation")
		return nil
	}

	ctx := context.Background()

	// Check if admin exists
	var exists bool
	err := db.Pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)",
		cfg.AdminEmail,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	if exists {
		log.Println("Admin user already exists")
		return nil
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	// Create admin user
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO users (email, password_hash, role)
		VALUES ($1, $2, 'admin')
	`, cfg.AdminEmail, string(hashedPassword))
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Printf("Admin user created: %s", cfg.AdminEmail)
	return nil
}

// migrations is an ordered map of migration version to SQL
var migrations = map[int]string{
	1: migration001,
	2: migration002,
}

const migration001 = `
-- Users table (admin operators)
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    role VARCHAR(20) DEFAULT 'user',
    created_at TIMESTAMP DEFAULT NOW(),
    last_login_at TIMESTAMP
);

-- Return gifts table (the catalog, fully replaced on every upload)
CREATE TABLE IF NOT EXISTS return_gifts (
    id SERIAL PRIMARY KEY,
    gift_id VARCHAR(100) NOT NULL,
    name VARCHAR(500) NOT NULL,
    description TEXT DEFAULT '',
    start_date TIMESTAMP,
    end_date TIMESTAMP,
    donation_amount INT NOT NULL DEFAULT 0,
    stock_quantity DECIMAL(12, 2),
    capacity_weight TEXT DEFAULT '',
    provider_info TEXT DEFAULT '',
    shipping_estimate TEXT DEFAULT '',
    notes TEXT DEFAULT '',
    is_public BOOLEAN NOT NULL DEFAULT FALSE,
    temp_shipping BOOLEAN NOT NULL DEFAULT FALSE,
    cold_shipping BOOLEAN NOT NULL DEFAULT FALSE,
    frozen_shipping BOOLEAN NOT NULL DEFAULT FALSE,
    regular_delivery BOOLEAN NOT NULL DEFAULT FALSE,
    date_specified_delivery BOOLEAN NOT NULL DEFAULT FALSE,
    split_delivery BOOLEAN NOT NULL DEFAULT FALSE,
    simple_packaging BOOLEAN NOT NULL DEFAULT FALSE,
    noshi_support BOOLEAN NOT NULL DEFAULT FALSE,
    municipality_code VARCHAR(100) DEFAULT '',
    expiry_storage TEXT DEFAULT '',
    allergens TEXT DEFAULT '',
    allergen_notes TEXT DEFAULT '',
    category VARCHAR(255) DEFAULT '',
    linked_service VARCHAR(255) DEFAULT '',
    created_at TIMESTAMP DEFAULT NOW()
);

-- CSV upload history (append-only audit log)
CREATE TABLE IF NOT EXISTS csv_uploads (
    id SERIAL PRIMARY KEY,
    filename VARCHAR(500) NOT NULL,
    record_count INT DEFAULT 0,
    status VARCHAR(20) NOT NULL,
    upload_date TIMESTAMP DEFAULT NOW()
);

-- Create indexes
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
CREATE INDEX IF NOT EXISTS idx_return_gifts_amount ON return_gifts(donation_amount);
CREATE INDEX IF NOT EXISTS idx_return_gifts_public ON return_gifts(is_public);
CREATE INDEX IF NOT EXISTS idx_csv_uploads_date ON csv_uploads(upload_date DESC);
`

const migration002 = `
-- Migration 002: composite index for the candidate query
-- (public, in budget, in stock, storage order)

CREATE INDEX IF NOT EXISTS idx_return_gifts_candidates
    ON return_gifts(is_public, donation_amount)
    WHERE is_public = TRUE;
`
