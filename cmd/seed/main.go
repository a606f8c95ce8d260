package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/campuskit/campus-api/config"
	"github.com/campuskit/campus-api/internal/domain/entity"
	"github.com/campuskit/campus-api/pkg/credential"
)

// Seeds a bootstrap admin account so the moderation endpoints are reachable
// on a fresh database. Override the defaults with SEED_ADMIN_EMAIL and
// SEED_ADMIN_PASSWORD.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := envOr("SEED_ADMIN_EMAIL", "admin@campuskit.local")
	password := envOr("SEED_ADMIN_PASSWORD", "change-me-now")

	hasher := credential.NewHasher(cfg.PasswordPepper, cfg.BcryptCost)
	hash, err := hasher.Hash(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (first_name, last_name, phone, email, password_hash, status, role)
		VALUES ('Campus', 'Admin', '', $1, $2, $3, $4)
		ON CONFLICT (email) WHERE deleted_at IS NULL
		DO UPDATE SET password_hash = EXCLUDED.password_hash, status = EXCLUDED.status, role = EXCLUDED.role, updated_at = now()
		RETURNING id
	`, entity.NormalizeEmail(email), hash, entity.StatusActive, entity.RoleAdmin).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s\n", id, email)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
