package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/playsquad/playsquad-api/config"
	"github.com/playsquad/playsquad-api/pkg/helpers"
)

const seedAdminStmt = `
	INSERT INTO users (name, email, password_hash, is_admin, is_active)
	VALUES ($1, lower($2), $3, true, true)
	ON CONFLICT (lower(email)) DO UPDATE SET is_admin = true
	RETURNING id`

// Seeds a local admin account for development.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "admin@playsquad.local"
	password := "password123"
	name := "PlaySquad Admin"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(seedAdminStmt, name, email, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s password=%s\n", id, email, password)
}
