package main

import (
	"flag"
	"log"

	"github.com/authcore-io/authcore/internal/config"
	"github.com/authcore-io/authcore/internal/database"
)

// Connectivity and migration smoke check for a deployment target. Opens the
// configured database, runs pending migrations and reports table counts.
func main() {
	configPath := flag.String("config", "app.yml", "path to config file")
	flag.Parse()

	log.Printf("Testing database initialization...")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded - database type: %s", cfg.Database.Type)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	for _, table := range []string{"users", "auth_attempts", "password_resets"} {
		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&count); err != nil {
			log.Fatalf("Failed to query %s: %v", table, err)
		}
		log.Printf("Table %s: %d rows", table, count)
	}

	log.Printf("Database connection test successful!")
}
