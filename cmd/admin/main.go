package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/joho/godotenv"

	"github.com/opticlinic/clinic-flow/internal/audit"
	"github.com/opticlinic/clinic-flow/internal/auth"
	"github.com/opticlinic/clinic-flow/internal/database"
	"github.com/opticlinic/clinic-flow/internal/staff"
)

// Bootstraps the first admin login account.
func main() {
	username := flag.String("username", "", "Admin username")
	password := flag.String("password", "", "Admin password")
	email := flag.String("email", "", "Admin email")
	flag.Parse()

	if *username == "" || *password == "" || *email == "" {
		log.Fatal("Username, password, and email are required. Use -username, -password, and -email flags")
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}

	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{os.Getenv("ELASTICSEARCH_URL")},
		Username:  os.Getenv("ELASTICSEARCH_USERNAME"),
		Password:  os.Getenv("ELASTICSEARCH_PASSWORD"),
	})
	if err != nil {
		log.Fatalf("Failed to connect to Elasticsearch: %v", err)
	}
	auditService := audit.NewService(esClient)

	postgresConfig := database.PostgresConfig{
		Host:        os.Getenv("POSTGRES_HOST"),
		Port:        5432,
		Database:    os.Getenv("POSTGRES_DB"),
		User:        os.Getenv("POSTGRES_USER"),
		Password:    os.Getenv("POSTGRES_PASSWORD"),
		SSLMode:     os.Getenv("POSTGRES_SSLMODE"),
		MaxPoolSize: 1,
		ConnTimeout: 5 * time.Second,
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, postgresConfig)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer database.Disconnect(db)

	authService := auth.NewService(db, auditService, auth.Config{
		JWTSecret: os.Getenv("JWT_SECRET"),
	})

	if err := authService.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	user, err := authService.Register(ctx, *username, *email, *password, []string{string(staff.RoleAdmin)}, "")
	if err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	fmt.Printf("Successfully created admin user:\n")
	fmt.Printf("ID: %s\n", user.ID)
	fmt.Printf("Username: %s\n", user.Username)
	fmt.Printf("Roles: %v\n", user.Roles)
}
