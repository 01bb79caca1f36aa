package main

import (
	"context"
	"log"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/opticlinic/clinic-flow/internal/audit"
	"github.com/opticlinic/clinic-flow/internal/auth"
	"github.com/opticlinic/clinic-flow/internal/billing"
	"github.com/opticlinic/clinic-flow/internal/database"
	"github.com/opticlinic/clinic-flow/internal/journey"
)

// Creates the relational tables and document indexes the server expects.
// Safe to run repeatedly.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/clinic-flow")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, database.PostgresConfig{
		Host:        viper.GetString("postgres.host"),
		Port:        viper.GetInt("postgres.port"),
		Database:    viper.GetString("postgres.name"),
		User:        viper.GetString("postgres.user"),
		Password:    viper.GetString("postgres.password"),
		SSLMode:     viper.GetString("postgres.sslmode"),
		MaxPoolSize: 1,
		ConnTimeout: 5 * time.Second,
	})
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer database.Disconnect(db)

	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{viper.GetString("elasticsearch.url")},
		Username:  viper.GetString("elasticsearch.username"),
		Password:  viper.GetString("elasticsearch.password"),
	})
	if err != nil {
		log.Fatalf("Failed to create Elasticsearch client: %v", err)
	}
	auditService := audit.NewService(esClient)

	authService := auth.NewService(db, auditService, auth.Config{
		JWTSecret: viper.GetString("jwt_secret"),
	})
	if err := authService.Initialize(ctx); err != nil {
		log.Fatalf("Failed to create users table: %v", err)
	}
	log.Println("users table ready")

	billingService := billing.NewService(db, nil, auditService, nil)
	if err := billingService.Initialize(ctx); err != nil {
		log.Fatalf("Failed to create invoices table: %v", err)
	}
	log.Println("invoices table ready")

	mongoClient, err := database.NewMongoClient(ctx, &database.MongoConfig{
		URI:                    viper.GetString("mongo.uri"),
		Database:               viper.GetString("mongo.database"),
		MaxPoolSize:            5,
		MinPoolSize:            1,
		ConnectTimeout:         10 * time.Second,
		ServerSelectionTimeout: 10 * time.Second,
	})
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(ctx)

	mongoDB := mongoClient.Database(viper.GetString("mongo.database"))
	if err := journey.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Fatalf("Failed to create journey indexes: %v", err)
	}
	log.Println("journey indexes ready")
}
