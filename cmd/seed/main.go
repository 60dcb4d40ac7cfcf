// Command main runs the database seeder for the document repository.
package main

import (
	"flag"
	"log"

	"veridoc/internal/config"
	"veridoc/internal/database"
	"veridoc/internal/seed"
)

func main() {
	numCompanies := flag.Int("companies", 3, "Number of companies to create")
	usersPerCompany := flag.Int("users", 12, "Number of users per company")
	docsPerCompany := flag.Int("docs", 40, "Number of documents per company")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Store seed passwords unhashed (dev only)")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d companies, %d users each, %d documents each, clean=%v\n",
		*numCompanies, *usersPerCompany, *docsPerCompany, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := seed.Options{
		NumCompanies:    *numCompanies,
		UsersPerCompany: *usersPerCompany,
		DocsPerCompany:  *docsPerCompany,
		ShouldClean:     *shouldClean,
		SkipBcrypt:      *skipBcrypt,
	}
	if err := seed.Seed(db, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
