// Command main runs the database seeder for Kizuna.
package main

import (
	"flag"
	"log"

	"kizuna/internal/config"
	"kizuna/internal/database"
	"kizuna/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 40, "Number of users to create")
	premiumShare := flag.Float64("premium", 0.8, "Fraction of users on the premium tier")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, premium=%.0f%%, clean=%v\n", *numUsers, *premiumShare*100, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	opts := seed.Options{
		NumUsers:     *numUsers,
		PremiumShare: *premiumShare,
		ShouldClean:  *shouldClean,
	}

	if err := seed.Run(db, opts); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✅ Seeding complete")
}
