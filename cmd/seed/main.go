// Command seed populates a development database with demo postings.
package main

import (
	"context"
	"flag"
	"log"

	"vacancyhub/internal/config"
	"vacancyhub/internal/database"
	"vacancyhub/internal/seed"
)

func main() {
	users := flag.Int("users", seed.DefaultOptions.Users, "Number of authors to create")
	perKind := flag.Int("postings", seed.DefaultOptions.PostingsPerKind, "Postings to create per kind")
	shouldClean := flag.Bool("clean", true, "Clean seed tables before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = time based)")
	flag.Parse()

	log.Printf("🌱 Seeding %d users, %d postings per kind, clean=%v", *users, *perKind, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db, seed.Options{Users: *users, PostingsPerKind: *perKind, Seed: *randSeed})

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	res, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	for kind, n := range res.Postings {
		log.Printf("  %-22s %d", kind.Slug(), n)
	}
	log.Println("✨ All done!")
}
