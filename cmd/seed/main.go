// Command main runs the database seeder for Taleweave.
package main

import (
	"flag"
	"log"

	"taleweave/internal/config"
	"taleweave/internal/database"
	"taleweave/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numStories := flag.Int("stories", 100, "Number of stories to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d stories, clean=%v\n", *numUsers, *numStories, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db, cfg); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	s := seed.NewSeeder(db)

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	users, err := s.SeedUsers(*numUsers)
	if err != nil {
		log.Fatalf("User seeding failed: %v", err)
	}
	stories, err := s.SeedStories(users, *numStories)
	if err != nil {
		log.Fatalf("Story seeding failed: %v", err)
	}
	if err := s.SeedEngagement(users, stories); err != nil {
		log.Fatalf("Engagement seeding failed: %v", err)
	}

	log.Println("All done! Your database is now populated with demo data.")
	log.Printf("All demo users have the password: %s", seed.DemoPassword)
}
