package main

import (
	"context"
	"flag"

	"github.com/EmpoweredVote/EV-Prospection/internal/config"
	"github.com/EmpoweredVote/EV-Prospection/internal/logging"
	"github.com/EmpoweredVote/EV-Prospection/internal/prospection"
	"github.com/EmpoweredVote/EV-Prospection/internal/seeds"
	"github.com/joho/godotenv"
)

func main() {
	file := flag.String("file", seeds.DefaultCategoriesFile, "JSON array of category names")
	flag.Parse()

	godotenv.Load(".env.local")
	logging.Init("seed")
	log := logging.For("seed")

	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ invalid configuration: %v", err)
	}

	store, err := prospection.NewStore(cfg)
	if err != nil {
		log.Fatalf("❌ open store: %v", err)
	}

	names, err := seeds.LoadCategoryNames(*file)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	if _, err := seeds.SeedCategories(context.Background(), store, names); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
}
