package main

import (
	"log"
	"os"

	"github.com/rahulv/cricfeed/internal/ai"
	"github.com/rahulv/cricfeed/internal/api"
	"github.com/rahulv/cricfeed/internal/scores"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	reg, err := scores.LoadRegistry()
	if err != nil {
		log.Fatalf("Failed to load source registry: %v", err)
	}

	cfg, err := reg.DefaultSource()
	if err != nil {
		log.Fatalf("Source selection failed: %v", err)
	}

	source, err := scores.Build(cfg)
	if err != nil {
		log.Fatalf("Failed to build score source: %v", err)
	}

	aiClient := ai.NewClient(os.Getenv("COMMENTARY_HOST"), os.Getenv("COMMENTARY_MODEL"))

	srv := api.NewServer(reg, source, aiClient)
	log.Printf("Serving %s scores on port %s...", source.ID(), port)
	if err := srv.Start(port); err != nil {
		log.Fatal(err)
	}
}
