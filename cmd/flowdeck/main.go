package main

import (
	"log"

	"flowdeck/internal/config"
	"flowdeck/internal/db"
	"flowdeck/internal/seed"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DSN)
	db.Migrate(gdb)

	if err := seed.FirstSetup(gdb, cfg.AdminPassword); err != nil {
		log.Fatalf("❌ Seed failed: %v", err)
	}

	log.Println("🚀 FlowDeck store ready")
}
