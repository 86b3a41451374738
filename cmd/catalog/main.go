package main

import (
	"log"
	"net/http"

	"github.com/abelzeko/plant-manager/internal/catalogserver"
	"github.com/abelzeko/plant-manager/internal/config"
	"github.com/abelzeko/plant-manager/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	sugar, err := logger.New(cfg.Logger())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer sugar.Sync()

	seed, err := catalogserver.LoadSeed()
	if err != nil {
		sugar.Fatalf("Failed to load catalog seed: %v", err)
	}

	sugar.Infof("Serving %d catalog plants on %s", len(seed.Plants), cfg.CatalogAddr)
	if err := http.ListenAndServe(cfg.CatalogAddr, catalogserver.New(seed)); err != nil {
		sugar.Fatalf("Catalog server stopped: %v", err)
	}
}
