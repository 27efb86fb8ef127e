package main

import (
	"log"
	"net/http"

	"adlens/internal/config"
	"adlens/internal/container"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("failed to wire application: %v", err)
	}
	defer c.Close()

	addr := ":" + cfg.Server.Port
	log.Printf("causal analysis API listening on %s", addr)
	if err := http.ListenAndServe(addr, c.API.Router()); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
