package main

import (
	"airdrop-engine/internal/app/server"
	"airdrop-engine/internal/config"
)

func main() {
	cfg := config.Load()
	config.SetupLogging(cfg.Server.LogLevel)
	server.Run(cfg)
}
