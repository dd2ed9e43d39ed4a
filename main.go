package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"medscan/cmd"
	"medscan/internal/config"
	"medscan/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
		// Fall back to the default logger; commands report the config error themselves.
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting medscan")

	cmd.Execute()

	log.Debug().Msg("medscan shutdown")
	os.Exit(0)
}
