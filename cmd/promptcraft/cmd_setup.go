package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/promptcraft/internal/config"
)

// cmdInit creates ~/.promptcraft and a default config
func cmdInit() error {
	fmt.Println("Promptcraft - First-Time Setup")
	fmt.Println("==============================")
	fmt.Println()

	fmt.Print("Creating ~/.promptcraft directory structure... ")
	dir, err := config.EnsureDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Println("✓")

	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Print("Creating default configuration... ")
		if err := config.SaveLocalConfig(config.DefaultLocalConfig()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println("✓")
	} else {
		fmt.Println("Configuration already exists ✓")
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  promptcraft exercise list   # browse the practice exercises")
	fmt.Println("  promptcraft start           # start the daemon")
	return nil
}

// cmdConfig prints the effective configuration. Connection URLs are masked.
func cmdConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Promptcraft Configuration")

	fmt.Println("\nDaemon:")
	fmt.Printf("  bind: %s\n", cfg.Addr())
	fmt.Printf("  log_level: %s\n", cfg.Daemon.LogLevel)
	fmt.Printf("  rate_per_second: %d\n", cfg.Daemon.RatePerSecond)
	fmt.Printf("  session_ttl_minutes: %d\n", cfg.Daemon.SessionTTLMinutes)

	fmt.Println("\nEvaluator:")
	fmt.Printf("  min_chars: %d\n", cfg.Evaluator.MinChars)
	fmt.Printf("  min_words: %d\n", cfg.Evaluator.MinWords)
	fmt.Printf("  partial_credit_cap: %d\n", cfg.Evaluator.PartialCreditCap)

	fmt.Println("\nCatalog:")
	if cfg.Catalog.Path == "" {
		fmt.Println("  path: (built-in)")
	} else {
		fmt.Printf("  path: %s\n", cfg.Catalog.Path)
	}

	fmt.Println("\nStorage:")
	fmt.Printf("  driver: %s\n", cfg.Storage.Driver)
	if cfg.Storage.Driver == config.DriverPostgres {
		fmt.Printf("  postgres_url: %s\n", mask(cfg.Storage.PostgresURL))
	}
	fmt.Printf("  retention_days: %d\n", cfg.Storage.RetentionDays)

	fmt.Println("\nQueue:")
	fmt.Printf("  enabled: %t\n", cfg.Queue.Enabled)
	if cfg.Queue.Enabled {
		fmt.Printf("  url: %s\n", mask(cfg.Queue.URL))
		fmt.Printf("  consume: %t\n", cfg.Queue.Consume)
	}

	dir, _ := config.Dir()
	fmt.Printf("\nConfig path: %s/config.yaml\n", dir)
	return nil
}

func mask(s string) string {
	if s == "" {
		return "✗"
	}
	return "✓ (set)"
}
