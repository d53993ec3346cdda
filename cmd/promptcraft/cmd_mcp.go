package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/felixgeelhaar/promptcraft/internal/mcp"
)

// cmdMCP serves the evaluator tools over stdio
func cmdMCP() error {
	ev, _, err := loadEvaluator()
	if err != nil {
		return err
	}

	server := mcpserver.NewServer(mcpserver.Config{
		Evaluator: ev,
		Version:   Version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.ServeStdio(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
