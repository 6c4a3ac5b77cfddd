package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/repcoach/internal/config"
	"github.com/meltforce/repcoach/internal/mcp"
	"github.com/meltforce/repcoach/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repcoach-mcp", Version)
		return
	}

	// Stdout carries the MCP protocol; all logging goes to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := mcp.New(db, cfg.Coach.WindowWeeks, Version, log)
	log.Info("repcoach-mcp serving on stdio", "version", Version)

	if err := mcpserver.ServeStdio(srv); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
