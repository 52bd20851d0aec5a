package main

import (
	"context"
	"fmt"
	"os"

	"github.com/acarlier/chronolex/internal/albert"
	"github.com/acarlier/chronolex/internal/config"
	"github.com/acarlier/chronolex/internal/store"
)

// loadConfig exits on unreadable config; a missing file is fine.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// openStore builds the configured backend for a conversation.
func openStore(ctx context.Context, cfg *config.Config, conversationID string) store.Store {
	switch cfg.Storage.Backend {
	case "sqlite":
		st, err := store.OpenSQLite(cfg.Storage.SQLitePath, conversationID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: open sqlite store: %v\n", err)
			os.Exit(1)
		}
		return st
	case "albert":
		client := albert.New(cfg.Albert.APIKey, cfg.Albert.BaseURL, cfg.Albert.EmbedModel)
		collection := cfg.Albert.Collection
		if conversationID != "" {
			collection = "timeline_" + conversationID
		}
		return store.NewAlbert(ctx, client, collection, cfg.Albert.SimilarityThreshold)
	default:
		st, err := store.NewLocal(cfg.DataDir, conversationID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: open local store: %v\n", err)
			os.Exit(1)
		}
		return st
	}
}

// openLocalStore is for subcommands that only make sense on the JSON
// backend (export/import).
func openLocalStore(cfg *config.Config, conversationID string) *store.LocalStore {
	st, err := store.NewLocal(cfg.DataDir, conversationID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open local store: %v\n", err)
		os.Exit(1)
	}
	return st
}
