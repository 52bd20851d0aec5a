package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	conversation := fs.String("conversation", "", "Conversation id (empty = global timeline)")
	fs.Parse(os.Args[1:])

	ctx := context.Background()
	cfg := loadConfig()
	st := openStore(ctx, cfg, *conversation)

	stats, err := st.Stats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Backend:     %s\n", stats.StorageType)
	fmt.Printf("Collection:  %s (%s)\n", stats.CollectionName, stats.CollectionID)
	if stats.StorageFile != "" {
		fmt.Printf("File:        %s\n", stats.StorageFile)
	}
	fmt.Printf("Events:      %d\n", stats.TotalEvents)
}
