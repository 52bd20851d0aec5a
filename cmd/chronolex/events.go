package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/acarlier/chronolex/internal/timeline"
)

func runEvents() {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	conversation := fs.String("conversation", "", "Conversation id (empty = global timeline)")
	from := fs.String("from", "", "Start date, inclusive (YYYY-MM-DD)")
	to := fs.String("to", "", "End date, inclusive (YYYY-MM-DD)")
	fs.Parse(os.Args[1:])

	var start, end *time.Time
	if *from != "" {
		d, err := time.Parse("2006-01-02", *from)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: bad -from date: %v\n", err)
			os.Exit(1)
		}
		start = &d
	}
	if *to != "" {
		d, err := time.Parse("2006-01-02", *to)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: bad -to date: %v\n", err)
			os.Exit(1)
		}
		end = &d
	}

	ctx := context.Background()
	cfg := loadConfig()
	engine := timeline.New(ctx, openStore(ctx, cfg, *conversation))

	events := engine.EventsRange(start, end)
	if len(events) == 0 {
		fmt.Println("Timeline is empty.")
		return
	}

	for _, ev := range events {
		fmt.Printf("%s  [%-13s]  %-6s  %.2f  %s\n",
			ev.Date.Format("2006-01-02"), ev.Type, ev.Source, ev.Score, ev.Title)
		if ev.Description != "" {
			fmt.Printf("            %s\n", ev.Description)
		}
	}
	fmt.Printf("\n%d event(s)\n", len(events))
}
