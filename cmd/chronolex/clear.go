package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/acarlier/chronolex/internal/timeline"
)

// Resetting the session view and destroying durable history are
// different operations; the flags keep them explicit and separate.
func runClear() {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	conversation := fs.String("conversation", "", "Conversation id (empty = global timeline)")
	memory := fs.Bool("memory", false, "Reset the in-memory session view only")
	durable := fs.Bool("store", false, "Wipe the persistent store (prompts for confirmation)")
	yes := fs.Bool("y", false, "Skip confirmation")
	fs.Parse(os.Args[1:])

	if !*memory && !*durable {
		fmt.Fprintln(os.Stderr, "error: pass -memory and/or -store")
		os.Exit(1)
	}

	ctx := context.Background()
	cfg := loadConfig()
	st := openStore(ctx, cfg, *conversation)

	if *memory {
		engine := timeline.New(ctx, st)
		n := engine.Len()
		engine.Clear()
		fmt.Printf("Session view reset (%d event(s) dropped from memory; store untouched)\n", n)
	}

	if *durable {
		if !*yes && !confirm("Wipe ALL persisted timeline events? [y/N] ") {
			fmt.Println("Aborted.")
			return
		}
		ok, err := st.ClearAll(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Println("Store clear incomplete; see logs.")
			return
		}
		fmt.Println("Persistent store wiped.")
	}
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
