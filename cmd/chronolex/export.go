package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
)

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	conversation := fs.String("conversation", "", "Conversation id (empty = global timeline)")
	out := fs.String("o", "timeline_export.json", "Output file")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	st := openLocalStore(cfg, *conversation)
	if err := st.ExportTo(*out); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Exported to %s\n", *out)
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	conversation := fs.String("conversation", "", "Conversation id (empty = global timeline)")
	in := fs.String("i", "", "Input file (required)")
	fs.Parse(os.Args[1:])

	if *in == "" {
		fmt.Fprintln(os.Stderr, "error: -i is required")
		os.Exit(1)
	}

	cfg := loadConfig()
	st := openLocalStore(cfg, *conversation)
	if err := st.ImportFrom(*in); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported from %s\n", *in)
}

func runNewConversation() {
	fs := flag.NewFlagSet("new-conversation", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	fmt.Println(uuid.NewString())
}
