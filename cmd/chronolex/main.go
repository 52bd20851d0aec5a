// Command chronolex is the CLI for the legal timeline engine.
//
// Usage:
//
//	chronolex                     Show help
//	chronolex extract             Extract events from free text and ingest them
//	chronolex events              Print a conversation's timeline
//	chronolex stats               Store statistics
//	chronolex clear               Reset session view or wipe durable history
//	chronolex export              Export the local JSON mapping
//	chronolex import              Import a previously exported mapping
//	chronolex new-conversation    Mint a fresh conversation id
package main

import (
	"fmt"
	"os"

	"github.com/acarlier/chronolex/internal/logging"
)

const usage = `chronolex - legal timeline engine CLI

Usage:
  chronolex <command> [flags]

Commands:
  extract           Extract dated legal events from text (stdin or -file) and ingest
  events            Print the timeline, optionally bounded with -from/-to
  stats             Store statistics for a conversation
  clear             -memory resets the session view; -store wipes durable history
  export            Export the local JSON mapping to a file
  import            Import events from an exported mapping
  new-conversation  Mint a fresh conversation id

Environment:
  ALBERT_API_KEY       Albert API key (albert storage backend)
  OPENAI_API_KEY       Chat-completions key (silent extraction; Albert fallback)
  CHRONOLEX_DATA_DIR   Root directory for per-conversation state
  CHRONOLEX_STORAGE    Storage backend: json, sqlite, albert

Run 'chronolex <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	if err := logging.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "chronolex: logging init failed: %v\n", err)
	}
	defer logging.Close()

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "extract":
		runExtract()
	case "events":
		runEvents()
	case "stats":
		runStats()
	case "clear":
		runClear()
	case "export":
		runExport()
	case "import":
		runImport()
	case "new-conversation":
		runNewConversation()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "chronolex: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
