package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/acarlier/chronolex/internal/config"
	"github.com/acarlier/chronolex/internal/event"
	"github.com/acarlier/chronolex/internal/extract"
	"github.com/acarlier/chronolex/internal/llm"
	"github.com/acarlier/chronolex/internal/timeline"
)

func runExtract() {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	file := fs.String("file", "", "Read text from file instead of stdin")
	conversation := fs.String("conversation", "", "Conversation id (empty = global timeline)")
	dryRun := fs.Bool("dry-run", false, "Print candidates without ingesting")
	useLLM := fs.Bool("llm", false, "Extract with the configured chat model first, heuristics as fallback")
	noYearFallback := fs.Bool("no-year-fallback", false, "Disable the bare-year strategy")
	fs.Parse(os.Args[1:])

	var text []byte
	var err error
	if *file != "" {
		text, err = os.ReadFile(*file)
	} else {
		text, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	cfg := loadConfig()

	var cands []event.Candidate
	if *useLLM {
		cands = extractWithLLM(ctx, cfg, string(text))
	}
	if len(cands) == 0 {
		opts := extract.Options{YearFallback: cfg.Extraction.YearFallback}
		if *noYearFallback {
			opts.YearFallback = false
		}
		cands = extract.EventsWithOptions(string(text), opts)
	}
	if len(cands) == 0 {
		fmt.Println("No dated events found.")
		return
	}

	if *dryRun {
		for _, c := range cands {
			fmt.Printf("%s  [%s]  %s\n", c.Date, c.Type, c.Title)
		}
		fmt.Printf("\n%d candidate(s), not ingested (dry run)\n", len(cands))
		return
	}

	engine := timeline.New(ctx, openStore(ctx, cfg, *conversation))
	accepted := engine.Ingest(ctx, cands)

	fmt.Printf("%d candidate(s), %d newly accepted, timeline now has %d event(s)\n",
		len(cands), len(accepted), engine.Len())
	for _, ev := range accepted {
		fmt.Printf("  + %s  [%s]  %s (score %.2f)\n",
			ev.Date.Format("2006-01-02"), ev.Type, ev.Title, ev.Score)
	}
}

// extractWithLLM runs the silent extraction. Any failure (missing key,
// unreadable prompt file, bad model output) degrades to nil so the
// heuristics can take over.
func extractWithLLM(ctx context.Context, cfg *config.Config, text string) []event.Candidate {
	prompt, err := llm.LoadExtractionPrompt(cfg.LLM.PromptFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, falling back to heuristics\n", err)
		return nil
	}

	p := llm.NewOpenAIProvider(cfg.LLM.APIKey, cfg.LLM.Endpoint, cfg.LLM.Model)
	if !p.Available() {
		fmt.Fprintln(os.Stderr, "warning: no chat API key configured, falling back to heuristics")
		return nil
	}
	return llm.ExtractEvents(ctx, p, prompt, text, cfg.LLM.ExtractionModel)
}
