package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/acarlier/chronolex/internal/event"
	"github.com/acarlier/chronolex/internal/extract"
	"github.com/acarlier/chronolex/internal/logging"
)

var (
	fenceOpenRe  = regexp.MustCompile("^```(?:json)?\\s*")
	fenceCloseRe = regexp.MustCompile("\\s*```$")
)

// promptFile is the YAML layout of the prompt configuration file.
type promptFile struct {
	TimelineExtractionPrompt string `yaml:"timeline_extraction_prompt"`
}

// LoadExtractionPrompt reads the timeline extraction prompt from a YAML
// prompt file (key "timeline_extraction_prompt").
func LoadExtractionPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("llm: read prompt file: %w", err)
	}

	var pf promptFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return "", fmt.Errorf("llm: parse prompt file: %w", err)
	}
	if pf.TimelineExtractionPrompt == "" {
		return "", fmt.Errorf("llm: prompt file %s has no timeline_extraction_prompt", path)
	}
	return pf.TimelineExtractionPrompt, nil
}

// ExtractEvents runs the silent extraction: the provider is asked to
// turn responseText into a JSON array of event candidates. Nothing is
// shown to the user and every failure degrades to an empty result.
//
// extractionModel, when set, routes the call to a lighter model than the
// conversation's main one.
func ExtractEvents(ctx context.Context, p Provider, prompt, responseText, extractionModel string) []event.Candidate {
	if p == nil || !p.Available() {
		return nil
	}

	if extractionModel != "" {
		logging.Info("extraction with dedicated model", "model", extractionModel)
	}

	resp, err := p.Generate(ctx, Request{
		SystemPrompt: prompt,
		UserPrompt:   responseText,
		Model:        extractionModel,
		Temperature:  0,
	})
	if err != nil {
		logging.Error("silent extraction failed", "error", err)
		return nil
	}

	jsonText := strings.TrimSpace(resp.Content)
	jsonText = fenceOpenRe.ReplaceAllString(jsonText, "")
	jsonText = fenceCloseRe.ReplaceAllString(jsonText, "")

	var cands []event.Candidate
	if err := json.Unmarshal([]byte(jsonText), &cands); err != nil {
		logging.Error("extraction returned invalid JSON", "error", err, "content", excerpt(jsonText))
		return nil
	}

	out := cands[:0]
	for _, c := range cands {
		// Normalize dates to ISO; a year buried in a sloppy date string
		// still salvages the candidate.
		if d, ok := extract.ParseCandidateDate(c.Date); ok {
			c.Date = d.Format("2006-01-02")
		} else {
			logging.Warn("extracted event has invalid date", "date", c.Date, "title", c.Title)
			continue
		}
		c.Source = event.SourceLLM
		out = append(out, c)
	}

	logging.Info("events extracted silently", "count", len(out))
	return out
}

func excerpt(s string) string {
	const max = 200
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
