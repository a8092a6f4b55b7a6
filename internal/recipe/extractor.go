package recipe

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"family-meal-planner/internal/llm"
	"family-meal-planner/internal/shared"

	"github.com/google/uuid"
)

//go:embed extractor_prompt.md
var extractorPrompt string

const extractorAgentName = "Extractor"

var extractorTmpl = template.Must(template.New("extractor").Parse(extractorPrompt))

// Source is the raw material handed to the extractor.
type Source struct {
	Title string
	URL   string
	Text  string
}

// Extractor turns free text into a structured Recipe using a language model.
type Extractor struct {
	textGen llm.TextGenerator
}

// NewExtractor creates a new Extractor.
func NewExtractor(textGen llm.TextGenerator) *Extractor {
	return &Extractor{textGen: textGen}
}

// FromText extracts a recipe from src. The returned AgentMeta is filled in even
// when parsing fails so token usage can still be recorded.
func (e *Extractor) FromText(ctx context.Context, src Source) (Recipe, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: extractorAgentName}

	if strings.TrimSpace(src.Text) == "" {
		return Recipe{}, meta, fmt.Errorf("no recipe text to extract from")
	}

	prompt, err := buildExtractorPrompt(src)
	if err != nil {
		return Recipe{}, meta, err
	}

	llmResp, err := e.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return Recipe{}, meta, fmt.Errorf("failed to get LLM response: %w", err)
	}
	meta.Usage = llmResp.Usage
	meta.Latency = time.Since(start)

	var rec Recipe
	if err := json.Unmarshal([]byte(llm.StripCodeFence(llmResp.Content)), &rec); err != nil {
		return Recipe{}, meta, fmt.Errorf("failed to unmarshal LLM response: %w", err)
	}

	rec.Clean()
	if rec.Name == "" {
		return Recipe{}, meta, fmt.Errorf("extracted recipe has no name")
	}

	rec.ID = uuid.NewString()
	rec.SourceURL = src.URL
	rec.UpdatedAt = time.Now().UTC()
	return rec, meta, nil
}

func buildExtractorPrompt(src Source) (string, error) {
	var buf bytes.Buffer
	if err := extractorTmpl.Execute(&buf, src); err != nil {
		return "", fmt.Errorf("failed to render extractor prompt: %w", err)
	}
	return buf.String(), nil
}
