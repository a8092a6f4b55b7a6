package clipper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"family-meal-planner/internal/recipe"
	"family-meal-planner/internal/shared"

	"github.com/PuerkitoBio/goquery"
)

// maxTextRunes caps the page text sent to the model.
const maxTextRunes = 20000

// RecipeSaver persists imported recipes.
type RecipeSaver interface {
	Save(ctx context.Context, rec recipe.Recipe) error
}

// MetaRecorder records token usage of model calls.
type MetaRecorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

// Clipper fetches recipe pages, extracts a structured recipe and stores it.
type Clipper struct {
	extractor *recipe.Extractor
	repo      RecipeSaver
	metrics   MetaRecorder
	client    *http.Client
}

// NewClipper creates a new Clipper. metrics may be nil.
func NewClipper(extractor *recipe.Extractor, repo RecipeSaver, metrics MetaRecorder) *Clipper {
	return &Clipper{
		extractor: extractor,
		repo:      repo,
		metrics:   metrics,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// ImportURL fetches the page at url and imports the recipe it describes.
func (c *Clipper) ImportURL(ctx context.Context, url string) (*recipe.Recipe, error) {
	title, text, err := c.fetchAndCleanHTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}
	return c.importSource(ctx, recipe.Source{Title: title, URL: url, Text: text})
}

// ImportText imports a recipe from pasted text.
func (c *Clipper) ImportText(ctx context.Context, text string) (*recipe.Recipe, error) {
	return c.importSource(ctx, recipe.Source{Text: truncate(text)})
}

func (c *Clipper) importSource(ctx context.Context, src recipe.Source) (*recipe.Recipe, error) {
	rec, meta, err := c.extractor.FromText(ctx, src)
	c.record(ctx, meta)
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}

	if err := c.repo.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save recipe: %w", err)
	}
	log.Printf("Imported recipe %q (%s)", rec.Name, rec.ID)
	return &rec, nil
}

func (c *Clipper) record(ctx context.Context, meta shared.AgentMeta) {
	if c.metrics == nil {
		return
	}
	if err := c.metrics.RecordMeta(ctx, meta); err != nil {
		log.Printf("Failed to record metrics for %s: %v", meta.AgentName, err)
	}
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", "family-meal-planner/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, noscript, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	title := strings.TrimSpace(doc.Find("title").First().Text())
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	return title, truncate(text), nil
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxTextRunes {
		return s
	}
	return string(r[:maxTextRunes])
}
