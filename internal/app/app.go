package app

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"family-meal-planner/internal/clipper"
	"family-meal-planner/internal/config"
	"family-meal-planner/internal/cupboard"
	"family-meal-planner/internal/database"
	"family-meal-planner/internal/llm"
	"family-meal-planner/internal/metrics"
	"family-meal-planner/internal/planner"
	"family-meal-planner/internal/recipe"
	"family-meal-planner/internal/shopping"
	"family-meal-planner/internal/storage"
	synchub "family-meal-planner/internal/sync"
)

// importThrottle keeps bulk imports under the Gemini free tier rate limit (15 RPM).
const importThrottle = 5 * time.Second

// App holds the application's dependencies.
type App struct {
	cfg *config.Config
	db  *database.DB

	Recipes      *recipe.Repository
	Plans        *planner.PlanRepository
	Planner      *planner.Planner
	Cupboard     *cupboard.Repository
	ShoppingRepo *shopping.Repository
	Checked      shopping.CheckedStore
	Shopping     *shopping.Service
	Metrics      *metrics.Store
	Hub          *synchub.Hub

	// Clipper is nil when no AI provider is configured.
	Clipper *clipper.Clipper

	textGen     llm.TextGenerator
	stopForward func()
	throttle    time.Duration
}

// New opens the database, wires repositories and services and loads the
// current shopping list.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var checked shopping.CheckedStore
	if cfg.CheckedStatePath != "" {
		fileStore, err := storage.NewCheckedFileStore(cfg.CheckedStatePath)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		checked = fileStore
	}

	var textGen llm.TextGenerator
	if cfg.RequireAI() == nil {
		textGen, err = newTextGenerator(ctx, cfg)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	a := assemble(cfg, db, checked, textGen)
	if err := a.Shopping.Sync(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// assemble builds the object graph on an open database. A nil checked store
// keeps checked state in the database.
func assemble(cfg *config.Config, db *database.DB, checked shopping.CheckedStore, textGen llm.TextGenerator) *App {
	recipes := recipe.NewRepository(db.SQL)
	plans := planner.NewPlanRepository(db.SQL)
	pantry := cupboard.NewRepository(db.SQL)
	shoppingRepo := shopping.NewRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)
	if checked == nil {
		checked = shoppingRepo
	}

	live := shopping.NewLiveList()
	svc := shopping.NewService(plans, shoppingRepo, checked, live)

	mealPlanner := planner.NewPlanner(recipes, plans, pantry)
	mealPlanner.OnChange = func(ctx context.Context) {
		if err := svc.RefreshPlanned(ctx); err != nil {
			log.Printf("Warning: failed to refresh shopping list: %v", err)
		}
	}

	hub := synchub.NewHub()

	a := &App{
		cfg:          cfg,
		db:           db,
		Recipes:      recipes,
		Plans:        plans,
		Planner:      mealPlanner,
		Cupboard:     pantry,
		ShoppingRepo: shoppingRepo,
		Checked:      checked,
		Shopping:     svc,
		Metrics:      metricsStore,
		Hub:          hub,
		textGen:      textGen,
		stopForward:  synchub.Forward(live, hub),
		throttle:     importThrottle,
	}
	if textGen != nil {
		a.Clipper = clipper.NewClipper(recipe.NewExtractor(textGen), recipes, metricsStore)
	}
	return a
}

// newTextGenerator prefers Gemini and falls back to Groq.
func newTextGenerator(ctx context.Context, cfg *config.Config) (llm.TextGenerator, error) {
	if cfg.GeminiAPIKey != "" {
		client, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return client, nil
	}
	return llm.NewGroqClient(cfg), nil
}

// DataDir is the directory holding the database file.
func (a *App) DataDir() string {
	return filepath.Dir(a.cfg.DatabasePath)
}

// Close releases the model client and the database.
func (a *App) Close() error {
	if a.stopForward != nil {
		a.stopForward()
	}
	if c, ok := a.textGen.(llm.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("Warning: failed to close model client: %v", err)
		}
	}
	return a.db.Close()
}

// ShoppingList returns the current list. With a date range only unshopped
// meals inside it are aggregated; manual items are always included.
func (a *App) ShoppingList(ctx context.Context, from, to string) ([]shopping.ShopItem, error) {
	if from == "" && to == "" {
		return a.Shopping.Current(ctx)
	}
	if from == "" || to == "" {
		return nil, fmt.Errorf("both --from and --to are required for a range")
	}

	meals, err := a.Planner.Range(ctx, from, to)
	if err != nil {
		return nil, err
	}
	unshopped := meals[:0]
	for _, m := range meals {
		if !m.IsShopped {
			unshopped = append(unshopped, m)
		}
	}

	manual, err := a.ShoppingRepo.ListManual(ctx)
	if err != nil {
		return nil, err
	}
	checked, err := a.Checked.All(ctx)
	if err != nil {
		return nil, err
	}
	return shopping.Recompute(unshopped, manual, checked), nil
}

// ImportRecipes imports each source, a URL or pasted recipe text, and
// returns how many succeeded. Failures are logged and skipped.
func (a *App) ImportRecipes(ctx context.Context, sources []string) (int, error) {
	if a.Clipper == nil {
		return 0, fmt.Errorf("recipe import needs GEMINI_API_KEY or GROQ_API_KEY")
	}

	imported := 0
	for i, src := range sources {
		if i > 0 && a.throttle > 0 {
			select {
			case <-ctx.Done():
				return imported, ctx.Err()
			case <-time.After(a.throttle):
			}
		}

		var (
			rec *recipe.Recipe
			err error
		)
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			rec, err = a.Clipper.ImportURL(ctx, src)
		} else {
			rec, err = a.Clipper.ImportText(ctx, src)
		}
		if err != nil {
			log.Printf("Failed to import %q: %v", shorten(src), err)
			continue
		}

		imported++
		log.Printf("Successfully imported '%s'.", rec.Name)
	}
	return imported, nil
}

func shorten(s string) string {
	r := []rune(s)
	if len(r) > 40 {
		return string(r[:40]) + "..."
	}
	return s
}
