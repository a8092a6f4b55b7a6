package app

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"family-meal-planner/internal/config"
	"family-meal-planner/internal/database"
	"family-meal-planner/internal/llm"
	"family-meal-planner/internal/recipe"
	"family-meal-planner/internal/shared"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "hunter2"

type mockTextGenerator struct {
	response string
	calls    int
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.calls++
	if m.response == "" {
		return llm.ContentResponse{}, fmt.Errorf("mock ai error")
	}
	return llm.ContentResponse{Content: m.response, Usage: shared.TokenUsage{PromptTokens: 5, CompletionTokens: 5}}, nil
}

func setupApp(t *testing.T, textGen llm.TextGenerator) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sqlDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.ApplySchema(sqlDB); err != nil {
		t.Fatal(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		DatabasePath:          t.TempDir() + "/test.db",
		JWTSecret:             "secret",
		JWTIssuer:             "test",
		JWTTTL:                time.Hour,
		HouseholdPasswordHash: string(hash),
	}

	a := assemble(cfg, &database.DB{SQL: sqlDB}, nil, textGen)
	a.throttle = 0
	if err := a.Shopping.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func seedPancakes(t *testing.T, a *App) {
	t.Helper()
	err := a.Recipes.Save(context.Background(), recipe.Recipe{
		ID:       "pancakes",
		Name:     "Pancakes",
		Servings: 2,
		Ingredients: []recipe.Ingredient{
			{Name: "Flour", Amount: recipe.Amount(250), Unit: "g"},
			{Name: "Milk", Amount: recipe.Amount(0.25), Unit: "l"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, r http.Handler) string {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"member": "Kari", "password": testPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("Login failed with %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Token
}

func TestRouter(t *testing.T) {
	a := setupApp(t, nil)
	seedPancakes(t, a)
	r := a.Router([]string{"Milk", "Bread"})

	t.Run("RequiresToken", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/api/shopping", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rec.Code)
		}
	})

	t.Run("HealthIsPublic", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/health", "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})

	token := login(t, r)

	t.Run("PlanThenShop", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/api/planner", token, gin.H{"recipe_id": "pancakes", "date": "2026-10-14", "servings": 4})
		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = doJSON(t, r, http.MethodPost, "/api/shopping/items", token, gin.H{"name": "Coffee"})
		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = doJSON(t, r, http.MethodGet, "/api/shopping/export", token, nil)
		want := "- Coffee\n- Flour (500 g)\n- Milk (5 dl)"
		if rec.Body.String() != want {
			t.Errorf("Expected export %q, got %q", want, rec.Body.String())
		}

		rec = doJSON(t, r, http.MethodPut, "/api/shopping/items/flour-g/checked", token, gin.H{"checked": true, "source": "planned"})
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var list struct {
			Remaining int `json:"remaining"`
		}
		rec = doJSON(t, r, http.MethodGet, "/api/shopping", token, nil)
		if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
			t.Fatal(err)
		}
		if list.Remaining != 2 {
			t.Errorf("Expected 2 remaining items, got %d", list.Remaining)
		}
	})

	t.Run("ImportWithoutAI", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodPost, "/api/recipes/import", token, gin.H{"text": "Soup"})
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d", rec.Code)
		}
	})

	t.Run("Debug", func(t *testing.T) {
		rec := doJSON(t, r, http.MethodGet, "/api/debug", token, nil)
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "goroutines") {
			t.Errorf("Expected health report, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestShoppingList(t *testing.T) {
	ctx := context.Background()
	a := setupApp(t, nil)
	seedPancakes(t, a)

	if _, err := a.Planner.PlanRecipe(ctx, "pancakes", "2026-10-14", 2, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Planner.PlanRecipe(ctx, "pancakes", "2026-10-21", 2, ""); err != nil {
		t.Fatal(err)
	}

	t.Run("Current", func(t *testing.T) {
		items, err := a.ShoppingList(ctx, "", "")
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 2 || *items[0].Amount != 500 {
			t.Errorf("Expected both weeks aggregated, got %+v", items)
		}
	})

	t.Run("Range", func(t *testing.T) {
		items, err := a.ShoppingList(ctx, "2026-10-12", "2026-10-18")
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 2 || *items[0].Amount != 250 {
			t.Errorf("Expected one week aggregated, got %+v", items)
		}
	})

	t.Run("HalfRange", func(t *testing.T) {
		if _, err := a.ShoppingList(ctx, "2026-10-12", ""); err == nil {
			t.Error("Expected an error for a half-open range")
		}
	})
}

func TestImportRecipes(t *testing.T) {
	ctx := context.Background()

	t.Run("WithoutAI", func(t *testing.T) {
		a := setupApp(t, nil)
		if _, err := a.ImportRecipes(ctx, []string{"Soup"}); err == nil {
			t.Fatal("Expected an error without an AI provider")
		}
	})

	t.Run("SkipsFailures", func(t *testing.T) {
		gen := &mockTextGenerator{response: `{"name": "Soup", "servings": 2, "ingredients": [{"name": "Leek", "amount": 1, "unit": "stk"}]}`}
		a := setupApp(t, gen)

		n, err := a.ImportRecipes(ctx, []string{"Leek soup for two", "   "})
		if err != nil {
			t.Fatalf("ImportRecipes failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1 import, got %d", n)
		}
		count, _ := a.Recipes.Count(ctx)
		if count != 1 {
			t.Errorf("Expected 1 stored recipe, got %d", count)
		}

		usage, _ := a.Metrics.GetDailyUsage(ctx, 1)
		if len(usage) != 1 || usage[0].TotalExecution != 1 {
			t.Errorf("Expected one recorded execution, got %+v", usage)
		}
	})
}
