package shopping

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"family-meal-planner/internal/database"
	"family-meal-planner/internal/planner"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := database.ApplySchema(db); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}
	return db
}

type fakePlanned struct {
	meals []planner.PlannedMeal
}

func (f *fakePlanned) ListUnshopped(ctx context.Context) ([]planner.PlannedMeal, error) {
	return f.meals, nil
}

// failingManual wraps a real store and fails every write.
type failingManual struct {
	ManualStore
	listCalls int
}

func (f *failingManual) ListManual(ctx context.Context) ([]ManualItem, error) {
	f.listCalls++
	return f.ManualStore.ListManual(ctx)
}

func (f *failingManual) AddManual(ctx context.Context, item ManualItem) error {
	return errors.New("network down")
}

func (f *failingManual) SetManualChecked(ctx context.Context, id string, checked bool) (bool, error) {
	return false, errors.New("network down")
}

type failingChecked struct {
	CheckedStore
	allCalls int
}

func (f *failingChecked) All(ctx context.Context) (map[string]bool, error) {
	f.allCalls++
	return f.CheckedStore.All(ctx)
}

func (f *failingChecked) Set(ctx context.Context, key string, checked bool) error {
	return errors.New("network down")
}

func newTestService(t *testing.T) (*Service, *Repository) {
	t.Helper()
	repo := NewRepository(setupTestDB(t))
	planned := &fakePlanned{meals: []planner.PlannedMeal{
		meal(ing("Egg", 6, "stk"), ing("Flour", 500, "g")),
		meal(ing("flour", 1, "kg")),
	}}
	svc := NewService(planned, repo, repo, NewLiveList())
	if err := svc.Sync(context.Background()); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	return svc, repo
}

func TestService(t *testing.T) {
	ctx := context.Background()

	t.Run("AddAndDelete", func(t *testing.T) {
		svc, _ := newTestService(t)

		if _, err := svc.AddManualItem(ctx, "   "); !errors.Is(err, ErrEmptyName) {
			t.Errorf("Expected ErrEmptyName, got %v", err)
		}

		bread, err := svc.AddManualItem(ctx, " Bread ")
		if err != nil {
			t.Fatalf("AddManualItem failed: %v", err)
		}
		if _, err := svc.AddManualItem(ctx, "Bread"); err != nil {
			t.Fatalf("Expected duplicate names to be allowed, got %v", err)
		}

		items := svc.Items()
		if len(items) != 4 {
			t.Fatalf("Expected 2 manual + 2 planned items, got %+v", items)
		}
		if items[0].Name != "Bread" || items[0].Source != SourceManual {
			t.Errorf("Expected manual items first, got %+v", items[0])
		}

		if err := svc.DeleteManualItem(ctx, bread.ID); err != nil {
			t.Fatalf("DeleteManualItem failed: %v", err)
		}
		if err := svc.DeleteManualItem(ctx, bread.ID); !errors.Is(err, ErrItemNotFound) {
			t.Errorf("Expected ErrItemNotFound, got %v", err)
		}
		if len(svc.Items()) != 3 {
			t.Errorf("Expected 3 items after delete, got %d", len(svc.Items()))
		}
	})

	t.Run("ToggleDispatchesBySource", func(t *testing.T) {
		svc, repo := newTestService(t)
		bread, _ := svc.AddManualItem(ctx, "Bread")

		if err := svc.ToggleItem(ctx, bread.ID, true, SourceManual); err != nil {
			t.Fatalf("Toggle manual failed: %v", err)
		}
		if err := svc.ToggleItem(ctx, "flour-g", true, SourcePlanned); err != nil {
			t.Fatalf("Toggle planned failed: %v", err)
		}
		if err := svc.ToggleItem(ctx, "x", true, Source("other")); !errors.Is(err, ErrUnknownSource) {
			t.Errorf("Expected ErrUnknownSource, got %v", err)
		}
		if err := svc.ToggleItem(ctx, "missing", true, SourceManual); !errors.Is(err, ErrItemNotFound) {
			t.Errorf("Expected ErrItemNotFound, got %v", err)
		}

		checked, _ := repo.All(ctx)
		if !checked["flour-g"] || len(checked) != 1 {
			t.Errorf("Expected only flour-g in checked store, got %v", checked)
		}

		items := svc.Items()
		if items[0].ID != "egg-stk" || items[0].Checked {
			t.Errorf("Expected unchecked egg first, got %+v", items)
		}
		if got := svc.Export(); got != "- Egg (6 stk)" {
			t.Errorf("Expected export to list only the egg, got %q", got)
		}

		// Unchecking is an upsert on the same key.
		if err := svc.ToggleItem(ctx, "flour-g", false, SourcePlanned); err != nil {
			t.Fatal(err)
		}
		checked, _ = repo.All(ctx)
		if checked["flour-g"] || len(checked) != 1 {
			t.Errorf("Expected flour-g unchecked, got %v", checked)
		}
	})

	t.Run("ClearChecked", func(t *testing.T) {
		svc, _ := newTestService(t)
		a, _ := svc.AddManualItem(ctx, "Coffee")
		svc.AddManualItem(ctx, "Tea")
		svc.ToggleItem(ctx, a.ID, true, SourceManual)

		n, err := svc.ClearChecked(ctx)
		if err != nil || n != 1 {
			t.Fatalf("Expected 1 item cleared, got %d, %v", n, err)
		}
		for _, it := range svc.Items() {
			if it.Name == "Coffee" {
				t.Error("Expected Coffee to be removed")
			}
		}
	})

	t.Run("WriteFailureResyncs", func(t *testing.T) {
		repo := NewRepository(setupTestDB(t))
		manual := &failingManual{ManualStore: repo}
		checked := &failingChecked{CheckedStore: repo}
		svc := NewService(&fakePlanned{}, manual, checked, NewLiveList())

		if _, err := svc.AddManualItem(ctx, "Milk"); err == nil {
			t.Fatal("Expected add to fail")
		}
		if manual.listCalls != 1 {
			t.Errorf("Expected a resync after failed add, got %d list calls", manual.listCalls)
		}
		if len(svc.Items()) != 0 {
			t.Errorf("Expected no phantom item after failed add, got %+v", svc.Items())
		}

		if err := svc.ToggleItem(ctx, "id", true, SourceManual); err == nil {
			t.Fatal("Expected manual toggle to fail")
		}
		if err := svc.ToggleItem(ctx, "milk-dl", true, SourcePlanned); err == nil {
			t.Fatal("Expected planned toggle to fail")
		}
		if checked.allCalls != 1 {
			t.Errorf("Expected a resync after failed toggle, got %d", checked.allCalls)
		}
	})
}

func TestRepository_CheckedState(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	all, err := repo.All(ctx)
	if err != nil || len(all) != 0 {
		t.Fatalf("Expected empty checked state, got %v, %v", all, err)
	}

	repo.Set(ctx, "milk-dl", true)
	repo.Set(ctx, "egg-stk", true)
	repo.Set(ctx, "milk-dl", false)

	all, _ = repo.All(ctx)
	if len(all) != 2 || all["milk-dl"] || !all["egg-stk"] {
		t.Errorf("Unexpected checked state %v", all)
	}
}

func TestService_CurrentSeesOtherWriters(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))
	planned := &fakePlanned{}
	api := NewService(planned, repo, repo, NewLiveList())
	bot := NewService(planned, repo, repo, NewLiveList())
	if err := bot.Sync(ctx); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	notified := 0
	bot.Live().Subscribe(func([]ShopItem) { notified++ })

	if _, err := api.AddManualItem(ctx, "Milk"); err != nil {
		t.Fatalf("AddManualItem failed: %v", err)
	}
	if len(bot.Items()) != 0 {
		t.Fatalf("Expected the cached list to be untouched before a sync")
	}

	items, err := bot.Current(ctx)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Milk" {
		t.Errorf("Expected Milk written by the other service, got %+v", items)
	}
	if notified != 1 {
		t.Errorf("Expected 1 notification, got %d", notified)
	}

	if _, err := bot.Current(ctx); err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if notified != 1 {
		t.Errorf("Expected no notification for an unchanged list, got %d", notified)
	}
}

func TestService_SyncEvery(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	planned := &fakePlanned{}
	api := NewService(planned, repo, repo, NewLiveList())
	bot := NewService(planned, repo, repo, NewLiveList())

	updates := make(chan []ShopItem, 4)
	bot.Live().Subscribe(func(items []ShopItem) { updates <- items })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bot.SyncEvery(ctx, 10*time.Millisecond)

	if _, err := api.AddManualItem(context.Background(), "Bread"); err != nil {
		t.Fatalf("AddManualItem failed: %v", err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case items := <-updates:
			if len(items) == 1 && items[0].Name == "Bread" {
				return
			}
		case <-timeout:
			t.Fatal("Timed out waiting for the periodic sync")
		}
	}
}
