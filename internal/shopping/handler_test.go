package shopping

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t)
	r := gin.New()
	NewHandler(svc, []string{"Milk", "Bread"}).RegisterRoutes(r.Group("/api"))
	return r, svc
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, &buf))
	return w
}

func TestHandler(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(r, http.MethodPost, "/api/shopping/items", map[string]string{"name": "Bread"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var bread ManualItem
	json.Unmarshal(w.Body.Bytes(), &bread)

	w = doJSON(r, http.MethodPost, "/api/shopping/items", map[string]string{"name": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty name, got %d", w.Code)
	}

	w = doJSON(r, http.MethodPut, "/api/shopping/items/egg-stk/checked", map[string]any{"checked": true, "source": "planned"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 on toggle, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPut, "/api/shopping/items/egg-stk/checked", map[string]any{"checked": true, "source": "fridge"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown source, got %d", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/api/shopping", nil)
	var list struct {
		Items     []ShopItem `json:"items"`
		Remaining int        `json:"remaining"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if len(list.Items) != 3 || list.Remaining != 2 {
		t.Errorf("Expected 3 items with 2 remaining, got %+v", list)
	}

	w = doJSON(r, http.MethodGet, "/api/shopping/export", nil)
	if w.Body.String() != "- Bread\n- Flour (1.5 kg)" {
		t.Errorf("Unexpected export %q", w.Body.String())
	}

	w = doJSON(r, http.MethodGet, "/api/shopping/staples", nil)
	if !bytes.Contains(w.Body.Bytes(), []byte(`"Milk"`)) {
		t.Errorf("Expected staples in response, got %s", w.Body.String())
	}

	w = doJSON(r, http.MethodDelete, "/api/shopping/items/"+bread.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 on delete, got %d", w.Code)
	}
	w = doJSON(r, http.MethodDelete, "/api/shopping/items/"+bread.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", w.Code)
	}
}

func TestHandler_ListReadsStores(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	repo := NewRepository(db)
	svc := NewService(&fakePlanned{}, repo, repo, NewLiveList())
	r := gin.New()
	NewHandler(svc, nil).RegisterRoutes(r.Group("/api"))

	other := NewService(&fakePlanned{}, repo, repo, NewLiveList())
	if _, err := other.AddManualItem(context.Background(), "Milk"); err != nil {
		t.Fatalf("AddManualItem failed: %v", err)
	}

	w := doJSON(r, http.MethodGet, "/api/shopping/export", nil)
	if w.Body.String() != "- Milk" {
		t.Errorf("Expected item written elsewhere in export, got %q", w.Body.String())
	}

	db.Close()
	w = doJSON(r, http.MethodGet, "/api/shopping", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 when the store is unreachable, got %d", w.Code)
	}
}
