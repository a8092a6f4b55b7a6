package recipe

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Importer creates and stores recipes from outside sources.
type Importer interface {
	ImportURL(ctx context.Context, url string) (*Recipe, error)
	ImportText(ctx context.Context, text string) (*Recipe, error)
}

type Handler struct {
	Repo     *Repository
	Importer Importer
}

func NewHandler(repo *Repository, importer Importer) *Handler {
	return &Handler{Repo: repo, Importer: importer}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/recipes", h.list)
	rg.GET("/recipes/:id", h.getOne)
	rg.DELETE("/recipes/:id", h.remove)
	rg.POST("/recipes/import", h.importRecipe)
}

func (h *Handler) list(c *gin.Context) {
	recipes, err := h.Repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": recipes, "total": len(recipes)})
}

func (h *Handler) getOne(c *gin.Context) {
	rec, err := h.Repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) remove(c *gin.Context) {
	ok, err := h.Repo.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type importReq struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

func (h *Handler) importRecipe(c *gin.Context) {
	if h.Importer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recipe import is not configured"})
		return
	}

	var req importReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	url := strings.TrimSpace(req.URL)
	text := strings.TrimSpace(req.Text)
	if url == "" && text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url or text required"})
		return
	}

	var (
		rec *Recipe
		err error
	)
	if url != "" {
		rec, err = h.Importer.ImportURL(c.Request.Context(), url)
	} else {
		rec, err = h.Importer.ImportText(c.Request.Context(), text)
	}
	if err != nil {
		log.Printf("recipe import failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "import failed"})
		return
	}

	c.JSON(http.StatusCreated, rec)
}
