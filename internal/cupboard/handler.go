package cupboard

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cupboard", h.list)
	rg.POST("/cupboard", h.save)
	rg.PUT("/cupboard/:id", h.save)
	rg.DELETE("/cupboard/:id", h.remove)
}

type itemReq struct {
	IngredientName string   `json:"ingredient_name"`
	Amount         *float64 `json:"amount"`
	Unit           string   `json:"unit"`
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) save(c *gin.Context) {
	var req itemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Amount != nil && *req.Amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be >= 0"})
		return
	}

	id := c.Param("id")
	if id != "" {
		existing, err := h.Repo.Get(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
			return
		}
		if existing == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
	}

	saved, err := h.Repo.Save(c.Request.Context(), Item{
		ID:             id,
		IngredientName: req.IngredientName,
		Amount:         req.Amount,
		Unit:           req.Unit,
	})
	if errors.Is(err, ErrEmptyName) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	c.JSON(status, saved)
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
