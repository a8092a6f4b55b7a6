package shopping

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Service *Service
	Staples []string
}

func NewHandler(svc *Service, staples []string) *Handler {
	return &Handler{Service: svc, Staples: staples}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/shopping", h.list)
	rg.GET("/shopping/export", h.export)
	rg.GET("/shopping/staples", h.staples)
	rg.POST("/shopping/items", h.add)
	rg.DELETE("/shopping/items/:id", h.remove)
	rg.PUT("/shopping/items/:id/checked", h.toggle)
	rg.POST("/shopping/clear-checked", h.clearChecked)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Service.Current(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	remaining := 0
	for _, it := range items {
		if !it.Checked {
			remaining++
		}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "remaining": remaining})
}

func (h *Handler) export(c *gin.Context) {
	items, err := h.Service.Current(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.String(http.StatusOK, Format(items))
}

func (h *Handler) staples(c *gin.Context) {
	staples := h.Staples
	if staples == nil {
		staples = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"items": staples})
}

type addReq struct {
	Name string `json:"name"`
}

func (h *Handler) add(c *gin.Context) {
	var req addReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	item, err := h.Service.AddManualItem(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Service.DeleteManualItem(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type toggleReq struct {
	Checked bool   `json:"checked"`
	Source  string `json:"source"`
}

func (h *Handler) toggle(c *gin.Context) {
	var req toggleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	source, err := ParseSource(req.Source)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.Service.ToggleItem(c.Request.Context(), c.Param("id"), req.Checked, source); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "checked": req.Checked})
}

func (h *Handler) clearChecked(c *gin.Context) {
	n, err := h.Service.ClearChecked(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmptyName), errors.Is(err, ErrUnknownSource):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("shopping write failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed, please try again"})
	}
}
