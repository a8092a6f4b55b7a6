package planner

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Planner *Planner
}

func NewHandler(p *Planner) *Handler {
	return &Handler{Planner: p}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/planner", h.list)
	rg.POST("/planner", h.plan)
	rg.POST("/planner/leftovers", h.leftovers)
	rg.PUT("/planner/:id/servings", h.servings)
	rg.POST("/planner/:id/cooked", h.cooked)
	rg.DELETE("/planner/:id", h.remove)
	rg.POST("/planner/shopped", h.shopped)
}

func (h *Handler) list(c *gin.Context) {
	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))
	if from == "" || to == "" {
		from, to = WeekBounds(time.Now())
	}

	meals, err := h.Planner.Range(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from":       from,
		"to":         to,
		"items":      meals,
		"total_cost": TotalCost(meals),
	})
}

type planReq struct {
	RecipeID  string `json:"recipe_id"`
	Date      string `json:"date"`
	Servings  int    `json:"servings"`
	PlannedBy string `json:"planned_by"`
}

func (h *Handler) plan(c *gin.Context) {
	var req planReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.RecipeID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipe_id required"})
		return
	}

	meal, err := h.Planner.PlanRecipe(c.Request.Context(), req.RecipeID, req.Date, req.Servings, req.PlannedBy)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meal)
}

type leftoversReq struct {
	Date string `json:"date"`
}

func (h *Handler) leftovers(c *gin.Context) {
	var req leftoversReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	meal, err := h.Planner.PlanLeftovers(c.Request.Context(), req.Date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meal)
}

type servingsReq struct {
	Servings int `json:"servings"`
}

func (h *Handler) servings(c *gin.Context) {
	var req servingsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	meal, err := h.Planner.ChangeServings(c.Request.Context(), c.Param("id"), req.Servings)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (h *Handler) cooked(c *gin.Context) {
	meal, err := h.Planner.MarkCooked(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Planner.Remove(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type shoppedReq struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (h *Handler) shopped(c *gin.Context) {
	var req shoppedReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	n, err := h.Planner.MarkShopped(c.Request.Context(), req.From, req.To)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidServings), errors.Is(err, ErrInvalidDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrRecipeNotFound), errors.Is(err, ErrMealNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "planner request failed"})
	}
}
