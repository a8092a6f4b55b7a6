package app

import (
	"context"
	"net/http"
	"time"

	"family-meal-planner/internal/auth"
	"family-meal-planner/internal/cupboard"
	"family-meal-planner/internal/metrics"
	"family-meal-planner/internal/planner"
	"family-meal-planner/internal/recipe"
	"family-meal-planner/internal/shopping"
	synchub "family-meal-planner/internal/sync"

	"github.com/gin-gonic/gin"
)

// Router builds the HTTP API. Everything except login and health checks
// requires a household token.
func (a *App) Router(staples []string) *gin.Engine {
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	tokens := auth.TokenService{
		Secret:   []byte(a.cfg.JWTSecret),
		Issuer:   a.cfg.JWTIssuer,
		Duration: a.cfg.JWTTTL,
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := a.db.SQL.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "db_error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "db": "ok", "ws_clients": a.Hub.Stats().WSClients})
	})

	auth.NewHandler(a.cfg.HouseholdPasswordHash, tokens).RegisterRoutes(router.Group("/api/auth"))

	protected := router.Group("/api")
	protected.Use(auth.AuthMiddleware(tokens))

	protected.GET("/debug", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"health":     metrics.GetSysHealth(a.DataDir()),
			"ws_clients": a.Hub.Stats().WSClients,
		})
	})

	shopping.NewHandler(a.Shopping, staples).RegisterRoutes(protected)
	planner.NewHandler(a.Planner).RegisterRoutes(protected)
	cupboard.NewHandler(a.Cupboard).RegisterRoutes(protected)

	var importer recipe.Importer
	if a.Clipper != nil {
		importer = a.Clipper
	}
	recipe.NewHandler(a.Recipes, importer).RegisterRoutes(protected)

	router.GET("/ws", auth.AuthMiddleware(tokens), synchub.WSHandler(a.Hub, a.Shopping.Live()))

	return router
}
