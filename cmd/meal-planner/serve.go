package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"family-meal-planner/internal/app"
	"family-meal-planner/internal/config"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with live list sync",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App, cfg *config.Config) error {
			if err := cfg.RequireServer(); err != nil {
				return err
			}
			staples, err := config.LoadStaples(cfg.StaplesPath)
			if err != nil {
				return err
			}
			if a.Clipper == nil {
				log.Println("Warning: no AI provider configured, recipe import is disabled")
			}

			syncCtx, stopSync := context.WithCancel(ctx)
			defer stopSync()
			go a.Shopping.SyncEvery(syncCtx, cfg.ShoppingSyncInterval)

			httpSrv := &http.Server{
				Addr:    ":" + cfg.Port,
				Handler: a.Router(staples),
			}

			errCh := make(chan error, 1)
			go func() {
				log.Printf("HTTP API server listening on :%s", cfg.Port)
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case sig := <-sigCh:
				log.Printf("shutdown signal received: %s", sig)
			case err := <-errCh:
				return err
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				log.Printf("http shutdown error: %v", err)
			}
			log.Println("server stopped")
			return nil
		})
	},
}
