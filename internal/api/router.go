package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/blockelevate/integrations/internal/auth"
)

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, configs ConfigRepository, statuses StatusReader, scheduler SyncRequester, webhookRouter WebhookProcessor, authConfig auth.Config, logger *slog.Logger) {
	integrationHandler := NewIntegrationHandlers(configs, statuses, scheduler, logger)
	webhookHandler := NewWebhookHandlers(webhookRouter, logger)
	authHandler := NewAuthHandler(authConfig, logger)

	authMiddleware := auth.Middleware(authConfig)

	// Authentication routes (public)
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/validate", func(w http.ResponseWriter, r *http.Request) {
		authMiddleware(http.HandlerFunc(authHandler.ValidateToken)).ServeHTTP(w, r)
	})

	// Integration configuration routes (admin only)
	mux.HandleFunc("/api/integrations/config", func(w http.ResponseWriter, r *http.Request) {
		authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				integrationHandler.ListConfigs(w, r)
			} else {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})).ServeHTTP(w, r)
	})

	mux.HandleFunc("/api/integrations/config/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/integrations/config/" {
			http.NotFound(w, r)
			return
		}
		authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPut {
				integrationHandler.UpdateConfig(w, r)
			} else {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})).ServeHTTP(w, r)
	})

	// Manual sync trigger (admin only)
	mux.HandleFunc("/api/integrations/sync/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/integrations/sync/" {
			http.NotFound(w, r)
			return
		}
		authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				integrationHandler.TriggerSync(w, r)
			} else {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})).ServeHTTP(w, r)
	})

	// Sync status route (admin only)
	mux.HandleFunc("/api/integrations/status", func(w http.ResponseWriter, r *http.Request) {
		authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				integrationHandler.GetStatus(w, r)
			} else {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			}
		})).ServeHTTP(w, r)
	})

	// Webhook ingestion routes (public, providers authenticate out of band)
	mux.HandleFunc("/api/integrations/webhooks/", func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimPrefix(r.URL.Path, "/api/integrations/webhooks/") == "" {
			http.NotFound(w, r)
			return
		}
		webhookHandler.HandleWebhook(w, r)
	})
}
