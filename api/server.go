/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/staff/*      Staff, reports, balance, payout requests
  /api/payouts/*    Approver operations
  /api/rules/*      Rule version log
  /api/invoices     Sync input
  /api/sync/*       Fact synchronization

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.
  Put this behind a gateway that sets X-Tenant-ID from the session.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Tenant-ID"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Staff routes
		r.Route("/staff", func(r chi.Router) {
			r.Get("/", h.ListStaff)
			r.Post("/", h.CreateStaff)
			r.Get("/{id}", h.GetStaff)
			r.Get("/{id}/incentives", h.GetIncentives)
			r.Get("/{id}/incentives/summary", h.GetMonthSummary)
			r.Get("/{id}/balance", h.GetBalance)
			r.Get("/{id}/payouts", h.ListPayouts)
			r.Post("/{id}/payouts", h.RequestPayout)
		})

		// Payout approval routes
		r.Route("/payouts", func(r chi.Router) {
			r.Get("/pending", h.ListPendingPayouts)
			r.Post("/{id}/approve", h.ApprovePayout)
			r.Post("/{id}/reject", h.RejectPayout)
		})

		// Rule routes
		r.Route("/rules", func(r chi.Router) {
			r.Get("/", h.ListRules)
			r.Post("/", h.CreateRule)
		})

		// Sync routes
		r.Post("/invoices", h.SaveInvoice)
		r.Post("/sync/daily", h.SyncDay)
	})

	return r
}
