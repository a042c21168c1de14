package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sa-stockmaster/sa-stockmaster/internal/ledger"
	"github.com/sa-stockmaster/sa-stockmaster/internal/masterdata/categories"
	"github.com/sa-stockmaster/sa-stockmaster/internal/masterdata/products"
	"github.com/sa-stockmaster/sa-stockmaster/internal/masterdata/suppliers"
	"github.com/sa-stockmaster/sa-stockmaster/internal/masterdata/warehouses"
	"github.com/sa-stockmaster/sa-stockmaster/internal/procurement"
	"github.com/sa-stockmaster/sa-stockmaster/internal/reports"
	"github.com/sa-stockmaster/sa-stockmaster/internal/sales/customers"
	"github.com/sa-stockmaster/sa-stockmaster/internal/sales/orders"
	"github.com/sa-stockmaster/sa-stockmaster/internal/settings"
	"github.com/sa-stockmaster/sa-stockmaster/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	ProductHandler    *products.Handler
	CategoryHandler   *categories.Handler
	SupplierHandler   *suppliers.Handler
	WarehouseHandler  *warehouses.Handler
	CustomerHandler   *customers.Handler
	SalesOrderHandler *orders.Handler
	PurchaseHandler   *procurement.Handler
	LedgerHandler     *ledger.Handler
	ReportHandler     *reports.Handler
	SettingsHandler   *settings.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router for the API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		params.ProductHandler.MountRoutes(r)
		params.CategoryHandler.MountRoutes(r)
		params.SupplierHandler.MountRoutes(r)
		params.WarehouseHandler.MountRoutes(r)
		params.CustomerHandler.MountRoutes(r)
		params.SalesOrderHandler.MountRoutes(r)
		params.PurchaseHandler.MountRoutes(r)
		params.LedgerHandler.MountRoutes(r)
		params.ReportHandler.MountRoutes(r)
		params.SettingsHandler.MountRoutes(r)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
