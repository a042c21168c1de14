package reports

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sa-stockmaster/sa-stockmaster/internal/platform/httpx"
)

// Handler exposes the report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard/stats", h.dashboard)
	r.Get("/reports/low-stock", h.lowStock)
	r.Get("/reports/out-of-stock", h.outOfStock)
	r.Get("/reports/overstocked", h.overstocked)
	r.Get("/reports/valuation", h.valuation)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.LowStock(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) outOfStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.OutOfStock(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) overstocked(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Overstocked(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) valuation(w http.ResponseWriter, r *http.Request) {
	basis := ValuationBasis(r.URL.Query().Get("basis"))
	report, err := h.service.Valuation(r.Context(), basis)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrInvalidBasis) {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	h.logger.Error("report request failed", "path", r.URL.Path, "error", err)
	httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "report generation failed")
}
