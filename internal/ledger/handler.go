package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sa-stockmaster/sa-stockmaster/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the stock ledger.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/products/{id}/stock", h.applyMovement)
	r.Post("/products/{id}/stock/count", h.stockCount)
	r.Get("/products/{id}/stock", h.currentQuantity)
	r.Get("/products/{id}/stockmovements", h.movementsForProduct)
	r.Post("/transfers", h.transfer)
	r.Get("/stockmovements", h.recentMovements)
	r.Get("/stockmovements/summary", h.summary)
	r.Get("/stockmovements/{id}", h.getMovement)
}

func (h *Handler) applyMovement(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return
	}
	var req ApplyMovementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	movement, err := h.service.ApplyMovement(r.Context(), MovementInput{
		ProductID:     productID,
		Kind:          Kind(req.MovementType),
		Quantity:      req.Quantity,
		Reference:     req.Reference,
		WarehouseCode: req.Warehouse,
		Notes:         req.Notes,
		UnitCost:      req.UnitCost,
	})
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}

func (h *Handler) stockCount(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return
	}
	var req StockCountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	movement, err := h.service.SetAbsoluteQuantity(r.Context(), productID, req.Quantity, req.Reference, actorFrom(r))
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	if movement == nil {
		// Count matched the current quantity, nothing was booked.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}

func (h *Handler) currentQuantity(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return
	}
	qty, err := h.service.CurrentQuantity(r.Context(), productID)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"product_id": productID, "quantity": qty})
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	outMove, inMove, err := h.service.Transfer(r.Context(), TransferInput{
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		FromWarehouse: req.FromWarehouse,
		ToWarehouse:   req.ToWarehouse,
		Notes:         req.Notes,
		ActorID:       actorFrom(r),
	})
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, TransferResponse{Out: outMove, In: inMove})
}

func (h *Handler) movementsForProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	movements, err := h.service.MovementsFor(r.Context(), productID, limit)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movements)
}

func (h *Handler) recentMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if ref := q.Get("reference"); ref != "" {
		movements, err := h.service.MovementsByReference(r.Context(), ref)
		if err != nil {
			h.respondLedgerError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, movements)
		return
	}
	filter := MovementFilter{}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	if pid := q.Get("product_id"); pid != "" {
		id, err := strconv.ParseInt(pid, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product_id")
			return
		}
		filter.ProductID = id
	}
	var parseErr error
	filter.From, parseErr = parseDateParam(q.Get("from"), false)
	if parseErr != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid from date, want YYYY-MM-DD")
		return
	}
	filter.To, parseErr = parseDateParam(q.Get("to"), true)
	if parseErr != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid to date, want YYYY-MM-DD")
		return
	}
	movements, err := h.service.RecentMovements(r.Context(), filter)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movements)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseDateParam(q.Get("from"), false)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid from date, want YYYY-MM-DD")
		return
	}
	to, err := parseDateParam(q.Get("to"), true)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid to date, want YYYY-MM-DD")
		return
	}
	rows, err := h.service.Summary(r.Context(), from, to)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) getMovement(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid movement id")
		return
	}
	movement, err := h.service.GetMovement(r.Context(), id)
	if err != nil {
		h.respondLedgerError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movement)
}

func (h *Handler) respondLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrMovementNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInsufficientStock):
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidArgument):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	default:
		h.logger.Error("ledger request failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// actorFrom extracts the acting user from the X-Actor header. Authentication
// is handled upstream; the header is informational for the audit trail.
func actorFrom(r *http.Request) string {
	return r.Header.Get("X-Actor")
}

func parseDateParam(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
