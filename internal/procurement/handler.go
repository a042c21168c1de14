package procurement

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/sa-stockmaster/sa-stockmaster/internal/ledger"
	"github.com/sa-stockmaster/sa-stockmaster/internal/platform/httpx"
)

// Handler wires HTTP endpoints for procurement.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a procurement handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers purchase order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/purchaseorders", h.list)
	r.Post("/purchaseorders", h.create)
	r.Get("/purchaseorders/{id}", h.show)
	r.Post("/purchaseorders/{id}/place", h.place)
	r.Post("/purchaseorders/{id}/receive", h.receive)
	r.Post("/purchaseorders/{id}/cancel", h.cancel)
}

type createLineReq struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  int64           `json:"quantity" validate:"required,gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type createPOReq struct {
	SupplierID   int64           `json:"supplier_id" validate:"required,gt=0"`
	OrderDate    *time.Time      `json:"order_date"`
	ExpectedDate *time.Time      `json:"expected_date"`
	Notes        string          `json:"notes" validate:"omitempty,max=500"`
	Lines        []createLineReq `json:"lines" validate:"required,min=1,dive"`
}

type receiptLineReq struct {
	LineID   int64 `json:"line_id" validate:"required,gt=0"`
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

type receiveReq struct {
	Lines []receiptLineReq `json:"lines" validate:"required,min=1,dive"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPOReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := CreateInput{
		SupplierID:   req.SupplierID,
		ExpectedDate: req.ExpectedDate,
		Notes:        req.Notes,
	}
	if req.OrderDate != nil {
		input.OrderDate = *req.OrderDate
	}
	for _, l := range req.Lines {
		input.Lines = append(input.Lines, LineInput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
		})
	}
	po, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, po)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	supplierID, _ := strconv.ParseInt(q.Get("supplier_id"), 10, 64)
	limit, _ := strconv.Atoi(q.Get("limit"))
	pos, err := h.service.List(r.Context(), Status(q.Get("status")), supplierID, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pos)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid purchase order id")
		return
	}
	po, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) place(w http.ResponseWriter, r *http.Request) {
	h.doTransition(w, r, h.service.Place)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.doTransition(w, r, h.service.Cancel)
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid purchase order id")
		return
	}
	var req receiveReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	receipts := make([]ReceiptLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		receipts = append(receipts, ReceiptLine{LineID: l.LineID, Quantity: l.Quantity})
	}
	po, err := h.service.Receive(r.Context(), id, receipts, r.Header.Get("X-Actor"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) doTransition(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64) (PurchaseOrder, error)) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid purchase order id")
		return
	}
	po, err := fn(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPONotFound), errors.Is(err, ErrLineNotFound), errors.Is(err, ledger.ErrProductNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrOverReceipt):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrEmptyOrder), errors.Is(err, ErrInvalidLine), errors.Is(err, ErrNothingReceived):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	default:
		h.logger.Error("procurement request failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
