package pricing

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/peekabooshades/pricing-api/internal/common"
	"github.com/peekabooshades/pricing-api/internal/obs"
)

// Handler exposes the pricing operations over HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type quoteRequest struct {
	ProductSlug      string     `json:"productSlug" validate:"required"`
	ProductType      string     `json:"productType"`
	Width            float64    `json:"width" validate:"required"`
	Height           float64    `json:"height" validate:"required"`
	Quantity         int        `json:"quantity"`
	FabricCode       string     `json:"fabricCode" validate:"required"`
	ControlType      string     `json:"controlType"`
	Options          Selections `json:"options"`
	DestinationState string     `json:"destinationState"`
	IncludeShipping  bool       `json:"includeShipping"`
	IncludeTax       bool       `json:"includeTax"`
}

type orderTotalRequest struct {
	Items       []LineItem  `json:"items" validate:"required,min=1,dive"`
	Destination Destination `json:"destination"`
	PromoCode   string      `json:"promoCode"`
}

type verifyRequest struct {
	ClientUnitPrice float64      `json:"clientUnitPrice" validate:"required"`
	Item            quoteRequest `json:"item" validate:"required"`
}

type simulateMarginRequest struct {
	ProductType   string   `json:"productType" validate:"required"`
	FabricCodes   []string `json:"fabricCodes" validate:"required,min=1"`
	AdjustPercent float64  `json:"adjustPercent"`
}

// Quote computes a single-item price on the lenient path.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing service not configured", nil)
		return
	}
	var req quoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	start := time.Now()
	quote, err := h.Svc.ComputeItemPrice(r.Context(), req.toItemRequest())
	if err != nil {
		if obs.QuotesTotal != nil {
			obs.QuotesTotal.WithLabelValues("none", "error").Inc()
		}
		writePricingError(w, err)
		return
	}
	if obs.QuotesTotal != nil {
		obs.QuotesTotal.WithLabelValues(string(quote.Cost.Source), "ok").Inc()
	}
	if obs.QuoteDuration != nil {
		obs.QuoteDuration.Observe(obs.DurationMillis(time.Since(start)))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

// OrderTotal recomputes an order server-side and returns the rollup.
func (h *Handler) OrderTotal(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing service not configured", nil)
		return
	}
	var req orderTotalRequest
	if !h.decode(w, r, &req) {
		return
	}
	summary, err := h.Svc.ComputeOrderTotal(r.Context(), req.Items, req.Destination, req.PromoCode)
	if err != nil {
		if obs.OrderTotalsTotal != nil {
			obs.OrderTotalsTotal.WithLabelValues("rejected").Inc()
		}
		writePricingError(w, err)
		return
	}
	if obs.OrderTotalsTotal != nil {
		obs.OrderTotalsTotal.WithLabelValues("ok").Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": summary})
}

// Verify recomputes a unit price and checks the client assertion against it.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing service not configured", nil)
		return
	}
	var req verifyRequest
	if !h.decode(w, r, &req) {
		return
	}
	verification, err := h.Svc.VerifyPrice(r.Context(), req.ClientUnitPrice, req.Item.toItemRequest())
	if err != nil {
		writePricingError(w, err)
		return
	}
	if obs.VerifyTotal != nil {
		result := "valid"
		if !verification.Valid {
			result = "invalid"
		}
		obs.VerifyTotal.WithLabelValues(result).Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": verification})
}

// SimulateMargin is the admin what-if endpoint.
func (h *Handler) SimulateMargin(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing service not configured", nil)
		return
	}
	var req simulateMarginRequest
	if !h.decode(w, r, &req) {
		return
	}
	deltas, err := h.Svc.SimulateMarginChange(r.Context(), req.ProductType, req.FabricCodes, req.AdjustPercent)
	if err != nil {
		writePricingError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": deltas})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(dst); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return false
		}
	}
	return true
}

func (r quoteRequest) toItemRequest() ItemRequest {
	return ItemRequest{
		ProductSlug:      r.ProductSlug,
		ProductType:      r.ProductType,
		Width:            r.Width,
		Height:           r.Height,
		Quantity:         r.Quantity,
		FabricCode:       r.FabricCode,
		ControlType:      r.ControlType,
		Selections:       r.Options,
		DestinationState: r.DestinationState,
		IncludeShipping:  r.IncludeShipping,
		IncludeTax:       r.IncludeTax,
	}
}

// writePricingError maps domain sentinel errors onto the canonical error
// envelope.
func writePricingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		common.JSONError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrProductInactive):
		common.JSONError(w, http.StatusNotFound, "PRODUCT_INACTIVE", err.Error(), nil)
	case errors.Is(err, ErrInvalidDimension):
		common.JSONError(w, http.StatusBadRequest, "INVALID_DIMENSION", err.Error(), nil)
	case errors.Is(err, ErrPromoInvalid),
		errors.Is(err, ErrPromoMinPurchase),
		errors.Is(err, ErrPromoExhausted),
		errors.Is(err, ErrPromoNotStarted),
		errors.Is(err, ErrPromoExpired):
		common.JSONError(w, http.StatusBadRequest, "PROMO_NOT_ELIGIBLE", err.Error(), nil)
	case errors.Is(err, ErrOrderBelowMinimum):
		common.JSONError(w, http.StatusUnprocessableEntity, "ORDER_BELOW_MINIMUM", err.Error(), nil)
	case errors.Is(err, ErrOrderAboveMaximum):
		common.JSONError(w, http.StatusUnprocessableEntity, "ORDER_ABOVE_MAXIMUM", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing computation failed", nil)
	}
}
