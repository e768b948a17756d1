package handler

import (
	"net/http"

	"github.com/Dafoe17/retail-platform-backend/internal/api"
	"github.com/Dafoe17/retail-platform-backend/internal/api/dto"
	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/util"
	"github.com/Dafoe17/retail-platform-backend/internal/service"
)

type CartHandler struct {
	cartService     service.ICartService
	checkoutService service.ICheckoutService
}

func NewCartHandler(cartService service.ICartService, checkoutService service.ICheckoutService) *CartHandler {
	if cartService == nil {
		panic("cartService cannot be nil")
	}
	if checkoutService == nil {
		panic("checkoutService cannot be nil")
	}
	return &CartHandler{cartService: cartService, checkoutService: checkoutService}
}

func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request, view *model.CartView, err error) {
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.SuccessJSON(w, convertCartViewToDTO(view))
}

// GetCart GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.cartService.GetCart(r.Context(), util.CartOwnerFromContext(r.Context()))
	h.writeCart(w, r, view, err)
}

// AddItem POST /cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req dto.AddItemDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	view, err := h.cartService.AddItem(r.Context(), util.CartOwnerFromContext(r.Context()), req.ProductID, qty)
	h.writeCart(w, r, view, err)
}

// UpdateItem PUT /cart/items/{id}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	var req dto.UpdateItemDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := h.cartService.UpdateItemQuantity(r.Context(), util.CartOwnerFromContext(r.Context()), itemID, req.Quantity)
	h.writeCart(w, r, view, err)
}

// RemoveItem DELETE /cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r, "id")
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	view, err := h.cartService.RemoveItem(r.Context(), util.CartOwnerFromContext(r.Context()), itemID)
	h.writeCart(w, r, view, err)
}

// Clear DELETE /cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	view, err := h.cartService.Clear(r.Context(), util.CartOwnerFromContext(r.Context()))
	h.writeCart(w, r, view, err)
}

// Checkout POST /cart/checkout, 需登入
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	id, err := requireIdentity(r)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	var req dto.CheckoutDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.checkoutService.Checkout(r.Context(), id.UserID, service.CheckoutRequest{
		ShippingAddress: convertAddressDTOToModel(req.ShippingAddress),
		Comment:         req.Comment,
	})
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.CreatedJSON(w, convertOrderModelToDTO(order))
}
