package handler

import (
	"net/http"

	"github.com/Dafoe17/retail-platform-backend/internal/api"
	"github.com/Dafoe17/retail-platform-backend/internal/api/dto"
	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"github.com/Dafoe17/retail-platform-backend/internal/service"
)

type OrderHandler struct {
	orderService service.IOrderService
}

func NewOrderHandler(orderService service.IOrderService) *OrderHandler {
	if orderService == nil {
		panic("orderService cannot be nil")
	}
	return &OrderHandler{orderService: orderService}
}

// ListOrders GET /orders?status=&page=&page_size=
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	actor, err := requireIdentity(r)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}

	var query service.ListOrdersQuery
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := model.ParseOrderStatus(raw)
		if !ok {
			api.ErrorJSON(w, r, apperr.ErrInvalidStatus.WithMessage("unknown order status %q", raw))
			return
		}
		query.Status = &st
	}
	if query.Page, err = queryInt(r, "page"); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	if query.PageSize, err = queryInt(r, "page_size"); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}

	page, err := h.orderService.ListOrders(r.Context(), actor, query)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.SuccessJSON(w, pageOf(page, convertOrderModelToDTO))
}

// GetOrder GET /orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := requireIdentity(r)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	order, err := h.orderService.GetOrder(r.Context(), actor, id)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.SuccessJSON(w, convertOrderModelToDTO(order))
}

// Cancel POST /orders/{id}/cancel, body 可省略
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, err := requireIdentity(r)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	var req dto.CancelOrderDTO
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.orderService.Cancel(r.Context(), actor, id, req.Comment)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.SuccessJSON(w, convertOrderModelToDTO(order))
}

// UpdateStatus PUT /orders/{id}/status (admin)
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := requireIdentity(r)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	var req dto.UpdateOrderStatusDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.orderService.UpdateStatus(r.Context(), actor, id, model.OrderStatus(req.Status), req.Comment)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.SuccessJSON(w, convertOrderModelToDTO(order))
}
