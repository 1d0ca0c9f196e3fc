package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/storefront/internal/application"
	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	apptracking "github.com/Zhima-Mochi/storefront/internal/application/tracking"
)

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Items           []orderItemRequest `json:"items"`
	ShippingAddress shippingJSON       `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
}

type updateStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber"`
	Carrier        string `json:"carrier"`
}

type listOrdersResponse struct {
	Orders     []orderResponse `json:"orders"`
	Pagination pagination      `json:"pagination"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]apporder.ItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = apporder.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	o, err := h.uc.CreateOrder.Execute(r.Context(), apporder.CreateOrderInput{
		Items: items,
		Shipping: apporder.ShippingInput{
			Name:       req.ShippingAddress.Name,
			Phone:      req.ShippingAddress.Phone,
			Address:    req.ShippingAddress.Address,
			City:       req.ShippingAddress.City,
			PostalCode: req.ShippingAddress.PostalCode,
		},
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "order created", toOrder(o))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	verr := &application.ValidationError{}
	page := queryInt(r, "page", verr)
	limit := queryInt(r, "limit", verr)
	if err := verr.Err(); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.uc.ListOrders.Execute(r.Context(), apporder.ListOrdersInput{
		Page:   page,
		Limit:  limit,
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	orders := make([]orderResponse, len(res.Orders))
	for i, o := range res.Orders {
		orders[i] = toOrder(o)
	}
	writeData(w, http.StatusOK, "", listOrdersResponse{
		Orders:     orders,
		Pagination: pagination{Page: res.Page, Limit: res.Limit, Total: res.Total, Pages: res.Pages},
	})
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.uc.GetOrder.Execute(r.Context(), apporder.GetOrderInput{OrderID: r.PathValue("id")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", toOrder(o))
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.uc.UpdateStatus.Execute(r.Context(), apporder.UpdateStatusInput{
		OrderID:        r.PathValue("id"),
		Status:         req.Status,
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "order status updated", toOrder(o))
}

func (h *Handler) handleTrackOrder(w http.ResponseWriter, r *http.Request) {
	res, err := h.uc.TrackOrder.Execute(r.Context(), apptracking.TrackOrderInput{OrderID: r.PathValue("id")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, res.Message, toTracking(res))
}
