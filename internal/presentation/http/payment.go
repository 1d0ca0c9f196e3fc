package httppresentation

import (
	"net/http"

	apppayment "github.com/Zhima-Mochi/storefront/internal/application/payment"
)

type processPaymentRequest struct {
	OrderID       string `json:"orderId"`
	PaymentMethod string `json:"paymentMethod"`
}

type processPaymentResponse struct {
	PaymentID   string        `json:"paymentId"`
	AlreadyPaid bool          `json:"alreadyPaid"`
	Order       orderResponse `json:"order"`
}

func (h *Handler) handleProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req processPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.uc.ProcessPayment.Execute(r.Context(), apppayment.ProcessPaymentInput{
		OrderID:       req.OrderID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	message := "payment processed"
	if res.AlreadyPaid {
		message = "order already paid"
	}
	writeData(w, http.StatusOK, message, processPaymentResponse{
		PaymentID:   res.PaymentID,
		AlreadyPaid: res.AlreadyPaid,
		Order:       toOrder(res.Order),
	})
}
