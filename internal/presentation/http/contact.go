package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/storefront/internal/application"
	appcontact "github.com/Zhima-Mochi/storefront/internal/application/contact"
)

type submitInquiryRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type listInquiriesResponse struct {
	Inquiries  []inquiryResponse `json:"inquiries"`
	Pagination pagination        `json:"pagination"`
}

func (h *Handler) handleSubmitInquiry(w http.ResponseWriter, r *http.Request) {
	var req submitInquiryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	inq, err := h.uc.SubmitInquiry.Execute(r.Context(), appcontact.SubmitInquiryInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "inquiry received", toInquiry(inq))
}

func (h *Handler) handleListInquiries(w http.ResponseWriter, r *http.Request) {
	verr := &application.ValidationError{}
	page := queryInt(r, "page", verr)
	limit := queryInt(r, "limit", verr)
	if err := verr.Err(); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.uc.ListInquiries.Execute(r.Context(), appcontact.ListInquiriesInput{
		Page:   page,
		Limit:  limit,
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]inquiryResponse, len(res.Inquiries))
	for i, inq := range res.Inquiries {
		items[i] = toInquiry(inq)
	}
	writeData(w, http.StatusOK, "", listInquiriesResponse{
		Inquiries:  items,
		Pagination: pagination{Page: res.Page, Limit: res.Limit, Total: res.Total, Pages: res.Pages},
	})
}
