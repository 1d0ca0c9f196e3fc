package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/storefront/internal/application"
	appcatalog "github.com/Zhima-Mochi/storefront/internal/application/catalog"
)

type listProductsResponse struct {
	Products   []productResponse `json:"products"`
	Categories []string          `json:"categories"`
	Pagination pagination        `json:"pagination"`
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	verr := &application.ValidationError{}
	page := queryInt(r, "page", verr)
	limit := queryInt(r, "limit", verr)
	if err := verr.Err(); err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	res, err := h.uc.ListProducts.Execute(r.Context(), appcatalog.ListProductsInput{
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	products := make([]productResponse, len(res.Products))
	for i, p := range res.Products {
		products[i] = toProduct(p)
	}
	writeData(w, http.StatusOK, "", listProductsResponse{
		Products:   products,
		Categories: res.Categories,
		Pagination: pagination{Page: res.Page, Limit: res.Limit, Total: res.Total, Pages: res.Pages},
	})
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.uc.GetProduct.Execute(r.Context(), appcatalog.GetProductInput{ProductID: r.PathValue("id")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", toProduct(p))
}
