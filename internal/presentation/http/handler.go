package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/storefront/internal/application"
	appcatalog "github.com/Zhima-Mochi/storefront/internal/application/catalog"
	appcontact "github.com/Zhima-Mochi/storefront/internal/application/contact"
	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	apppayment "github.com/Zhima-Mochi/storefront/internal/application/payment"
	apptracking "github.com/Zhima-Mochi/storefront/internal/application/tracking"
	domcatalog "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	domcontact "github.com/Zhima-Mochi/storefront/internal/domain/contact"
	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
	"github.com/Zhima-Mochi/storefront/internal/observability"
)

const componentHTTPHandler = "http_server"

// UseCases are the operations exposed over REST.
type UseCases struct {
	ListProducts   application.UseCase[appcatalog.ListProductsInput, *appcatalog.ListProductsResult]
	GetProduct     application.UseCase[appcatalog.GetProductInput, *domcatalog.Product]
	SubmitInquiry  application.UseCase[appcontact.SubmitInquiryInput, *domcontact.Inquiry]
	ListInquiries  application.UseCase[appcontact.ListInquiriesInput, *appcontact.ListInquiriesResult]
	CreateOrder    application.UseCase[apporder.CreateOrderInput, *domorder.Order]
	GetOrder       application.UseCase[apporder.GetOrderInput, *domorder.Order]
	ListOrders     application.UseCase[apporder.ListOrdersInput, *apporder.ListOrdersResult]
	UpdateStatus   application.UseCase[apporder.UpdateStatusInput, *domorder.Order]
	ProcessPayment application.UseCase[apppayment.ProcessPaymentInput, *apppayment.ProcessPaymentResult]
	TrackOrder     application.UseCase[apptracking.TrackOrderInput, *apptracking.TrackOrderResult]
}

type Handler struct {
	uc       UseCases
	verifier TokenVerifier
	log      observability.Logger

	requests observability.Counter
	duration observability.Histogram
}

func NewHandler(uc UseCases, verifier TokenVerifier, tel observability.Observability) *Handler {
	log, _, metrics := observability.Resolve(tel)
	return &Handler{
		uc:       uc,
		verifier: verifier,
		log:      log.With(observability.F("component", componentHTTPHandler)),
		requests: metrics.Counter(observability.MHTTPRequests),
		duration: metrics.Histogram(observability.MHTTPRequestDuration),
	}
}

type access int

const (
	public access = iota
	authenticated
)

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// Trace → Request logger → Metrics → Access log → [Auth] → Handler
	h.muxHandle(mux, http.MethodGet, "/health", public, h.handleHealth)

	h.muxHandle(mux, http.MethodGet, "/api/products", public, h.handleListProducts)
	h.muxHandle(mux, http.MethodGet, "/api/products/{id}", public, h.handleGetProduct)

	h.muxHandle(mux, http.MethodPost, "/api/contact", public, h.handleSubmitInquiry)
	h.muxHandle(mux, http.MethodGet, "/api/contact", authenticated, h.handleListInquiries)

	h.muxHandle(mux, http.MethodPost, "/api/orders", authenticated, h.handleCreateOrder)
	h.muxHandle(mux, http.MethodGet, "/api/orders", authenticated, h.handleListOrders)
	h.muxHandle(mux, http.MethodGet, "/api/orders/{id}", authenticated, h.handleGetOrder)
	h.muxHandle(mux, http.MethodPatch, "/api/orders/{id}/status", authenticated, h.handleUpdateStatus)
	h.muxHandle(mux, http.MethodGet, "/api/orders/{id}/tracking", authenticated, h.handleTrackOrder)

	h.muxHandle(mux, http.MethodPost, "/api/payment/process", authenticated, h.handleProcessPayment)

	return mux
}

func (h *Handler) muxHandle(mux *http.ServeMux, method, path string, level access, handler http.HandlerFunc) {
	route := method + " " + path

	var inner http.Handler = handler
	if level == authenticated {
		inner = withAuth(h.verifier, h.log)(inner)
	}
	wrapped := withTrace(
		withRequestLogger(h.log)(
			withHTTPMetrics(h.requests, h.duration)(
				withAccessLog(h.log)(inner),
			),
		),
	)

	mux.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
		// Stable route template for low-cardinality labels
		wrapped.ServeHTTP(w, r.WithContext(contextWithRoute(r.Context(), route)))
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
