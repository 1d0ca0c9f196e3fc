package httppresentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/storefront/internal/application"
	appcatalog "github.com/Zhima-Mochi/storefront/internal/application/catalog"
	appcontact "github.com/Zhima-Mochi/storefront/internal/application/contact"
	"github.com/Zhima-Mochi/storefront/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/storefront/internal/application/order"
	apppayment "github.com/Zhima-Mochi/storefront/internal/application/payment"
	apptracking "github.com/Zhima-Mochi/storefront/internal/application/tracking"
	"github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	"github.com/Zhima-Mochi/storefront/internal/domain/identity"
	dompay "github.com/Zhima-Mochi/storefront/internal/domain/payment"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/id"
	"github.com/Zhima-Mochi/storefront/internal/infrastructure/memory"
	infrapay "github.com/Zhima-Mochi/storefront/internal/infrastructure/payment"
	infratrack "github.com/Zhima-Mochi/storefront/internal/infrastructure/tracking"
)

type staticTokens map[string]identity.Caller

func (s staticTokens) Verify(token string) (identity.Caller, error) {
	c, ok := s[token]
	if !ok {
		return identity.Caller{}, errors.New("unknown token")
	}
	return c, nil
}

const (
	aliceToken = "alice"
	bobToken   = "bob"
	adminToken = "admin"
)

type testServer struct {
	srv      *httptest.Server
	products *memory.ProductRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithGateway(t, infrapay.NewStubDispatcher())
}

func newTestServerWithGateway(t *testing.T, gateway dompay.Gateway) *testServer {
	t.Helper()
	products := memory.NewProductRepository()
	orders := memory.NewOrderRepository()
	contacts := memory.NewContactRepository()
	stock := inventory.NewService(products, nil)
	ids := id.NewUUIDGenerator()

	for _, p := range []struct {
		id    string
		price int64
		stock int
	}{{"p-1", 100, 5}, {"p-2", 250, 1}} {
		prod, err := catalog.NewProduct(p.id, "Product "+p.id, "", "tea", p.price, p.stock)
		require.NoError(t, err)
		require.NoError(t, products.Save(context.Background(), prod))
	}

	h := NewHandler(UseCases{
		ListProducts:   appcatalog.NewListProductsUseCase(products, nil),
		GetProduct:     appcatalog.NewGetProductUseCase(products, nil),
		SubmitInquiry:  appcontact.NewSubmitInquiryUseCase(contacts, ids, nil),
		ListInquiries:  appcontact.NewListInquiriesUseCase(contacts, nil),
		CreateOrder:    apporder.NewCreateOrderUseCase(orders, products, stock, ids, id.NewOrderNumbers(), nil, apporder.CreateOrderConfig{ShippingFee: 10}, nil),
		GetOrder:       apporder.NewGetOrderUseCase(orders, nil),
		ListOrders:     apporder.NewListOrdersUseCase(orders, nil),
		UpdateStatus:   apporder.NewUpdateStatusUseCase(orders, stock, nil, nil),
		ProcessPayment: apppayment.NewProcessPaymentUseCase(orders, gateway, nil, nil),
		TrackOrder:     apptracking.NewTrackOrderUseCase(orders, infratrack.NewStubCarrier(), nil),
	}, staticTokens{
		aliceToken: {UserID: "alice", Role: identity.RoleUser},
		bobToken:   {UserID: "bob", Role: identity.RoleUser},
		adminToken: {UserID: "root", Role: identity.RoleAdmin},
	}, nil)

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, products: products}
}

type reply struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Data    json.RawMessage          `json:"data"`
	Errors  []application.FieldError `json:"errors"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, reply) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req, err := http.NewRequest(method, s.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var r reply
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	}
	return resp.StatusCode, r
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func createBody(productID string, qty int) map[string]any {
	return map[string]any{
		"items": []map[string]any{{"productId": productID, "quantity": qty}},
		"shippingAddress": map[string]any{
			"name": "Alice", "phone": "13800000000", "address": "1 Main St", "city": "Shanghai", "postalCode": "200000",
		},
		"paymentMethod": "alipay",
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, err := s.srv.Client().Get(s.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(headerRequestID))
}

func TestOrderLifecycle(t *testing.T) {
	s := newTestServer(t)

	status, r := s.do(t, http.MethodPost, "/api/orders", aliceToken, createBody("p-1", 2))
	require.Equal(t, http.StatusCreated, status, r.Message)
	created := decode[orderResponse](t, r.Data)
	assert.True(t, r.Success)
	assert.Equal(t, int64(200), created.Subtotal)
	assert.Equal(t, int64(210), created.Total)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "unpaid", created.PaymentStatus)

	status, r = s.do(t, http.MethodGet, "/api/orders/"+created.ID+"/tracking", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	track := decode[trackingResponse](t, r.Data)
	assert.False(t, track.Shipped)
	assert.Equal(t, "pending", track.Status)
	assert.Equal(t, "order has not been shipped yet", r.Message)

	pay := map[string]any{"orderId": created.ID, "paymentMethod": "alipay"}
	status, r = s.do(t, http.MethodPost, "/api/payment/process", aliceToken, pay)
	require.Equal(t, http.StatusOK, status, r.Message)
	paid := decode[processPaymentResponse](t, r.Data)
	assert.False(t, paid.AlreadyPaid)
	assert.Equal(t, "processing", paid.Order.Status)

	status, r = s.do(t, http.MethodPost, "/api/payment/process", aliceToken, pay)
	require.Equal(t, http.StatusOK, status)
	again := decode[processPaymentResponse](t, r.Data)
	assert.True(t, again.AlreadyPaid)
	assert.Equal(t, paid.PaymentID, again.PaymentID)

	status, _ = s.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", aliceToken, map[string]any{"status": "shipped"})
	assert.Equal(t, http.StatusForbidden, status)

	status, r = s.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", adminToken,
		map[string]any{"status": "shipped", "trackingNumber": "SF123"})
	require.Equal(t, http.StatusOK, status, r.Message)
	assert.Equal(t, "shipped", decode[orderResponse](t, r.Data).Status)

	status, r = s.do(t, http.MethodGet, "/api/orders/"+created.ID+"/tracking", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	track = decode[trackingResponse](t, r.Data)
	assert.True(t, track.Shipped)
	assert.Equal(t, "SF123", track.TrackingNumber)
	assert.NotEqual(t, "pending", track.Status)

	status, r = s.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", adminToken, map[string]any{"status": "pending"})
	assert.Equal(t, http.StatusConflict, status, r.Message)

	status, r = s.do(t, http.MethodGet, "/api/orders?page=1&limit=5", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[listOrdersResponse](t, r.Data)
	assert.Equal(t, 1, list.Pagination.Total)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, created.OrderNumber, list.Orders[0].OrderNumber)
}

func TestOrderErrors(t *testing.T) {
	s := newTestServer(t)
	_, r := s.do(t, http.MethodPost, "/api/orders", aliceToken, createBody("p-1", 1))
	created := decode[orderResponse](t, r.Data)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
		field  string
	}{
		{name: "missing token", method: http.MethodPost, path: "/api/orders", body: createBody("p-1", 1), want: http.StatusUnauthorized},
		{name: "bad token", method: http.MethodGet, path: "/api/orders", token: "forged", want: http.StatusUnauthorized},
		{name: "unknown field", method: http.MethodPost, path: "/api/orders", token: aliceToken, body: `{"items":[],"coupon":"FREE"}`, want: http.StatusBadRequest},
		{name: "malformed json", method: http.MethodPost, path: "/api/orders", token: aliceToken, body: `{"items":`, want: http.StatusBadRequest},
		{name: "validation", method: http.MethodPost, path: "/api/orders", token: aliceToken, body: createBody("p-1", 0), want: http.StatusBadRequest, field: "items[0].quantity"},
		{name: "insufficient stock", method: http.MethodPost, path: "/api/orders", token: aliceToken, body: createBody("p-2", 2), want: http.StatusBadRequest, field: "items"},
		{name: "unknown product", method: http.MethodPost, path: "/api/orders", token: aliceToken, body: createBody("p-9", 1), want: http.StatusNotFound},
		{name: "someone else's order", method: http.MethodGet, path: "/api/orders/" + created.ID, token: bobToken, want: http.StatusNotFound},
		{name: "unknown status", method: http.MethodPatch, path: "/api/orders/" + created.ID + "/status", token: adminToken, body: map[string]any{"status": "lost"}, want: http.StatusBadRequest, field: "status"},
		{name: "bad page", method: http.MethodGet, path: "/api/orders?page=two", token: aliceToken, want: http.StatusBadRequest, field: "page"},
		{name: "bad payment method", method: http.MethodPost, path: "/api/payment/process", token: aliceToken, body: map[string]any{"orderId": created.ID, "paymentMethod": "cash"}, want: http.StatusBadRequest, field: "paymentMethod"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, r := s.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, status, r.Message)
			assert.False(t, r.Success)
			if tt.field != "" {
				require.NotEmpty(t, r.Errors)
				assert.Equal(t, tt.field, r.Errors[0].Field)
			}
		})
	}
}

func TestCancelReleasesStockOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, r := s.do(t, http.MethodPost, "/api/orders", aliceToken, createBody("p-1", 3))
	created := decode[orderResponse](t, r.Data)

	status, _ := s.do(t, http.MethodPatch, "/api/orders/"+created.ID+"/status", adminToken, map[string]any{"status": "cancelled"})
	require.Equal(t, http.StatusOK, status)

	p, err := s.products.Get(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)

	status, _ = s.do(t, http.MethodPost, "/api/payment/process", aliceToken, map[string]any{"orderId": created.ID, "paymentMethod": "alipay"})
	assert.Equal(t, http.StatusConflict, status)
}

func TestDeclinedPaymentKeepsReservationUntilCancel(t *testing.T) {
	alipay := infrapay.NewStubGateway(dompay.MethodAlipay)
	alipay.Decline = func(dompay.ChargeRequest) string { return "insufficient balance" }
	s := newTestServerWithGateway(t, infrapay.NewDispatcher(map[dompay.Method]dompay.Gateway{
		dompay.MethodAlipay: alipay,
		dompay.MethodWechat: infrapay.NewStubGateway(dompay.MethodWechat),
	}))
	stock := func() int {
		p, err := s.products.Get(context.Background(), "p-1")
		require.NoError(t, err)
		return p.Stock
	}

	_, r := s.do(t, http.MethodPost, "/api/orders", aliceToken, createBody("p-1", 3))
	declined := decode[orderResponse](t, r.Data)
	_, r = s.do(t, http.MethodPost, "/api/orders", aliceToken, createBody("p-1", 1))
	retried := decode[orderResponse](t, r.Data)
	require.Equal(t, 1, stock())

	for _, o := range []orderResponse{declined, retried} {
		status, r := s.do(t, http.MethodPost, "/api/payment/process", aliceToken, map[string]any{"orderId": o.ID, "paymentMethod": "alipay"})
		require.Equal(t, http.StatusPaymentRequired, status)
		assert.Contains(t, r.Message, "insufficient balance")
	}
	assert.Equal(t, 1, stock())

	status, _ := s.do(t, http.MethodPost, "/api/payment/process", aliceToken, map[string]any{"orderId": retried.ID, "paymentMethod": "wechat"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, stock())

	status, _ = s.do(t, http.MethodPatch, "/api/orders/"+declined.ID+"/status", adminToken, map[string]any{"status": "cancelled"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 4, stock())
}

func TestCatalogAndContact(t *testing.T) {
	s := newTestServer(t)

	status, r := s.do(t, http.MethodGet, "/api/products?sort=price_desc", "", nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[listProductsResponse](t, r.Data)
	require.Len(t, list.Products, 2)
	assert.Equal(t, "p-2", list.Products[0].ID)
	assert.Equal(t, []string{"tea"}, list.Categories)

	status, r = s.do(t, http.MethodGet, "/api/products/p-1", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(100), decode[productResponse](t, r.Data).Price)

	status, _ = s.do(t, http.MethodGet, "/api/products/p-9", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, r = s.do(t, http.MethodPost, "/api/contact", "", map[string]any{"name": "Bob", "email": "BOB@example.com", "message": "hi"})
	require.Equal(t, http.StatusCreated, status, r.Message)
	assert.Equal(t, "bob@example.com", decode[inquiryResponse](t, r.Data).Email)

	status, r = s.do(t, http.MethodPost, "/api/contact", "", map[string]any{"name": "Bob", "email": "nope", "message": "hi"})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "email", r.Errors[0].Field)

	status, _ = s.do(t, http.MethodGet, "/api/contact", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, r = s.do(t, http.MethodGet, "/api/contact", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decode[listInquiriesResponse](t, r.Data).Pagination.Total)
}

func TestErrorResponseMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{application.Invalid("x", "bad"), http.StatusBadRequest},
		{&application.ItemError{ProductID: "p", Err: application.ErrInactive}, http.StatusBadRequest},
		{&application.ItemError{ProductID: "p", Err: application.ErrNotFound}, http.StatusNotFound},
		{application.ErrUnauthenticated, http.StatusUnauthorized},
		{application.ErrForbidden, http.StatusForbidden},
		{application.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: shipped to pending", application.ErrInvalidTransition), http.StatusConflict},
		{application.ErrConflict, http.StatusConflict},
		{&application.AdapterError{Adapter: "payment", Reason: "declined"}, http.StatusPaymentRequired},
		{&application.AdapterError{Adapter: "tracking", Err: errors.New("timeout")}, http.StatusBadGateway},
		{application.RepositoryError(errors.New("disk full")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, body := errorResponse(tt.err)
			assert.Equal(t, tt.want, status)
			assert.False(t, body.Success)
			if status == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", body.Message)
			}
		})
	}
}
