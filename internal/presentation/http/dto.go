package httppresentation

import (
	"time"

	apptracking "github.com/Zhima-Mochi/storefront/internal/application/tracking"
	domcatalog "github.com/Zhima-Mochi/storefront/internal/domain/catalog"
	domcontact "github.com/Zhima-Mochi/storefront/internal/domain/contact"
	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
)

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	DateAdded   time.Time `json:"dateAdded"`
}

func toProduct(p *domcatalog.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Stock:       p.Stock,
		DateAdded:   p.DateAdded,
	}
}

type inquiryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func toInquiry(i *domcontact.Inquiry) inquiryResponse {
	return inquiryResponse{
		ID:        i.ID,
		Name:      i.Name,
		Email:     i.Email,
		Phone:     i.Phone,
		Message:   i.Message,
		Status:    string(i.Status),
		CreatedAt: i.CreatedAt,
	}
}

type lineItemJSON struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Total     int64  `json:"total"`
}

type shippingJSON struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode,omitempty"`
}

type orderResponse struct {
	ID             string         `json:"id"`
	OrderNumber    string         `json:"orderNumber"`
	UserID         string         `json:"userId"`
	Items          []lineItemJSON `json:"items"`
	Shipping       shippingJSON   `json:"shippingAddress"`
	Subtotal       int64          `json:"subtotal"`
	ShippingFee    int64          `json:"shippingFee"`
	Total          int64          `json:"total"`
	PaymentMethod  string         `json:"paymentMethod"`
	PaymentStatus  string         `json:"paymentStatus"`
	PaymentID      string         `json:"paymentId,omitempty"`
	Status         string         `json:"status"`
	TrackingNumber string         `json:"trackingNumber,omitempty"`
	Carrier        string         `json:"carrier,omitempty"`
	PaidAt         *time.Time     `json:"paidAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func toOrder(o *domorder.Order) orderResponse {
	items := make([]lineItemJSON, len(o.Items))
	for i, it := range o.Items {
		items[i] = lineItemJSON{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.UnitPrice,
			Quantity:  it.Quantity,
			Total:     it.Total(),
		}
	}
	return orderResponse{
		ID:          o.ID,
		OrderNumber: o.Number,
		UserID:      o.UserID,
		Items:       items,
		Shipping: shippingJSON{
			Name:       o.Shipping.Name,
			Phone:      o.Shipping.Phone,
			Address:    o.Shipping.Address,
			City:       o.Shipping.City,
			PostalCode: o.Shipping.PostalCode,
		},
		Subtotal:       o.Subtotal,
		ShippingFee:    o.ShippingFee,
		Total:          o.Total,
		PaymentMethod:  string(o.PaymentMethod),
		PaymentStatus:  string(o.PaymentStatus),
		PaymentID:      o.PaymentID,
		Status:         string(o.Status),
		TrackingNumber: o.TrackingNumber,
		Carrier:        o.Carrier,
		PaidAt:         o.PaidAt,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

type trackingEventJSON struct {
	Status      string    `json:"status"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Time        time.Time `json:"time"`
}

type trackingResponse struct {
	OrderID           string              `json:"orderId"`
	OrderNumber       string              `json:"orderNumber"`
	OrderStatus       string              `json:"orderStatus"`
	Shipped           bool                `json:"shipped"`
	Message           string              `json:"message,omitempty"`
	TrackingNumber    string              `json:"trackingNumber,omitempty"`
	Carrier           string              `json:"carrier,omitempty"`
	Status            string              `json:"status"`
	Location          string              `json:"location,omitempty"`
	Timeline          []trackingEventJSON `json:"timeline"`
	EstimatedDelivery *time.Time          `json:"estimatedDelivery,omitempty"`
}

func toTracking(res *apptracking.TrackOrderResult) trackingResponse {
	snap := res.Snapshot
	timeline := make([]trackingEventJSON, len(snap.Timeline))
	for i, e := range snap.Timeline {
		timeline[i] = trackingEventJSON{
			Status:      string(e.Status),
			Location:    e.Location,
			Description: e.Description,
			Time:        e.Time,
		}
	}
	return trackingResponse{
		OrderID:           res.OrderID,
		OrderNumber:       res.OrderNumber,
		OrderStatus:       string(res.OrderStatus),
		Shipped:           res.Shipped,
		Message:           res.Message,
		TrackingNumber:    snap.TrackingNumber,
		Carrier:           snap.Carrier,
		Status:            string(snap.Status),
		Location:          snap.Location,
		Timeline:          timeline,
		EstimatedDelivery: snap.EstimatedDelivery,
	}
}
