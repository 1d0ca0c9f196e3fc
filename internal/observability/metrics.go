package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
)

const (
	MEventPublishFailures MetricKey = "event_publish_failed_total"
	MStockRejections      MetricKey = "stock_reservation_rejected_total"
	MChargesUnapplied     MetricKey = "payment_charge_unapplied_total"
)
