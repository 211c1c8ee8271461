package dto

import "time"

// SystemMetrics is a lightweight snapshot of runtime counters for the admin console.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	EnrollmentsCreated       uint64    `json:"enrollmentsCreated"`
	CheckoutSessions         uint64    `json:"checkoutSessions"`
	PaymentNotifications     uint64    `json:"paymentNotifications"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
