package domain

import "time"

const (
	RolePublisher  = "PUBLISHER"
	RoleAdvertiser = "ADVERTISER"
	RoleAdmin      = "ADMIN"
)

// Invoice lifecycle. These values are part of the wire contract with clients
// and must stay lowercase.
const (
	InvoiceStatusPending   = "pending"
	InvoiceStatusVerifying = "verifying"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusFailed    = "failed"
)

const (
	SubscriptionStatusActive  = "ACTIVE"
	SubscriptionStatusExpired = "EXPIRED"
)

const PlanPublisherMonthly = "publisher_monthly"

// PlanSpec is a purchasable subscription plan. Prices are major currency
// units; minor units are derived at checkout time.
type PlanSpec struct {
	Code     string
	Name     string
	Price    float64
	Currency string
	Interval time.Duration
}

var plans = map[string]PlanSpec{
	PlanPublisherMonthly: {
		Code:     PlanPublisherMonthly,
		Name:     "Publisher (monthly)",
		Price:    80.00,
		Currency: "GHS",
		Interval: 30 * 24 * time.Hour,
	},
}

// PlanByCode looks up a plan by its wire code.
func PlanByCode(code string) (PlanSpec, bool) {
	p, ok := plans[code]
	return p, ok
}
