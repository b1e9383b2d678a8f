package billing

import "strings"

// Checkout session modes this system distinguishes.
const (
	ModeSubscription = "subscription"
	ModePayment      = "payment"
)

// CheckoutSession is a minimal representation of a Stripe
// checkout.session.completed event payload. Only the fields the
// synchronizer acts on are decoded; everything else is ignored.
type CheckoutSession struct {
	ID              string `json:"id"`
	Mode            string `json:"mode"`
	Customer        string `json:"customer"`
	Subscription    string `json:"subscription"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata map[string]string `json:"metadata"`
}

// Email returns the best available customer email for the session.
func (s *CheckoutSession) Email() string {
	if email := strings.TrimSpace(s.CustomerDetails.Email); email != "" {
		return email
	}
	return strings.TrimSpace(s.CustomerEmail)
}

// SubscriptionEvent is a minimal representation of a Stripe subscription
// object as delivered in customer.subscription.* events.
type SubscriptionEvent struct {
	ID                 string `json:"id"`
	Customer           string `json:"customer"`
	Status             string `json:"status"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	Items              struct {
		Data []struct {
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
			Price              struct {
				ID       string            `json:"id"`
				Metadata map[string]string `json:"metadata"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	Metadata map[string]string `json:"metadata"`
}

// FirstPriceID returns the price ID from the first subscription item.
func (s *SubscriptionEvent) FirstPriceID() string {
	for _, item := range s.Items.Data {
		if priceID := strings.TrimSpace(item.Price.ID); priceID != "" {
			return priceID
		}
	}
	return ""
}

// PeriodBounds returns the current period as epoch seconds. Newer Stripe
// API versions report the period on the subscription items rather than the
// subscription itself, so the top-level fields are used first and the first
// item serves as fallback.
func (s *SubscriptionEvent) PeriodBounds() (start, end int64) {
	start, end = s.CurrentPeriodStart, s.CurrentPeriodEnd
	if end == 0 && len(s.Items.Data) > 0 {
		start = s.Items.Data[0].CurrentPeriodStart
		end = s.Items.Data[0].CurrentPeriodEnd
	}
	return start, end
}

// IsSafeStripeID validates that a Stripe ID (cus_..., sub_...) is safe for
// use as a lookup key.
func IsSafeStripeID(stripeID string) bool {
	if len(stripeID) < 5 || len(stripeID) > 128 {
		return false
	}
	for i := 0; i < len(stripeID); i++ {
		c := stripeID[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-' {
			continue
		}
		return false
	}
	return true
}
