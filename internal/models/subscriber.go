package models

// Subscriber плоское представление подписки клиента платёжного провайдера.
// Никогда не кешируется и не сохраняется.
type Subscriber struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	Phone              string `json:"phone"`
	SubscriptionStatus string `json:"subscription_status"`
	PlanName           string `json:"plan_name"`
	ProductName        string `json:"product_name"`
	AmountCharged      string `json:"amount_charged"`
	Currency           string `json:"currency"`
	CurrentPeriodEnd   string `json:"current_period_end"`
	TrialEnd           string `json:"trial_end"`
	SubscriptionStart  string `json:"subscription_start"`
	BillingInterval    string `json:"billing_interval"`
	Discount           string `json:"discount"`
}
