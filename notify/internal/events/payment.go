package events

type PaymentInitiatedEvent struct {
	PaymentID     string  `json:"paymentId"`
	UserID        string  `json:"userId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"paymentMethod"`
}

type PaymentCompletedEvent struct {
	PaymentID     string  `json:"paymentId"`
	TransactionID string  `json:"transactionId"`
	UserID        string  `json:"userId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"paymentMethod"`
}

type PaymentFailedEvent struct {
	PaymentID     string  `json:"paymentId"`
	UserID        string  `json:"userId"`
	Amount        float64 `json:"amount"`
	FailureReason string  `json:"failureReason"`
}

type PaymentRefundedEvent struct {
	PaymentID     string  `json:"paymentId"`
	TransactionID string  `json:"transactionId"`
	UserID        string  `json:"userId"`
	RefundAmount  float64 `json:"refundAmount"`
	RefundReason  string  `json:"refundReason"`
}

type PaymentDisputedEvent struct {
	PaymentID     string  `json:"paymentId"`
	TransactionID string  `json:"transactionId"`
	UserID        string  `json:"userId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	DisputeReason string  `json:"disputeReason"`
	DisputeType   string  `json:"disputeType"`
	Status        string  `json:"status"`
}

// CurrencyOrDefault returns c, or USD when it is empty.
func CurrencyOrDefault(c string) string {
	if c == "" {
		return "USD"
	}
	return c
}
