package dto

// AppendTransactionRequest records one credit top-up or voucher purchase.
// Amount is in major currency units and must be finite and non-negative.
type AppendTransactionRequest struct {
	Kind           string  `json:"kind" validate:"required,oneof=credit_add voucher_purchase" example:"credit_add"`
	Amount         float64 `json:"amount" validate:"gte=0" example:"12.5"`
	Description    string  `json:"description" validate:"max=500" example:"M-Pesa top-up"`
	IdempotencyKey string  `json:"idempotency_key,omitempty" validate:"omitempty,max=128"`
}

type TransactionDTO struct {
	ID          uint    `json:"id"`
	UUID        string  `json:"uuid"`
	TraderPhone string  `json:"trader_phone"`
	Kind        string  `json:"kind"`
	Amount      float64 `json:"amount"`
	AmountMinor int64   `json:"amount_minor"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

type AppendTransactionResponse struct {
	Transaction TransactionDTO `json:"transaction"`
	// Replayed is true when an idempotency key matched an earlier append
	Replayed bool `json:"replayed"`
}

type BalanceResponse struct {
	TraderPhone  string  `json:"trader_phone"`
	Balance      float64 `json:"balance"`
	BalanceMinor int64   `json:"balance_minor"`
	Formatted    string  `json:"formatted" example:"40.00"`
	Currency     string  `json:"currency"`
}

type ListTransactionsRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1"`
}

type ListTransactionsResponse struct {
	Items []TransactionDTO `json:"items"`
	Count int              `json:"count"`
}
