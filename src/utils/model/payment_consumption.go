package model

import "time"

const (
	TablePaymentConsumption = "payment_consumptions"
)

// Marks a payment reference as spent. One row per transaction reference,
// the idempotency key ties it to the economic event that consumed it.
type PaymentConsumption struct {
	TxRef          string `gorm:"primaryKey"`
	IdempotencyKey string
	Amount         float64
	PayerWallet    string
	CreatedAt      time.Time
}

func (PaymentConsumption) TableName() string {
	return TablePaymentConsumption
}
