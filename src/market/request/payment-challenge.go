package request

type PaymentChallenge struct {
	AmountUSDC float64 `json:"amount_usdc"`
}
