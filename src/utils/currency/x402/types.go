package x402

type VerifyRequest struct {
	TxRef      string  `json:"tx_ref"`
	AmountUSDC float64 `json:"amount_usdc"`
	Payer      string  `json:"payer"`
	PayTo      string  `json:"pay_to"`
	Network    string  `json:"network"`
}

type VerifyResponse struct {
	IsValid         bool    `json:"isValid"`
	ConfirmedAmount float64 `json:"confirmedAmount"`
	Payer           string  `json:"payer"`
	InvalidReason   string  `json:"invalidReason,omitempty"`
}

type SupportedResponse struct {
	Kinds []SupportedKind `json:"kinds"`
}

type SupportedKind struct {
	Scheme  string `json:"scheme"`
	Network string `json:"network"`
}
