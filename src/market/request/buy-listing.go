package request

type BuyListing struct {
	BuyerWallet   string `json:"buyer_wallet"`
	BuyerUsername string `json:"buyer_username"`

	// Settled payment reference. Empty means the client wants a payment
	// challenge first.
	TxRef string `json:"tx_ref"`
}
