package request

type PurchaseBox struct {
	BuyerWallet   string `json:"buyer_wallet"`
	BuyerUsername string `json:"buyer_username"`
	TxRef         string `json:"tx_ref"`
}
