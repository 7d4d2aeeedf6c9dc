package request

type CancelListing struct {
	RequesterWallet string `json:"requester_wallet"`
}
