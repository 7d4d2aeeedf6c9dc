package item

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrUnknownItemType = errors.New("unknown item type")
	ErrInvalidItemData = errors.New("invalid item data")
	ErrUnknownRarity   = errors.New("unknown rarity")
	ErrNotOwner        = errors.New("wallet does not own the item")
)

// A concrete, materialized virtual item
type Item struct {
	Id         string          `json:"id"`
	Type       string          `json:"type"`
	Rarity     string          `json:"rarity"`
	Name       string          `json:"name"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

// Adapter validates and materializes opaque item payloads. The market
// core never inspects item data beyond passing it through here.
type Adapter interface {
	Validate(itemType string, itemData json.RawMessage) error
	TransferOwnership(ctx context.Context, itemId, fromWallet, toWallet string) error
	Generate(ctx context.Context, rarity string) (*Item, error)
}
