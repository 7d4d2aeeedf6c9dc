package item

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/gemtrade/marketplace/src/utils/logger"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

const GemItemType = "gem"

type gemTemplate struct {
	Name   string
	Color  string
	Facets int
}

var gemCatalog = map[string][]gemTemplate{
	"common": {
		{Name: "Rough Quartz", Color: "white", Facets: 8},
		{Name: "Dull Garnet", Color: "red", Facets: 10},
		{Name: "Cloudy Topaz", Color: "yellow", Facets: 12},
	},
	"rare": {
		{Name: "Polished Amethyst", Color: "purple", Facets: 24},
		{Name: "Deep Aquamarine", Color: "blue", Facets: 28},
	},
	"epic": {
		{Name: "Starfire Opal", Color: "iridescent", Facets: 48},
		{Name: "Ember Ruby", Color: "crimson", Facets: 52},
	},
	"legendary": {
		{Name: "Void Diamond", Color: "black", Facets: 96},
	},
}

// Required shape for listed gem payloads
type gemData struct {
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Carat  float64 `json:"carat"`
	Rarity string  `json:"rarity"`
}

// Gem is the item adapter for the gem game. Ownership is tracked in an
// in-process ledger, real deployments point this at the game backend.
type Gem struct {
	log *logrus.Entry

	mtx    sync.Mutex
	owners map[string]string
	rnd    *rand.Rand
}

func NewGem() (self *Gem) {
	self = new(Gem)
	self.log = logger.NewSublogger("item-gem")
	self.owners = make(map[string]string)
	self.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	return
}

// Deterministic generation for audits and tests
func (self *Gem) WithRand(rnd *rand.Rand) *Gem {
	self.rnd = rnd
	return self
}

func (self *Gem) Validate(itemType string, itemData json.RawMessage) (err error) {
	if itemType != GemItemType {
		return fmt.Errorf("%w: %s", ErrUnknownItemType, itemType)
	}

	var data gemData
	err = json.Unmarshal(itemData, &data)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidItemData, err)
	}

	if data.Name == "" || data.Color == "" {
		return fmt.Errorf("%w: name and color are required", ErrInvalidItemData)
	}
	if data.Carat <= 0 {
		return fmt.Errorf("%w: carat must be positive", ErrInvalidItemData)
	}
	return nil
}

func (self *Gem) TransferOwnership(ctx context.Context, itemId, fromWallet, toWallet string) (err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	owner, recorded := self.owners[itemId]
	if recorded && owner != fromWallet {
		return ErrNotOwner
	}

	self.owners[itemId] = toWallet
	self.log.WithField("item_id", itemId).
		WithField("from", fromWallet).
		WithField("to", toWallet).
		Debug("Ownership transferred")
	return nil
}

func (self *Gem) Generate(ctx context.Context, rarity string) (out *Item, err error) {
	templates, ok := gemCatalog[rarity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRarity, rarity)
	}

	self.mtx.Lock()
	template := templates[self.rnd.Intn(len(templates))]
	carat := 0.5 + self.rnd.Float64()*4.5
	self.mtx.Unlock()

	attributes, err := json.Marshal(gemData{
		Name:   template.Name,
		Color:  template.Color,
		Carat:  carat,
		Rarity: rarity,
	})
	if err != nil {
		return
	}

	out = &Item{
		Id:         xid.New().String(),
		Type:       GemItemType,
		Rarity:     rarity,
		Name:       template.Name,
		Attributes: attributes,
	}
	return
}
