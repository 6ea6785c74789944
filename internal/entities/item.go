package entities

import (
	"bytes"
	"encoding/gob"

	"github.com/shopspring/decimal"
)

// Item is a catalog entry. Catalog prices are always denominated in the
// configured base currency.
type Item struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Currency    string
}

func (i *Item) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(i); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (i *Item) Unmarshal(data []byte) error {
	return gob.NewDecoder(bytes.NewBuffer(data)).Decode(i)
}

func init() {
	gob.Register(Item{})
}
