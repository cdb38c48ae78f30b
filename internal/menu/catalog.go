// Package menu loads and serves the item catalog.
package menu

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/annapurna-pos/backend-billing/internal/money"
)

var (
	// ErrNotFound is returned when a lookup names an unknown item.
	ErrNotFound = errors.New("menu: item not found")
	// ErrMenuFormat is returned when the bootstrap source is missing a
	// required column. Malformed individual rows are skipped instead.
	ErrMenuFormat = errors.New("menu: invalid menu format")
)

// Item is a single catalog entry. Items are immutable once loaded.
type Item struct {
	Name      string      `json:"name"`
	Category  string      `json:"category,omitempty"`
	UnitPrice money.Cents `json:"unitPrice"`
}

// Catalog maps item names to their catalog entries. The name is a
// case-sensitive unique key; the first occurrence of a duplicate wins.
type Catalog struct {
	items map[string]Item
}

// FromItems builds a catalog from already-validated rows, e.g. the
// persisted menu relation.
func FromItems(items []Item) *Catalog {
	c := &Catalog{items: make(map[string]Item, len(items))}
	for _, it := range items {
		c.add(it)
	}
	return c
}

// LoadCSV parses tabular menu data. The header must contain a name column
// ("name" or "item") and a "price" column, matched case-insensitively;
// "category" is optional. Rows with an empty name or an unparseable or
// negative price are skipped.
func LoadCSV(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read header: %v", ErrMenuFormat, err)
	}
	nameIdx, priceIdx, categoryIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name", "item":
			if nameIdx < 0 {
				nameIdx = i
			}
		case "price":
			if priceIdx < 0 {
				priceIdx = i
			}
		case "category":
			if categoryIdx < 0 {
				categoryIdx = i
			}
		}
	}
	if nameIdx < 0 || priceIdx < 0 {
		return nil, fmt.Errorf("%w: header must contain name/item and price columns", ErrMenuFormat)
	}

	c := &Catalog{items: make(map[string]Item)}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// a ragged or unquotable row is a row-level defect, not fatal
			continue
		}
		if nameIdx >= len(record) || priceIdx >= len(record) {
			continue
		}
		name := strings.TrimSpace(record[nameIdx])
		if name == "" {
			continue
		}
		price, err := money.Parse(record[priceIdx])
		if err != nil || price < 0 {
			continue
		}
		item := Item{Name: name, UnitPrice: price}
		if categoryIdx >= 0 && categoryIdx < len(record) {
			item.Category = strings.TrimSpace(record[categoryIdx])
		}
		c.add(item)
	}
	return c, nil
}

func (c *Catalog) add(item Item) {
	if _, exists := c.items[item.Name]; exists {
		return
	}
	c.items[item.Name] = item
}

// Lookup returns the catalog entry for name.
func (c *Catalog) Lookup(name string) (Item, error) {
	item, ok := c.items[name]
	if !ok {
		return Item{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return item, nil
}

// Items returns all entries sorted by name.
func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	slices.SortFunc(out, func(a, b Item) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Len reports the number of catalog entries.
func (c *Catalog) Len() int { return len(c.items) }
