package imageplane

import (
	"slices"

	"github.com/astrogo/fitsio"
)

// Header is an ordered list of FITS cards. The zero value is an empty header.
type Header struct {
	cards []fitsio.Card
}

// Set replaces the card called name, or appends it.
func (h *Header) Set(name string, value any, comment string) {
	for i := range h.cards {
		if h.cards[i].Name == name {
			h.cards[i].Value = value
			h.cards[i].Comment = comment
			return
		}
	}
	h.cards = append(h.cards, fitsio.Card{Name: name, Value: value, Comment: comment})
}

// Get returns the value of the card called name.
func (h Header) Get(name string) (any, bool) {
	for _, c := range h.cards {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

// Int returns an integer card.
func (h Header) Int(name string) (int, bool) {
	v, ok := h.Get(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), n == float64(int(n))
	}
	return 0, false
}

// Float returns a numeric card as float64.
func (h Header) Float(name string) (float64, bool) {
	v, ok := h.Get(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Keys returns the card names in order.
func (h Header) Keys() []string {
	keys := make([]string, len(h.cards))
	for i, c := range h.cards {
		keys[i] = c.Name
	}
	return keys
}

// Cards returns a copy of the cards.
func (h Header) Cards() []fitsio.Card {
	return slices.Clone(h.cards)
}

// Len returns the number of cards.
func (h Header) Len() int {
	return len(h.cards)
}

// Clone returns an independent copy.
func (h Header) Clone() Header {
	return Header{cards: slices.Clone(h.cards)}
}
