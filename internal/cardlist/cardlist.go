package cardlist

import (
	"sort"
	"strings"
)

// Cards maps a normalized card name to a required or owned quantity. A name
// never appears with quantity zero; Set removes entries that drop to zero.
type Cards map[string]int

// Normalize produces the canonical identifier for a card name: trimmed,
// inner whitespace collapsed, lowercased.
func Normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Set stores qty for name, dropping the entry when qty <= 0.
func (c Cards) Set(name string, qty int) {
	key := Normalize(name)
	if key == "" {
		return
	}
	if qty <= 0 {
		delete(c, key)
		return
	}
	c[key] = qty
}

// Add increments the stored quantity for name.
func (c Cards) Add(name string, qty int) {
	key := Normalize(name)
	if key == "" || qty <= 0 {
		return
	}
	c[key] += qty
}

// Has reports whether the list contains the card under any spelling that
// normalizes to the same name.
func (c Cards) Has(name string) bool {
	_, ok := c[Normalize(name)]
	return ok
}

// Merge folds other into c, summing quantities per name.
func (c Cards) Merge(other Cards) {
	for name, qty := range other {
		c.Add(name, qty)
	}
}

// Clone returns an independent copy.
func (c Cards) Clone() Cards {
	out := make(Cards, len(c))
	for name, qty := range c {
		out[name] = qty
	}
	return out
}

// Total returns the sum of all quantities.
func (c Cards) Total() int {
	total := 0
	for _, qty := range c {
		total += qty
	}
	return total
}

// SortedNames returns the card names in lexical order for deterministic
// iteration and output.
func (c Cards) SortedNames() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
