// Package export renders order lists and update reports in the formats the
// proxy-printing tools expect.
package export

import (
	"fmt"
	"io"

	"github.com/netdecker/netdecker-backend/internal/orders"
)

// GenericTokens are the utility tokens worth stocking with almost any order.
var GenericTokens = []string{"Treasure Token", "Beast Token", "Elemental Token"}

// MPCFillOptions controls optional sections of the MPCFill output.
type MPCFillOptions struct {
	// IncludeGenericTokens appends GenericTokens that the order did not
	// already resolve via lookup.
	IncludeGenericTokens bool
}

// WriteMPCFill writes the order as MPCFill-compatible MTGO lines: one
// "<qty> <name>" line per card, followed by a token section when there is
// anything to put in it.
func WriteMPCFill(w io.Writer, order *orders.Aggregate, opts MPCFillOptions) error {
	for _, name := range order.Cards.SortedNames() {
		if _, err := fmt.Fprintf(w, "%d %s\n", order.Cards[name], name); err != nil {
			return err
		}
	}

	if !opts.IncludeGenericTokens && len(order.Tokens) == 0 {
		return nil
	}

	if _, err := fmt.Fprint(w, "\n# Tokens\n"); err != nil {
		return err
	}
	for _, name := range order.Tokens.SortedNames() {
		if _, err := fmt.Fprintf(w, "%d %s\n", order.Tokens[name], name); err != nil {
			return err
		}
	}
	if opts.IncludeGenericTokens {
		for _, token := range GenericTokens {
			if order.Tokens.Has(token) {
				continue
			}
			if _, err := fmt.Fprintf(w, "1 %s\n", token); err != nil {
				return err
			}
		}
	}
	return nil
}
