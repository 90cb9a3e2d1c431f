package orders

import (
	"context"

	"github.com/netdecker/netdecker-backend/internal/cardlist"
	"github.com/netdecker/netdecker-backend/pkg/logger"
)

// TokenLookup resolves the token cards a given card creates. Implemented by
// the Scryfall client; stubbed in tests.
type TokenLookup interface {
	Tokens(ctx context.Context, cardName string) ([]string, error)
}

// Aggregate is the combined order list for a batch run. Cards holds unmet
// demand summed across decks; Tokens holds auxiliary token cards. Tokens are
// always ordered fresh and never netted against inventory.
type Aggregate struct {
	Cards  cardlist.Cards `json:"cards"`
	Tokens cardlist.Cards `json:"tokens,omitempty"`
}

// NewAggregate returns an empty order aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{Cards: cardlist.Cards{}, Tokens: cardlist.Cards{}}
}

// Merge folds one deck's to-order list into the aggregate.
func (a *Aggregate) Merge(toOrder cardlist.Cards) {
	a.Cards.Merge(toOrder)
}

// Total returns the number of physical cards to order, tokens included.
func (a *Aggregate) Total() int {
	return a.Cards.Total() + a.Tokens.Total()
}

// ExpandTokens looks up the tokens implied by each ordered card and adds one
// copy per source card, summing when several cards create the same token.
// Lookup failures are logged and skipped; a missing token is not worth
// failing an order for.
func (a *Aggregate) ExpandTokens(ctx context.Context, lookup TokenLookup, logg *logger.Logger) {
	if lookup == nil {
		return
	}
	for _, name := range a.Cards.SortedNames() {
		tokens, err := lookup.Tokens(ctx, name)
		if err != nil {
			if logg != nil {
				wctx := logg.WithFields(ctx, map[string]any{"card": name, "error": err.Error()})
				logg.Warn(wctx, "token lookup failed")
			}
			continue
		}
		for _, token := range tokens {
			a.Tokens.Add(token, 1)
		}
	}
}
