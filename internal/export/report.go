package export

import (
	"fmt"
	"io"

	"github.com/netdecker/netdecker-backend/internal/allocation"
)

// WriteUpdateReport writes a single deck update in a human-readable form:
// what is freed, what is covered by on-hand copies, and what must be ordered.
func WriteUpdateReport(w io.Writer, item allocation.BatchItem) error {
	if _, err := fmt.Fprintf(w, "=== Deck Update ===\nDeck: %s (%s)\n\n", item.DeckName, item.Format); err != nil {
		return err
	}

	if item.Error != "" {
		if _, err := fmt.Fprintf(w, "ERROR: %s\n", item.Error); err != nil {
			return err
		}
		return nil
	}

	diff := item.Diff
	if len(diff.ToFree) > 0 {
		if _, err := fmt.Fprint(w, "Cards to Remove:\n"); err != nil {
			return err
		}
		for _, name := range diff.ToFree.SortedNames() {
			if _, err := fmt.Fprintf(w, "  - %dx %s\n", diff.ToFree[name], name); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	if len(diff.ToAllocate) > 0 {
		if _, err := fmt.Fprint(w, "Cards to Add (Already Available):\n"); err != nil {
			return err
		}
		for _, name := range diff.ToAllocate.SortedNames() {
			if _, err := fmt.Fprintf(w, "  + %dx %s\n", diff.ToAllocate[name], name); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	if len(diff.ToOrder) > 0 {
		if _, err := fmt.Fprint(w, "Cards to Add (Ordered):\n"); err != nil {
			return err
		}
		for _, name := range diff.ToOrder.SortedNames() {
			if _, err := fmt.Fprintf(w, "  + %dx %s\n", diff.ToOrder[name], name); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "\nNeed to order %d cards\n", diff.TotalToOrder()); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprint(w, "No cards need to be ordered\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatchReport writes a condensed per-deck summary of a batch run.
func WriteBatchReport(w io.Writer, result *allocation.BatchResult) error {
	succeeded, failed := 0, 0
	for _, item := range result.Items {
		if item.Error != "" {
			failed++
			if _, err := fmt.Fprintf(w, "ERROR - %s (%s): %s\n", item.DeckName, item.Format, item.Error); err != nil {
				return err
			}
			continue
		}
		succeeded++
		changes := len(item.Diff.ToAllocate) + len(item.Diff.ToFree) + len(item.Diff.ToOrder)
		if _, err := fmt.Fprintf(w, "OK - %s (%s) - %d changes\n", item.DeckName, item.Format, changes); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\nSummary: %d successful, %d errors\n", succeeded, failed); err != nil {
		return err
	}
	if result.Order != nil && result.Order.Total() > 0 {
		if _, err := fmt.Fprintf(w, "Total cards to order: %d\n", result.Order.Total()); err != nil {
			return err
		}
	}
	return nil
}
