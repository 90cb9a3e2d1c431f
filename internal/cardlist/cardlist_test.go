package cardlist

import (
	"testing"

	pkgerrors "github.com/netdecker/netdecker-backend/pkg/errors"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Lightning Bolt":    "lightning bolt",
		"  Giant  Growth  ": "giant growth",
		"FORCE OF WILL":     "force of will",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSetDropsZeroEntries(t *testing.T) {
	cards := Cards{}
	cards.Set("Island", 3)
	cards.Set("Island", 0)
	if _, ok := cards["island"]; ok {
		t.Fatalf("expected zero quantity to remove the entry")
	}
}

func TestMergeAndTotal(t *testing.T) {
	a := Cards{"island": 2, "swamp": 1}
	b := Cards{"island": 1, "forest": 4}
	a.Merge(b)

	if a["island"] != 3 {
		t.Fatalf("expected merged island qty 3, got %d", a["island"])
	}
	if a.Total() != 8 {
		t.Fatalf("expected total 8, got %d", a.Total())
	}
}

func TestParseSkipsNonCardLines(t *testing.T) {
	cards, err := Parse([]string{
		"# Mainboard",
		"",
		"Sideboard",
		"4 Lightning Bolt",
		"2 lightning BOLT",
		"1 Counterspell",
	})
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if cards["lightning bolt"] != 6 {
		t.Fatalf("expected duplicate entries to sum, got %d", cards["lightning bolt"])
	}
	if cards["counterspell"] != 1 {
		t.Fatalf("expected counterspell 1, got %d", cards["counterspell"])
	}
}

func TestParseCollectsLineErrors(t *testing.T) {
	_, err := Parse([]string{"4 Lightning Bolt", "3", "0 Island"})
	if err == nil {
		t.Fatal("expected parse error for malformed lines")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	lines, ok := details["lines"].([]string)
	if !ok || len(lines) != 2 {
		t.Fatalf("expected 2 offending lines, got %v", details["lines"])
	}
}

func TestParseText(t *testing.T) {
	cards, err := ParseText("2 Island\r\n1 Swamp\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cards["island"] != 2 || cards["swamp"] != 1 {
		t.Fatalf("unexpected cards: %v", cards)
	}
}
