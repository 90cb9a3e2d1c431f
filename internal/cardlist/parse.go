package cardlist

import (
	"strconv"
	"strings"
	"unicode"

	pkgerrors "github.com/netdecker/netdecker-backend/pkg/errors"
)

// Parse reads an MTGO-format card list: one "<quantity> <card name>" entry per
// line. Blank lines, comment lines starting with '#', and lines that do not
// begin with a digit (section headers like "Sideboard") are skipped. Lines that
// look like entries but fail to parse are collected and reported together.
func Parse(lines []string) (Cards, error) {
	var lineErrors []string
	cards := Cards{}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if !unicode.IsDigit(rune(trimmed[0])) {
			continue
		}

		qtyStr, name, found := strings.Cut(trimmed, " ")
		if !found || strings.TrimSpace(name) == "" {
			lineErrors = append(lineErrors, line)
			continue
		}

		qty, err := strconv.Atoi(qtyStr)
		if err != nil || qty < 1 {
			lineErrors = append(lineErrors, line)
			continue
		}

		cards.Add(name, qty)
	}

	if len(lineErrors) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card list lines must follow the format: <quantity> <cardname>").
			WithDetails(map[string]any{"lines": lineErrors})
	}
	return cards, nil
}

// ParseText splits raw text into lines and parses it as an MTGO card list.
func ParseText(text string) (Cards, error) {
	return Parse(strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n"))
}
