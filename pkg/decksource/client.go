// Package decksource downloads deck lists from the supported hosting sites
// and normalizes them into card lists.
package decksource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/netdecker/netdecker-backend/internal/cardlist"
	"github.com/netdecker/netdecker-backend/pkg/config"
	pkgerrors "github.com/netdecker/netdecker-backend/pkg/errors"
	"github.com/netdecker/netdecker-backend/pkg/logger"
)

const (
	cubeCobraHost   = "cubecobra.com"
	mtgGoldfishHost = "mtggoldfish.com"
	moxfieldHost    = "moxfield.com"
)

// Client fetches deck lists by URL. Supported hosts: CubeCobra, MTGGoldfish,
// and Moxfield.
type Client struct {
	http   *http.Client
	logger *logger.Logger

	// download endpoints, overridable in tests
	cubeCobraBase   string
	mtgGoldfishBase string
	moxfieldAPIBase string
}

// NewClient builds a deck source client. Logger is optional.
func NewClient(cfg config.DeckSourceConfig, logg *logger.Logger) *Client {
	return &Client{
		http:            &http.Client{Timeout: cfg.Timeout},
		logger:          logg,
		cubeCobraBase:   "https://www.cubecobra.com",
		mtgGoldfishBase: "https://www.mtggoldfish.com",
		moxfieldAPIBase: "https://api2.moxfield.com",
	}
}

// Fetch downloads and parses the deck list behind a sharing URL, for example:
//
//	CubeCobra:   https://www.cubecobra.com/cube/overview/MattHomeCube
//	MTGGoldfish: https://www.mtggoldfish.com/deck/6732890#paper
//	Moxfield:    https://www.moxfield.com/decks/AahWutbE20GeNMt2ENLT7A
func (c *Client) Fetch(ctx context.Context, rawURL string) (cardlist.Cards, error) {
	downloadURL, err := c.resolveDownloadURL(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, downloadURL)
	if err != nil {
		return nil, importErr(rawURL, err, "downloading deck list")
	}

	cards, err := cardlist.ParseText(body)
	if err != nil {
		return nil, err
	}

	if c.logger != nil {
		lctx := c.logger.WithFields(ctx, map[string]any{"url": rawURL, "cards": cards.Total()})
		c.logger.Info(lctx, "deck list retrieved")
	}
	return cards, nil
}

// resolveDownloadURL maps a sharing URL to the host's plain-text MTGO export.
// Moxfield needs an extra round trip to obtain the export id.
func (c *Client) resolveDownloadURL(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid deck source url").
			WithDetails(map[string]any{"url": rawURL})
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	deckID := segments[len(segments)-1]
	if deckID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "deck source url has no deck id").
			WithDetails(map[string]any{"url": rawURL})
	}

	switch host {
	case cubeCobraHost:
		return fmt.Sprintf("%s/cube/download/mtgo/%s", c.cubeCobraBase, deckID), nil
	case mtgGoldfishHost:
		return fmt.Sprintf("%s/deck/download/%s", c.mtgGoldfishBase, deckID), nil
	case moxfieldHost:
		return c.resolveMoxfieldExport(ctx, rawURL, deckID)
	default:
		return "", pkgerrors.New(pkgerrors.CodeImport, "unsupported deck source domain").
			WithDetails(map[string]any{"url": rawURL, "domain": host})
	}
}

func (c *Client) resolveMoxfieldExport(ctx context.Context, rawURL, deckID string) (string, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/v2/decks/all/%s", c.moxfieldAPIBase, deckID))
	if err != nil {
		return "", importErr(rawURL, err, "resolving moxfield deck")
	}

	var deck struct {
		ExportID string `json:"exportId"`
	}
	if err := json.Unmarshal([]byte(body), &deck); err != nil {
		return "", importErr(rawURL, err, "decoding moxfield response")
	}
	if deck.ExportID == "" {
		return "", pkgerrors.New(pkgerrors.CodeImport, "moxfield deck has no export id").
			WithDetails(map[string]any{"url": rawURL})
	}
	return fmt.Sprintf("%s/v3/decks/all/%s/export?format=mtgo&exportId=%s", c.moxfieldAPIBase, deckID, deck.ExportID), nil
}

func (c *Client) get(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func importErr(rawURL string, err error, msg string) error {
	return pkgerrors.Wrap(pkgerrors.CodeImport, err, msg).
		WithDetails(map[string]any{"url": rawURL})
}
