// Package scryfall resolves card metadata from the Scryfall API. The only
// lookup the order pipeline needs is which token cards a card creates.
package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/netdecker/netdecker-backend/pkg/config"
	pkgerrors "github.com/netdecker/netdecker-backend/pkg/errors"
	"github.com/netdecker/netdecker-backend/pkg/logger"
	"github.com/sethvargo/go-retry"
)

// Cache stores resolved token lookups. Implemented by the redis client; a nil
// cache disables caching.
type Cache interface {
	GetTokens(ctx context.Context, cardName string) ([]string, bool, error)
	StoreTokens(ctx context.Context, cardName string, tokens []string) error
}

// Client talks to the Scryfall REST API.
type Client struct {
	http       *http.Client
	baseURL    string
	maxRetries uint64
	cache      Cache
	logger     *logger.Logger
}

// NewClient builds a Scryfall client. Cache and logger are optional.
func NewClient(cfg config.ScryfallConfig, cache Cache, logg *logger.Logger) *Client {
	return &Client{
		http:       &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
		cache:      cache,
		logger:     logg,
	}
}

type namedCardResponse struct {
	Name     string     `json:"name"`
	AllParts []cardPart `json:"all_parts"`
}

type cardPart struct {
	Component string `json:"component"`
	Name      string `json:"name"`
}

// Tokens returns the names of token cards created by the named card. Unknown
// cards and cards with no related parts both resolve to an empty list.
func (c *Client) Tokens(ctx context.Context, cardName string) ([]string, error) {
	if c.cache != nil {
		tokens, hit, err := c.cache.GetTokens(ctx, cardName)
		if err == nil && hit {
			return tokens, nil
		}
		if err != nil {
			c.log(ctx, cardName, "token cache read failed", err)
		}
	}

	card, err := c.namedCard(ctx, cardName)
	if err != nil {
		return nil, err
	}

	tokens := []string{}
	if card != nil {
		for _, part := range card.AllParts {
			if part.Component == "token" {
				tokens = append(tokens, part.Name)
			}
		}
	}

	if c.cache != nil {
		if err := c.cache.StoreTokens(ctx, cardName, tokens); err != nil {
			c.log(ctx, cardName, "token cache write failed", err)
		}
	}
	return tokens, nil
}

// namedCard fetches a card by exact name, retrying transient failures with
// exponential backoff. A 404 returns nil without error.
func (c *Client) namedCard(ctx context.Context, cardName string) (*namedCardResponse, error) {
	endpoint := fmt.Sprintf("%s/cards/named?exact=%s", c.baseURL, url.QueryEscape(cardName))

	var card *namedCardResponse
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(250*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			card = nil
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("scryfall returned %d", resp.StatusCode))
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("scryfall returned %d", resp.StatusCode)
		}

		var decoded namedCardResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return fmt.Errorf("decoding scryfall response: %w", err)
		}
		card = &decoded
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scryfall lookup failed").
			WithDetails(map[string]any{"card": cardName})
	}
	return card, nil
}

func (c *Client) log(ctx context.Context, cardName, msg string, err error) {
	if c.logger == nil {
		return
	}
	wctx := c.logger.WithCard(ctx, cardName)
	wctx = c.logger.WithField(wctx, "error", err.Error())
	c.logger.Warn(wctx, msg)
}
