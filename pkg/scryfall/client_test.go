package scryfall

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/netdecker/netdecker-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cache Cache) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.ScryfallConfig{BaseURL: srv.URL, MaxRetries: 2}, cache, nil)
}

func TestTokensExtractsTokenParts(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cards/named", r.URL.Path)
		assert.Equal(t, "Young Pyromancer", r.URL.Query().Get("exact"))
		w.Write([]byte(`{
			"name": "Young Pyromancer",
			"all_parts": [
				{"component": "combo_piece", "name": "Young Pyromancer"},
				{"component": "token", "name": "Elemental Token"}
			]
		}`))
	}, nil)

	tokens, err := client.Tokens(context.Background(), "Young Pyromancer")
	require.NoError(t, err)
	assert.Equal(t, []string{"Elemental Token"}, tokens)
}

func TestTokensUnknownCardIsEmpty(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, nil)

	tokens, err := client.Tokens(context.Background(), "Not A Card")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestTokensRetriesServerErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"name": "Island"}`))
	}, nil)

	tokens, err := client.Tokens(context.Background(), "Island")
	require.NoError(t, err)
	assert.Empty(t, tokens)
	assert.Equal(t, 2, calls)
}

func TestTokensGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}, nil)

	_, err := client.Tokens(context.Background(), "Island")
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

type memoryCache struct {
	data map[string][]string
}

func (m *memoryCache) GetTokens(_ context.Context, cardName string) ([]string, bool, error) {
	tokens, ok := m.data[cardName]
	return tokens, ok, nil
}

func (m *memoryCache) StoreTokens(_ context.Context, cardName string, tokens []string) error {
	m.data[cardName] = tokens
	return nil
}

func TestTokensUsesCache(t *testing.T) {
	t.Parallel()

	calls := 0
	cache := &memoryCache{data: map[string][]string{}}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{
			"name": "Smothering Tithe",
			"all_parts": [{"component": "token", "name": "Treasure Token"}]
		}`))
	}, cache)

	for i := 0; i < 3; i++ {
		tokens, err := client.Tokens(context.Background(), "Smothering Tithe")
		require.NoError(t, err)
		assert.Equal(t, []string{"Treasure Token"}, tokens)
	}
	assert.Equal(t, 1, calls)
}
