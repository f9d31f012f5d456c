package brain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret", 5*time.Second)
}

func TestGetBrain(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/brain", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "500", r.URL.Query().Get("token_budget"))
		assert.Equal(t, "", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"document":"# Brain","summary":" brief ","items_loaded":3,
			"token_estimate":2,"brain_hash":"abc","layers":{"layer1":1,"layer2":1,"archived":1}}`))
	})

	doc, err := c.GetBrain(context.Background(), BrainOptions{TokenBudget: 500})
	require.NoError(t, err)
	assert.Equal(t, "# Brain", doc.Document)
	assert.Equal(t, "brief", doc.Summary)
	assert.Equal(t, 3, doc.ItemsLoaded)
	require.NotNil(t, doc.Layers)
	assert.Equal(t, 1, doc.Layers.Archived)
}

func TestGetBrainMissingDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"summary":"only a brief"}`))
	})

	_, err := c.GetBrain(context.Background(), BrainOptions{})
	assert.Error(t, err)
}

func TestSearchValidatesResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req wireSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "implement auth", req.Query)
		assert.Equal(t, 15, req.Limit)
		assert.InDelta(t, 0.6, req.MinSimilarity, 1e-9)
		w.Write([]byte(`{"results":[
			{"title":"","schema_key":"/root/security/a/","confidence":1.7,"similarity":1.2,"importance":-1}
		],"total_candidates":0}`))
	})

	resp, err := c.Search(context.Background(), "implement auth", SearchOptions{Limit: 15, MinSimilarity: 0.6})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	r := resp.Results[0]
	assert.Equal(t, "(untitled)", r.Title)
	assert.Equal(t, "root/security/a", r.SchemaKey)
	assert.Equal(t, 1.0, r.Confidence)
	assert.Equal(t, 1.0, r.Similarity)
	require.NotNil(t, r.Importance)
	assert.Equal(t, 0.0, *r.Importance)
	assert.Equal(t, 1, resp.TotalCandidates)
}

func TestListItems(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"items":[{"title":"a","facts":"x"},{"title":"b","facts":"y"}]}`))
	})

	items, err := c.ListItems(context.Background(), ListOptions{Limit: 5})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[1].Title)
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	_, err := c.ListItems(context.Background(), ListOptions{Limit: 5})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "unauthorized", apiErr.Body)
}

func TestMalformedJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":`))
	})

	_, err := c.Search(context.Background(), "q", SearchOptions{Limit: 1})
	assert.Error(t, err)
}
