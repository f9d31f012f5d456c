package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rcliao/agent-brain/internal/model"
)

// APIError is a non-2xx response from the brain service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("brain api error %d: %s", e.StatusCode, e.Body)
}

// Client talks to the remote brain service.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// --- wire types ---

type wireLayers struct {
	Layer1   int `json:"layer1"`
	Layer2   int `json:"layer2"`
	Archived int `json:"archived"`
}

type wireBrain struct {
	Document      *string     `json:"document"`
	Summary       string      `json:"summary"`
	ItemsLoaded   int         `json:"items_loaded"`
	TokenEstimate int         `json:"token_estimate"`
	BrainHash     string      `json:"brain_hash"`
	Layers        *wireLayers `json:"layers"`
}

type wireItem struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Type       string   `json:"type"`
	Facts      string   `json:"facts"`
	SchemaKey  string   `json:"schema_key"`
	Confidence float64  `json:"confidence"`
	Files      []string `json:"files"`
	Importance *float64 `json:"importance"`
	Similarity float64  `json:"similarity"`
}

type wireSearchRequest struct {
	Query         string  `json:"query"`
	Limit         int     `json:"limit"`
	MinSimilarity float64 `json:"min_similarity"`
}

type wireSearch struct {
	Results         []wireItem `json:"results"`
	TotalCandidates int        `json:"total_candidates"`
}

type wireItems struct {
	Items []wireItem `json:"items"`
}

// GetBrain fetches the brain document.
func (c *Client) GetBrain(ctx context.Context, opts BrainOptions) (*model.BrainDocument, error) {
	q := url.Values{}
	if opts.TokenBudget > 0 {
		q.Set("token_budget", strconv.Itoa(opts.TokenBudget))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	var w wireBrain
	if err := c.do(ctx, http.MethodGet, "/v1/brain", q, nil, &w); err != nil {
		return nil, fmt.Errorf("get brain: %w", err)
	}
	if w.Document == nil {
		return nil, errors.New("get brain: response has no document")
	}

	doc := &model.BrainDocument{
		Document:      *w.Document,
		Summary:       strings.TrimSpace(w.Summary),
		ItemsLoaded:   max(w.ItemsLoaded, 0),
		TokenEstimate: max(w.TokenEstimate, 0),
		BrainHash:     w.BrainHash,
	}
	if w.Layers != nil {
		doc.Layers = &model.Layers{
			Layer1:   max(w.Layers.Layer1, 0),
			Layer2:   max(w.Layers.Layer2, 0),
			Archived: max(w.Layers.Archived, 0),
		}
	}
	return doc, nil
}

// Search runs a semantic search on the service.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) (*model.SearchResponse, error) {
	body := wireSearchRequest{Query: query, Limit: opts.Limit, MinSimilarity: opts.MinSimilarity}

	var w wireSearch
	if err := c.do(ctx, http.MethodPost, "/v1/search", nil, body, &w); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	resp := &model.SearchResponse{
		Results:         make([]model.SearchResult, 0, len(w.Results)),
		TotalCandidates: max(w.TotalCandidates, len(w.Results)),
	}
	for _, r := range w.Results {
		resp.Results = append(resp.Results, model.SearchResult{
			MemoryItem: toItem(r),
			Similarity: model.Clamp01(r.Similarity),
		})
	}
	return resp, nil
}

// ListItems lists the top memory items.
func (c *Client) ListItems(ctx context.Context, opts ListOptions) ([]model.MemoryItem, error) {
	q := url.Values{}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	var w wireItems
	if err := c.do(ctx, http.MethodGet, "/v1/items", q, nil, &w); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	items := make([]model.MemoryItem, 0, len(w.Items))
	for _, it := range w.Items {
		items = append(items, toItem(it))
	}
	return items, nil
}

func toItem(w wireItem) model.MemoryItem {
	title := strings.TrimSpace(w.Title)
	if title == "" {
		title = "(untitled)"
	}
	it := model.MemoryItem{
		ID:         w.ID,
		Title:      title,
		Type:       w.Type,
		Facts:      w.Facts,
		SchemaKey:  strings.Trim(w.SchemaKey, "/"),
		Confidence: model.Clamp01(w.Confidence),
		Files:      w.Files,
	}
	if w.Importance != nil {
		v := model.Clamp01(*w.Importance)
		it.Importance = &v
	}
	return it
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug("brain request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
