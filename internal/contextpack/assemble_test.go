package contextpack

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agent-brain/internal/brain"
	"github.com/rcliao/agent-brain/internal/model"
)

var errUnreachable = errors.New("connection refused")

// fakeProvider records calls and returns canned responses.
type fakeProvider struct {
	brainDoc  *model.BrainDocument
	brainErr  error
	search    *model.SearchResponse
	searchErr error
	items     []model.MemoryItem
	listErr   error

	brainCalls  []brain.BrainOptions
	searchCalls []brain.SearchOptions
	listCalls   []brain.ListOptions
}

func (f *fakeProvider) GetBrain(_ context.Context, opts brain.BrainOptions) (*model.BrainDocument, error) {
	f.brainCalls = append(f.brainCalls, opts)
	if f.brainErr != nil {
		return nil, f.brainErr
	}
	doc := *f.brainDoc
	return &doc, nil
}

func (f *fakeProvider) Search(_ context.Context, _ string, opts brain.SearchOptions) (*model.SearchResponse, error) {
	f.searchCalls = append(f.searchCalls, opts)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.search, nil
}

func (f *fakeProvider) ListItems(_ context.Context, opts brain.ListOptions) ([]model.MemoryItem, error) {
	f.listCalls = append(f.listCalls, opts)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.items, nil
}

func result(title, key string, sim float64, facts string) model.SearchResult {
	return model.SearchResult{
		MemoryItem: model.MemoryItem{Title: title, SchemaKey: key, Confidence: 0.8, Type: "note", Facts: facts},
		Similarity: sim,
	}
}

func remainingFor(task string, scope model.Scope, budget int) int {
	return max(0, budget-EstimateTokens(renderHeader(task, scope, budget))-FooterReserve)
}

func TestRelevantGroupsBySchemaPrefix(t *testing.T) {
	a := result("a", "root/security/a", 0.9, "fact a")
	b := result("b", "root/security/b", 0.8, "fact b")
	c := result("c", "root/bugs/c", 0.7, "fact c")
	p := &fakeProvider{
		brainDoc: &model.BrainDocument{Document: "# Brain"},
		search:   &model.SearchResponse{Results: []model.SearchResult{a, b, c}, TotalCandidates: 3},
	}

	doc := NewAssembler(p).Assemble(context.Background(), Request{Task: "t", Scope: model.ScopeRelevant, TokenBudget: 4000})

	want := []string{
		"## Security\n\n", FormatResult(a), FormatResult(b),
		"## Bugs\n\n", FormatResult(c),
	}
	if diff := cmp.Diff(want, doc.Sections); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, doc.ItemCount)

	out := doc.String()
	assert.Less(t, strings.Index(out, "## Security"), strings.Index(out, "## Bugs"))
	require.Len(t, p.searchCalls, 1)
	assert.Equal(t, brain.SearchOptions{Limit: 15, MinSimilarity: 0.6}, p.searchCalls[0])
}

func TestRelevantIncludesBrief(t *testing.T) {
	p := &fakeProvider{
		brainDoc: &model.BrainDocument{Document: "# Brain", Summary: "Go service for billing."},
		search:   &model.SearchResponse{Results: []model.SearchResult{result("a", "root/x/a", 0.9, "f")}},
	}

	doc := NewAssembler(p).Assemble(context.Background(), Request{Task: "t", TokenBudget: 4000})

	require.NotEmpty(t, doc.Sections)
	assert.Equal(t, "## Project Brief\n\nGo service for billing.\n\n", doc.Sections[0])
	assert.Equal(t, brain.BrainOptions{TokenBudget: BriefBudget}, p.brainCalls[0])
	assert.Contains(t, doc.Header, "> Scope: relevant | Budget: ~4000 tokens")
}

func TestRelevantEmptySearchFallsBackToReducedBrain(t *testing.T) {
	p := &fakeProvider{
		brainDoc: &model.BrainDocument{Document: "# Brain\n\nreduced body", Summary: "Auth service.", ItemsLoaded: 20},
		search:   &model.SearchResponse{Results: []model.SearchResult{}, TotalCandidates: 0},
	}

	doc := NewAssembler(p).Assemble(context.Background(), Request{Task: "implement auth", Scope: model.ScopeRelevant, TokenBudget: 2000})

	want := []string{
		"## Project Brief\n\nAuth service.\n\n",
		"# Brain\n\nreduced body\n\n",
	}
	if diff := cmp.Diff(want, doc.Sections); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, doc.Footer, "no semantic matches")

	require.Len(t, p.brainCalls, 2)
	remaining := remainingFor("implement auth", model.ScopeRelevant, 2000)
	assert.Equal(t, brain.BrainOptions{Limit: ReducedBrainLimit, TokenBudget: remaining}, p.brainCalls[1])
}

func TestRelevantSearchFailureFallsBackToFull(t *testing.T) {
	brainDoc := &model.BrainDocument{
		Document:    "# Brain\n\nall the things",
		ItemsLoaded: 7,
		Layers:      &model.Layers{Layer1: 2, Layer2: 4, Archived: 1},
	}
	ctx := context.Background()

	failing := &fakeProvider{brainDoc: brainDoc, searchErr: errUnreachable}
	got := NewAssembler(failing).Assemble(ctx, Request{Task: "t", Scope: model.ScopeRelevant, TokenBudget: 1000})

	full := NewAssembler(&fakeProvider{brainDoc: brainDoc}).Assemble(ctx, Request{Task: "t", Scope: model.ScopeFull, TokenBudget: 1000})

	if diff := cmp.Diff(full.Sections, got.Sections); diff != "" {
		t.Errorf("fallback body differs from full scope (-full +fallback):\n%s", diff)
	}
	assert.Contains(t, got.Footer, "fallback: search unavailable")
	assert.Contains(t, got.Footer, "_7 items (L1: 2, L2: 4, archived: 1)")
	assert.NotContains(t, full.Footer, "fallback")

	remaining := remainingFor("t", model.ScopeRelevant, 1000)
	assert.Equal(t, brain.BrainOptions{TokenBudget: remaining}, failing.brainCalls[1])
}

func TestRelevantEverythingFails(t *testing.T) {
	p := &fakeProvider{brainErr: errUnreachable, searchErr: errUnreachable}

	doc := NewAssembler(p).Assemble(context.Background(), Request{Task: "t", TokenBudget: 1000})

	assert.Equal(t, []string{UnavailableMarker}, doc.Sections)
	assert.True(t, strings.HasPrefix(doc.String(), "# Context Pack\n"))
	assert.True(t, strings.HasSuffix(doc.String(), " tokens_\n"))
}

func TestRelevantHaltsAtFirstOverflow(t *testing.T) {
	a := result("a", "root/security/a", 0.9, "short")
	b := result("b", "root/security/b", 0.8, strings.Repeat("long ", 400))
	c := result("c", "root/bugs/c", 0.7, "short")
	p := &fakeProvider{
		brainErr: errUnreachable,
		search:   &model.SearchResponse{Results: []model.SearchResult{a, b, c}},
	}

	header := renderHeader("t", model.ScopeRelevant, 0)
	budget := EstimateTokens(header + "## Security\n\n" + FormatResult(a) + "## Bugs\n\n" + FormatResult(c))
	// the header embeds the budget, so give it a little slack
	budget += 5

	doc := NewAssembler(p).Assemble(context.Background(), Request{Task: "t", TokenBudget: budget})

	assert.Equal(t, []string{"## Security\n\n", FormatResult(a)}, doc.Sections)
	assert.Equal(t, 1, doc.ItemCount)
}

func TestRelevantHeaderOverflowHaltsCascade(t *testing.T) {
	a := result("a", "root/security/a", 0.9, "short")
	p := &fakeProvider{
		brainErr: errUnreachable,
		search:   &model.SearchResponse{Results: []model.SearchResult{a}},
	}

	doc := NewAssembler(p).Assemble(context.Background(), Request{Task: "t", TokenBudget: 10})

	assert.Empty(t, doc.Sections)
	assert.Equal(t, 0, doc.ItemCount)
	assert.Contains(t, doc.Footer, "_0 items | ~")
}

func TestFullTruncatesOversizeDocument(t *testing.T) {
	body := strings.Repeat("0123456789", 1000)
	p := &fakeProvider{brainDoc: &model.BrainDocument{Document: body, ItemsLoaded: 50}}

	doc := NewAssembler(p).Assemble(context.Background(), Request{Task: "t", Scope: model.ScopeFull, TokenBudget: 300})

	remaining := remainingFor("t", model.ScopeFull, 300)
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, body[:remaining*4]+TruncationMarker, doc.Sections[0])
	assert.Equal(t, brain.BrainOptions{TokenBudget: remaining}, p.brainCalls[0])
	assert.LessOrEqual(t, doc.TokenEstimate, 300)
}

func TestFullIncludesFittingDocumentVerbatim(t *testing.T) {
	p := &fakeProvider{brainDoc: &model.BrainDocument{Document: "# Brain\n\nsmall", ItemsLoaded: 2}}

	doc := NewAssembler(p).Assemble(context.Background(), Request{Task: "t", Scope: model.ScopeFull, TokenBudget: 300})

	assert.Equal(t, []string{"# Brain\n\nsmall\n\n"}, doc.Sections)
	assert.Equal(t, 2, doc.ItemCount)
	assert.NotContains(t, doc.String(), "truncated")
}

func TestFullBrainFailure(t *testing.T) {
	p := &fakeProvider{brainErr: errUnreachable}

	doc := NewAssembler(p).Assemble(context.Background(), Request{Task: "t", Scope: model.ScopeFull, TokenBudget: 300})

	assert.Equal(t, []string{UnavailableMarker}, doc.Sections)
	assert.Empty(t, p.searchCalls)
}

func TestFullEmptyBrain(t *testing.T) {
	p := &fakeProvider{brainDoc: &model.BrainDocument{Document: "  \n"}}

	doc := NewAssembler(p).Assemble(context.Background(), Request{Task: "t", Scope: model.ScopeFull, TokenBudget: 300})

	assert.Equal(t, []string{EmptyMarker}, doc.Sections)
}

func TestFullTinyBudgetTruncatesToNothing(t *testing.T) {
	p := &fakeProvider{brainDoc: &model.BrainDocument{Document: "some brain"}}

	doc := NewAssembler(p).Assemble(context.Background(), Request{Task: "t", Scope: model.ScopeFull, TokenBudget: 1})

	assert.Equal(t, []string{TruncationMarker}, doc.Sections)
	assert.Equal(t, brain.BrainOptions{TokenBudget: 0}, p.brainCalls[0])
}

func TestMinimalEmpty(t *testing.T) {
	p := &fakeProvider{items: nil}

	doc := NewAssembler(p).Assemble(context.Background(), Request{Task: "t", Scope: model.ScopeMinimal, TokenBudget: 1000})

	out := doc.String()
	assert.Contains(t, out, "_No memory items yet._")
	assert.NotContains(t, out, "### ")
	assert.Equal(t, []brain.ListOptions{{Limit: 5}}, p.listCalls)
	assert.Empty(t, p.brainCalls)
	assert.Empty(t, p.searchCalls)
}

func TestMinimalPacksItems(t *testing.T) {
	items := []model.MemoryItem{
		{Title: "one", Facts: "first", Confidence: 0.9},
		{Title: "two", Facts: "second", Confidence: 0.8},
	}
	p := &fakeProvider{items: items}

	doc := NewAssembler(p).Assemble(context.Background(), Request{Task: "t", Scope: model.ScopeMinimal, TokenBudget: 1000})

	assert.Equal(t, []string{FormatItem(items[0]), FormatItem(items[1])}, doc.Sections)
	assert.Contains(t, doc.Footer, "_2 items | ~")
}

func TestMinimalListFailure(t *testing.T) {
	p := &fakeProvider{listErr: errUnreachable}

	doc := NewAssembler(p).Assemble(context.Background(), Request{Task: "t", Scope: model.ScopeMinimal, TokenBudget: 1000})

	assert.Equal(t, []string{UnavailableMarker}, doc.Sections)
}

func TestFooterEstimateCoversWholeDocument(t *testing.T) {
	p := &fakeProvider{brainDoc: &model.BrainDocument{
		Document:    "# Brain\n\nbody",
		ItemsLoaded: 3,
		Layers:      &model.Layers{Layer1: 1, Layer2: 1, Archived: 1},
	}}

	doc := NewAssembler(p).Assemble(context.Background(), Request{Task: "t", Scope: model.ScopeFull, TokenBudget: 500})

	body := strings.TrimSuffix(doc.String(), doc.Footer)
	tokens := EstimateTokens(body)
	assert.Equal(t, tokens, doc.TokenEstimate)
	assert.Equal(t, fmt.Sprintf("---\n_3 items (L1: 1, L2: 1, archived: 1) | ~%d tokens_\n", tokens), doc.Footer)
}

func TestTaskIsInterpolatedVerbatim(t *testing.T) {
	p := &fakeProvider{items: nil}
	task := "fix **bold** [link](x)"

	doc := NewAssembler(p).Assemble(context.Background(), Request{Task: task, Scope: model.ScopeMinimal, TokenBudget: 100})

	assert.Contains(t, doc.Header, "> Task: "+task+"\n")
}

func TestDefaultScopeIsRelevant(t *testing.T) {
	p := &fakeProvider{brainErr: errUnreachable, search: &model.SearchResponse{}}

	doc := NewAssembler(p).Assemble(context.Background(), Request{Task: "t", TokenBudget: 100})

	assert.Contains(t, doc.Header, "Scope: relevant")
	assert.Len(t, p.searchCalls, 1)
}

func manyResults() []model.SearchResult {
	keys := []string{"root/security/a", "root/bugs/b", "root/security/c", "root/perf/d", "root/bugs/e", "root/perf/f"}
	var results []model.SearchResult
	for i, k := range keys {
		results = append(results, result(fmt.Sprintf("item %d", i), k, 0.9-float64(i)*0.05, strings.Repeat("fact ", 10+i*15)))
	}
	return results
}

func countBody(sections []string) int {
	n := 0
	for _, s := range sections {
		if strings.HasPrefix(s, "### ") || strings.HasPrefix(s, "## ") {
			n++
		}
	}
	return n
}

func TestBodySectionsMonotonicInBudget(t *testing.T) {
	p := &fakeProvider{brainErr: errUnreachable, search: &model.SearchResponse{Results: manyResults()}}
	a := NewAssembler(p)

	prev := 0
	for budget := 1; budget <= 1500; budget += 7 {
		doc := a.Assemble(context.Background(), Request{Task: "monotonic", TokenBudget: budget})
		n := countBody(doc.Sections)
		if n < prev {
			t.Fatalf("budget %d: %d body sections, fewer than %d at a smaller budget", budget, n, prev)
		}
		prev = n
	}
	assert.Equal(t, 9, prev, "largest budget should include all headers and items")
}

func TestSectionsAreAtomicAndWithinBudget(t *testing.T) {
	results := manyResults()
	candidates := map[string]bool{}
	for _, r := range results {
		candidates[FormatResult(r)] = true
		candidates[groupHeader(groupKey(r.SchemaKey))] = true
	}

	p := &fakeProvider{brainErr: errUnreachable, search: &model.SearchResponse{Results: results}}
	a := NewAssembler(p)

	for budget := 30; budget <= 1500; budget += 11 {
		doc := a.Assemble(context.Background(), Request{Task: "atomic", TokenBudget: budget})
		for _, s := range doc.Sections {
			if !candidates[s] {
				t.Fatalf("budget %d: section is not a whole candidate: %q", budget, s)
			}
		}
		if EstimateTokens(doc.Header) <= budget && doc.TokenEstimate > budget {
			t.Fatalf("budget %d: body pushed estimate to %d", budget, doc.TokenEstimate)
		}
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	newProvider := func() *fakeProvider {
		return &fakeProvider{
			brainDoc: &model.BrainDocument{Document: "# Brain", Summary: "brief"},
			search:   &model.SearchResponse{Results: manyResults()},
		}
	}
	req := Request{Task: "same", TokenBudget: 600}

	first := NewAssembler(newProvider()).Assemble(context.Background(), req).String()
	second := NewAssembler(newProvider()).Assemble(context.Background(), req).String()
	assert.Equal(t, first, second)
}
