package contextpack

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/rcliao/agent-brain/internal/brain"
	"github.com/rcliao/agent-brain/internal/model"
)

const (
	SearchLimit         = 15
	MinSimilarity       = 0.6
	MinimalLimit        = 5
	ReducedBrainLimit   = 20
	BriefBudget         = 200
	FooterReserve       = 30
	DefaultTokenBudget  = 4000
	EmptyMarker         = "_No memory items yet._\n\n"
	UnavailableMarker   = "_Memory brain unavailable. Try again later._\n\n"
	TruncationMarker    = "\n\n_[truncated to fit token budget]_\n\n"
	NoteSearchFallback  = "fallback: search unavailable"
	NoteNoSemanticMatch = "no semantic matches"
)

// Request describes one context pack. TokenBudget must be positive.
type Request struct {
	Task        string
	Scope       model.Scope
	TokenBudget int
}

// Document is an assembled context pack.
type Document struct {
	Header        string
	Sections      []string
	Footer        string
	ItemCount     int
	Layers        *model.Layers
	Note          string
	TokenEstimate int
}

// String renders the full markdown document.
func (d *Document) String() string {
	var b strings.Builder
	b.WriteString(d.Header)
	for _, s := range d.Sections {
		b.WriteString(s)
	}
	b.WriteString(d.Footer)
	return b.String()
}

// Assembler builds context packs from a memory provider. It keeps no
// per-request state and is safe for concurrent use if the provider is.
type Assembler struct {
	provider brain.Provider
	log      *zap.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger used to report degraded tiers.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assembler) { a.log = l }
}

// NewAssembler creates an Assembler over p.
func NewAssembler(p brain.Provider, opts ...Option) *Assembler {
	a := &Assembler{provider: p, log: zap.NewNop()}
	for _, o := range opts {
		o(a)
	}
	return a
}

// run holds the state of a single assembly.
type run struct {
	acc    Accumulator
	items  int
	layers *model.Layers
	note   string
}

// Assemble builds a context pack. Provider failures degrade the output
// but never surface as errors.
func (a *Assembler) Assemble(ctx context.Context, req Request) *Document {
	scope := req.Scope
	if scope == "" {
		scope = model.ScopeRelevant
	}

	header := renderHeader(req.Task, scope, req.TokenBudget)
	remaining := max(0, req.TokenBudget-EstimateTokens(header)-FooterReserve)

	r := &run{}
	r.acc.Append(header)

	log := a.log.With(zap.String("scope", string(scope)), zap.Int("budget", req.TokenBudget))

	switch scope {
	case model.ScopeFull:
		a.brainBody(ctx, r, log, brain.BrainOptions{TokenBudget: remaining}, remaining)
	case model.ScopeMinimal:
		a.minimal(ctx, r, log, req.TokenBudget)
	default:
		a.relevant(ctx, r, log, req, remaining)
	}

	sections := r.acc.Sections()
	tokens := r.acc.Tokens()
	doc := &Document{
		Header:        header,
		Sections:      sections[1:],
		Footer:        renderFooter(r.items, r.layers, r.note, tokens),
		ItemCount:     r.items,
		Layers:        r.layers,
		Note:          r.note,
		TokenEstimate: tokens,
	}
	log.Debug("context pack assembled",
		zap.Int("sections", len(doc.Sections)),
		zap.Int("items", doc.ItemCount),
		zap.Int("tokens", tokens))
	return doc
}

// brainBody fetches the brain and appends it, truncated locally to
// remaining tokens whatever the provider promised.
func (a *Assembler) brainBody(ctx context.Context, r *run, log *zap.Logger, opts brain.BrainOptions, remaining int) {
	doc, err := a.provider.GetBrain(ctx, opts)
	if err != nil {
		log.Warn("brain fetch failed", zap.Error(err))
		r.acc.Append(UnavailableMarker)
		return
	}

	r.items = doc.ItemsLoaded
	r.layers = doc.Layers

	if strings.TrimSpace(doc.Document) == "" {
		r.acc.Append(EmptyMarker)
		return
	}

	limit := remaining * CharsPerToken
	if utf8.RuneCountInString(doc.Document) <= limit {
		r.acc.Append(doc.Document + "\n\n")
		return
	}
	log.Debug("brain document truncated", zap.Int("chars", limit))
	r.acc.Append(truncateChars(doc.Document, limit) + TruncationMarker)
}

func (a *Assembler) minimal(ctx context.Context, r *run, log *zap.Logger, budget int) {
	items, err := a.provider.ListItems(ctx, brain.ListOptions{Limit: MinimalLimit})
	if err != nil {
		log.Warn("list items failed", zap.Error(err))
		r.acc.Append(UnavailableMarker)
		return
	}
	if len(items) == 0 {
		r.acc.Append(EmptyMarker)
		return
	}

	candidates := make([]string, len(items))
	for i, it := range items {
		candidates[i] = FormatItem(it)
	}
	r.items = r.acc.Pack(candidates, budget)
}

func (a *Assembler) relevant(ctx context.Context, r *run, log *zap.Logger, req Request, remaining int) {
	if doc, err := a.provider.GetBrain(ctx, brain.BrainOptions{TokenBudget: BriefBudget}); err != nil {
		log.Debug("brief fetch failed", zap.Error(err))
	} else if summary := strings.TrimSpace(doc.Summary); summary != "" {
		r.acc.Append("## Project Brief\n\n" + summary + "\n\n")
	}

	resp, err := a.provider.Search(ctx, req.Task, brain.SearchOptions{
		Limit:         SearchLimit,
		MinSimilarity: MinSimilarity,
	})
	if err != nil {
		log.Warn("search failed, falling back to full brain", zap.Error(err))
		r.note = NoteSearchFallback
		a.brainBody(ctx, r, log, brain.BrainOptions{TokenBudget: remaining}, remaining)
		return
	}

	if len(resp.Results) == 0 {
		log.Info("no semantic matches", zap.Int("candidates", resp.TotalCandidates))
		r.note = NoteNoSemanticMatch
		a.brainBody(ctx, r, log, brain.BrainOptions{Limit: ReducedBrainLimit, TokenBudget: remaining}, remaining)
		return
	}

	for _, g := range groupResults(resp.Results) {
		if !r.acc.TryAppend(groupHeader(g.prefix), req.TokenBudget) {
			return
		}
		for _, res := range g.results {
			if !r.acc.TryAppend(FormatResult(res), req.TokenBudget) {
				return
			}
			r.items++
		}
	}
}

type resultGroup struct {
	prefix  string
	results []model.SearchResult
}

// groupResults buckets results by category prefix, keeping the order in
// which each prefix first appears and result order within a bucket.
func groupResults(results []model.SearchResult) []resultGroup {
	var groups []resultGroup
	index := map[string]int{}
	for _, res := range results {
		key := groupKey(res.SchemaKey)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, resultGroup{prefix: key})
		}
		groups[i].results = append(groups[i].results, res)
	}
	return groups
}

func renderHeader(task string, scope model.Scope, budget int) string {
	return fmt.Sprintf("# Context Pack\n\n> Task: %s\n> Scope: %s | Budget: ~%d tokens\n\n", task, scope, budget)
}

func renderFooter(items int, layers *model.Layers, note string, tokens int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "---\n_%d items", items)
	if layers != nil {
		fmt.Fprintf(&b, " (L1: %d, L2: %d, archived: %d)", layers.Layer1, layers.Layer2, layers.Archived)
	}
	if note != "" {
		b.WriteString(" | " + note)
	}
	fmt.Fprintf(&b, " | ~%d tokens_\n", tokens)
	return b.String()
}
