// Package rag implements the query engine: embed the question, retrieve
// scoped hits from the vector index, hydrate and assemble context under a
// character budget, call the LLM with a grounded prompt, and persist the
// resulting Query. The source list is determined by retrieval, never
// parsed back out of the model's answer.
package rag

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spacevault/ragcore/internal/model"
	"github.com/spacevault/ragcore/internal/ragerr"
	"github.com/spacevault/ragcore/internal/vectorindex"
)

const (
	// DefaultRetrieveK is how many sources a query retrieves.
	DefaultRetrieveK = 5
	minRetrieveK     = 1
	maxRetrieveK     = 20

	// DefaultSnippetChars caps each item's contribution to the context.
	DefaultSnippetChars = 1500
	// DefaultContextBudgetChars is the assembled-context character budget.
	DefaultContextBudgetChars = 8000
	// DisplaySnippetChars is the persisted-source snippet length.
	DisplaySnippetChars = 240

	maxQuestionChars = 2000
)

const groundedInstruction = "Answer only from the provided sources. " +
	"If the sources are insufficient to answer, say so explicitly. " +
	"Cite source indices (e.g. [source 2]) when you rely on a specific one."

// Store is the subset of spacestore.Store the query engine depends on.
type Store interface {
	GetItem(id string) (*model.Item, error)
	ListItems(spaceID string, status *model.Status) ([]*model.Item, error)
	InsertQuery(spaceID, question, answer string, sources []model.QuerySource) (*model.Query, error)
	ListQueries(spaceID string, limit, offset int) ([]*model.Query, error)
}

// VectorIndex is the subset of vectorindex.Index the query engine depends
// on.
type VectorIndex interface {
	Search(queryVector []float32, spaceID string, k int) ([]vectorindex.Hit, error)
	GlobalSearch(queryVector []float32, k int) ([]vectorindex.Hit, error)
}

// Embedder is the single-text embedding seam the query engine depends on.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// LLM is the grounded-completion seam the query engine depends on, kept
// narrow so tests can fake the model.
type LLM interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Engine answers questions against a space and serves similarity search.
type Engine struct {
	store    Store
	index    VectorIndex
	embedder Embedder
	llm      LLM

	retrieveK     int
	snippetChars  int
	contextBudget int
}

// Option configures an Engine's retrieval tuning away from its defaults.
type Option func(*Engine)

// WithRetrieveK overrides DefaultRetrieveK, clamped to [1, 20].
func WithRetrieveK(k int) Option {
	return func(e *Engine) { e.retrieveK = clampK(k) }
}

// WithContextBudget overrides DefaultContextBudgetChars.
func WithContextBudget(chars int) Option {
	return func(e *Engine) {
		if chars > 0 {
			e.contextBudget = chars
		}
	}
}

// New builds an Engine over its collaborators.
func New(store Store, index VectorIndex, embedder Embedder, llm LLM, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		index:         index,
		embedder:      embedder,
		llm:           llm,
		retrieveK:     DefaultRetrieveK,
		snippetChars:  DefaultSnippetChars,
		contextBudget: DefaultContextBudgetChars,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ItemHit pairs a hydrated Item with its retrieval score.
type ItemHit struct {
	Item  *model.Item
	Score float32
}

// GlobalItemHit is an ItemHit plus the owning space, for global_search.
type GlobalItemHit struct {
	Item    *model.Item
	SpaceID string
	Score   float32
}

// Query runs the full RAG pipeline for one question against spaceID and
// persists the resulting Query record. k<=0 uses the engine's retrieve K
// (DefaultRetrieveK unless WithRetrieveK set another); any k is clamped to
// [1, 20].
func (e *Engine) Query(ctx context.Context, spaceID, question string, k int) (*model.Query, error) {
	if question == "" || utf8.RuneCountInString(question) > maxQuestionChars {
		return nil, ragerr.New("Query", ragerr.KindInvalidInput, fmt.Errorf("question must be 1-%d chars", maxQuestionChars))
	}
	if k <= 0 {
		k = e.retrieveK
	}
	k = clampK(k)

	ready, err := e.store.ListItems(spaceID, statusPtr(model.StatusReady))
	if err != nil {
		return nil, err
	}
	if len(ready) == 0 {
		return nil, ragerr.New("Query", ragerr.KindNotFound, fmt.Errorf("space %q has no ready items", spaceID))
	}

	if err := checkDeadline(ctx); err != nil {
		return nil, err
	}
	qVec, err := e.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, wrapDeadline(ctx, err)
	}

	if err := checkDeadline(ctx); err != nil {
		return nil, err
	}
	hits, err := e.index.Search(qVec, spaceID, k)
	if err != nil {
		return nil, err
	}

	contextBlock, sources := e.assembleContext(hits)

	if err := checkDeadline(ctx); err != nil {
		return nil, err
	}
	userMsg := fmt.Sprintf("Sources:\n%s\n\nQuestion: %s", contextBlock, question)
	answer, err := e.llm.Complete(ctx, groundedInstruction, userMsg)
	if err != nil {
		return nil, wrapDeadline(ctx, err)
	}

	if err := checkDeadline(ctx); err != nil {
		return nil, err
	}
	return e.store.InsertQuery(spaceID, question, answer, sources)
}

// assembleContext walks hits in score order, hydrating each against the
// metadata store and appending labeled "[source i] <snippet>" blocks until
// the character budget would be exceeded. Hits whose item was concurrently
// deleted are silently dropped, not treated as an error. The returned
// sources slice is exactly the set of blocks that made it into
// contextBlock, in the same order.
func (e *Engine) assembleContext(hits []vectorindex.Hit) (contextBlock string, sources []model.QuerySource) {
	var b strings.Builder
	used := 0

	for _, hit := range hits {
		item, err := e.store.GetItem(hit.ItemID)
		if err != nil {
			continue
		}

		snippet := trimToWhitespaceBoundary(item.Text, e.snippetChars)
		block := fmt.Sprintf("[source %d] %s", len(sources)+1, snippet)

		separator := 0
		if used > 0 {
			separator = 1
		}
		if used+separator+len(block) > e.contextBudget {
			break
		}

		if used > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block)
		used += separator + len(block)

		sources = append(sources, model.QuerySource{
			ItemID:  item.ID,
			Kind:    item.Kind,
			Snippet: truncate(snippet, DisplaySnippetChars),
			Score:   hit.Score,
		})
	}

	return b.String(), sources
}

// SearchInSpace runs a scoped similarity search and hydrates the hits,
// without the LLM step.
func (e *Engine) SearchInSpace(ctx context.Context, spaceID, text string, k int) ([]ItemHit, error) {
	if text == "" {
		return nil, ragerr.New("SearchInSpace", ragerr.KindInvalidInput, fmt.Errorf("search text must not be empty"))
	}
	k = clampK(k)

	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, wrapDeadline(ctx, err)
	}
	hits, err := e.index.Search(vec, spaceID, k)
	if err != nil {
		return nil, err
	}
	return e.hydrate(hits), nil
}

// GlobalSearch runs an unscoped similarity search across every space the
// engine's vector index owns (the index is already per-user) and hydrates
// the hits with their owning space id.
func (e *Engine) GlobalSearch(ctx context.Context, text string, k int) ([]GlobalItemHit, error) {
	if text == "" {
		return nil, ragerr.New("GlobalSearch", ragerr.KindInvalidInput, fmt.Errorf("search text must not be empty"))
	}
	k = clampK(k)

	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, wrapDeadline(ctx, err)
	}
	hits, err := e.index.GlobalSearch(vec, k)
	if err != nil {
		return nil, err
	}

	out := make([]GlobalItemHit, 0, len(hits))
	for _, h := range hits {
		item, err := e.store.GetItem(h.ItemID)
		if err != nil {
			continue
		}
		out = append(out, GlobalItemHit{Item: item, SpaceID: item.SpaceID, Score: h.Score})
	}
	return out, nil
}

func (e *Engine) hydrate(hits []vectorindex.Hit) []ItemHit {
	out := make([]ItemHit, 0, len(hits))
	for _, h := range hits {
		item, err := e.store.GetItem(h.ItemID)
		if err != nil {
			continue
		}
		out = append(out, ItemHit{Item: item, Score: h.Score})
	}
	return out
}

// ListQueries returns a page of a space's query history, newest first.
func (e *Engine) ListQueries(spaceID string, limit, offset int) ([]*model.Query, error) {
	return e.store.ListQueries(spaceID, limit, offset)
}

func clampK(k int) int {
	if k == 0 {
		return DefaultRetrieveK
	}
	if k < minRetrieveK {
		return minRetrieveK
	}
	if k > maxRetrieveK {
		return maxRetrieveK
	}
	return k
}

func statusPtr(s model.Status) *model.Status { return &s }

// checkDeadline reports ctx's cancellation as KindDeadlineExceeded. It is
// called before each blocking step so an expired deadline stops the
// pipeline without persisting a partial Query.
func checkDeadline(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return ragerr.New("Query", ragerr.KindDeadlineExceeded, err)
	}
	return nil
}

func wrapDeadline(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ragerr.New("Query", ragerr.KindDeadlineExceeded, ctx.Err())
	}
	return err
}

// trimToWhitespaceBoundary returns the first max characters of s, trimmed
// back to the nearest preceding whitespace so a snippet does not split a
// word mid-token. If that span holds no whitespace, it is cut at max
// characters as is.
func trimToWhitespaceBoundary(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	cut := max
	for cut > 0 && !unicode.IsSpace(runes[cut]) {
		cut--
	}
	if cut == 0 {
		cut = max
	}
	return strings.TrimSpace(string(runes[:cut]))
}

// truncate returns the first max characters of s.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
