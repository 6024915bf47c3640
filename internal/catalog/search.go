package catalog

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/partsdesk/partsdesk-backend/pkg/db/models"
	"github.com/partsdesk/partsdesk-backend/pkg/logger"
	"github.com/partsdesk/partsdesk-backend/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const (
	// localScanThreshold is the local hit count above which the remote
	// fallback is skipped entirely.
	localScanThreshold = 20
	// remoteQueryLimit caps each of the three partial-match queries.
	remoteQueryLimit = 30

	defaultSearchLimit     = 50
	defaultSuggestionLimit = 10
)

type searchStore interface {
	FetchCatalogItems(ctx context.Context, q ItemQuery) ([]models.CatalogItem, error)
	FetchCompatibilityAggregation(ctx context.Context, q CompatibilityQuery) ([]models.CatalogItem, error)
	FetchSuggestions(ctx context.Context, term string, limit int) ([]models.CatalogItem, error)
}

// SearchEngine orchestrates the three retrieval paths for a free-text term:
// cross-reference lookup for provider-id-shaped terms, a scan of the cached
// catalog snapshot, and three concurrent remote partial-match queries. Remote
// failures degrade that source to empty rather than surfacing to the caller.
type SearchEngine struct {
	store             searchStore
	snapshot          *Snapshot
	stock             *StockAggregator
	logg              *logger.Logger
	metrics           *metrics.CatalogMetrics
	suggestionTimeout time.Duration
}

func NewSearchEngine(store searchStore, snapshot *Snapshot, stock *StockAggregator, logg *logger.Logger, m *metrics.CatalogMetrics, suggestionTimeout time.Duration) *SearchEngine {
	if suggestionTimeout <= 0 {
		suggestionTimeout = 5 * time.Second
	}
	return &SearchEngine{
		store:             store,
		snapshot:          snapshot,
		stock:             stock,
		logg:              logg,
		metrics:           m,
		suggestionTimeout: suggestionTimeout,
	}
}

// Search returns up to limit items ranked by match priority, each carrying
// aggregate stock. The brand filter constrains the snapshot scan.
func (e *SearchEngine) Search(ctx context.Context, term, brandFilter string, limit int) ([]Item, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Item{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	ctx = e.logg.WithSearchTerm(ctx, term)
	m := newTermMatcher(term)

	// Provider-id-shaped terms get one cross-reference-aware lookup that
	// also returns items recorded as interchangeable with the match. A miss
	// or a failure falls through to the ordinary paths.
	if Classify(term) == ProviderIDLikely {
		rows, err := e.store.FetchCompatibilityAggregation(ctx, CompatibilityQuery{ProviderPartNumber: term})
		if err != nil {
			e.logg.Error(ctx, "cross-reference lookup failed", err)
		} else if len(rows) > 0 {
			e.metrics.IncSearch("cross_reference")
			return e.finish(ctx, m, rows, limit)
		}
	}

	local := e.scanSnapshot(m, brandFilter)
	if len(local) >= localScanThreshold {
		e.metrics.IncSearch("local")
		return e.finish(ctx, m, local, limit)
	}

	e.metrics.IncSearch("remote")
	return e.finish(ctx, m, append(local, e.remoteFanOut(ctx, term)...), limit)
}

// Suggest serves the type-ahead endpoint. The RPC is timeboxed; on failure or
// timeout the cached snapshot answers locally instead of an empty dropdown.
func (e *SearchEngine) Suggest(ctx context.Context, term string, limit int) ([]Suggestion, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Suggestion{}, nil
	}
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}

	rpcCtx, cancel := context.WithTimeout(ctx, e.suggestionTimeout)
	defer cancel()

	rows, err := e.store.FetchSuggestions(rpcCtx, term, limit)
	if err == nil {
		out := make([]Suggestion, 0, len(rows))
		for i := range rows {
			out = append(out, NewSuggestion(&rows[i]))
		}
		return out, nil
	}
	e.logg.Warn(ctx, "suggestion lookup failed, serving local fallback")

	folded := strings.ToLower(term)
	out := make([]Suggestion, 0, limit)
	for _, row := range e.snapshot.Peek() {
		if !strings.HasPrefix(strings.ToLower(row.Name), folded) {
			continue
		}
		out = append(out, NewSuggestion(&row))
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// scanSnapshot filters the already-loaded catalog by brand and by the local
// match set: exact name, name prefix, whole-word contains, exact canonical
// id, exact provider part number, exact brand.
func (e *SearchEngine) scanSnapshot(m termMatcher, brandFilter string) []models.CatalogItem {
	var matched []models.CatalogItem
	for _, row := range e.snapshot.Peek() {
		if brandFilter != "" && !strings.EqualFold(row.Brand, brandFilter) {
			continue
		}
		if m.matchesLocally(&row) {
			matched = append(matched, row)
		}
	}
	return matched
}

// remoteFanOut issues the three partial-match queries concurrently and unions
// whatever came back. A failed query contributes nothing.
func (e *SearchEngine) remoteFanOut(ctx context.Context, term string) []models.CatalogItem {
	queries := []ItemQuery{
		{IDPrefix: term, Limit: remoteQueryLimit},
		{NamePrefix: term, Limit: remoteQueryLimit},
		{ProviderPartPrefix: term, Limit: remoteQueryLimit},
	}

	results := make([][]models.CatalogItem, len(queries))
	grp, grpCtx := errgroup.WithContext(ctx)
	for i, q := range queries {
		grp.Go(func() error {
			rows, err := e.store.FetchCatalogItems(grpCtx, q)
			if err != nil {
				e.logg.Error(grpCtx, "partial-match query failed", err)
				return nil
			}
			results[i] = rows
			return nil
		})
	}
	_ = grp.Wait()

	var merged []models.CatalogItem
	for _, rows := range results {
		merged = append(merged, rows...)
	}
	return merged
}

// finish dedups the local+remote union by canonical id (first occurrence
// wins), ranks, truncates to limit, and attaches aggregate stock.
func (e *SearchEngine) finish(ctx context.Context, m termMatcher, rows []models.CatalogItem, limit int) ([]Item, error) {
	rows = dedupeByID(rows)
	rankRows(m, rows)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return attachStock(ctx, e.stock, rows)
}

func dedupeByID(rows []models.CatalogItem) []models.CatalogItem {
	seen := make(map[string]struct{}, len(rows))
	out := rows[:0:0]
	for _, row := range rows {
		if _, dup := seen[row.ID]; dup {
			continue
		}
		seen[row.ID] = struct{}{}
		out = append(out, row)
	}
	return out
}

// Match priority tiers, highest first. Ties break alphabetically by name.
const (
	tierNameExact = iota
	tierIDExact
	tierProviderExact
	tierNamePrefix
	tierNameWholeWord
	tierIDPrefix
	tierProviderPrefix
	tierBrandExact
	tierAlphabetical
)

func rankRows(m termMatcher, rows []models.CatalogItem) {
	// Sort keys travel with the rows; the comparator must never index a
	// precomputed slice by position once sorting starts swapping.
	type rankedRow struct {
		row  models.CatalogItem
		tier int
		name string
	}
	ranked := make([]rankedRow, len(rows))
	for i := range rows {
		ranked[i] = rankedRow{
			row:  rows[i],
			tier: m.tier(&rows[i]),
			name: strings.ToLower(rows[i].Name),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].tier != ranked[j].tier {
			return ranked[i].tier < ranked[j].tier
		}
		return ranked[i].name < ranked[j].name
	})
	for i := range ranked {
		rows[i] = ranked[i].row
	}
}

// termMatcher folds the term once and carries the whole-word pattern so each
// candidate costs a handful of string comparisons.
type termMatcher struct {
	term   string
	wordRe *regexp.Regexp
}

func newTermMatcher(term string) termMatcher {
	folded := strings.ToLower(term)
	return termMatcher{
		term:   folded,
		wordRe: regexp.MustCompile(`(^|[^a-z0-9])` + regexp.QuoteMeta(folded) + `([^a-z0-9]|$)`),
	}
}

func (m termMatcher) tier(row *models.CatalogItem) int {
	name := strings.ToLower(row.Name)
	id := strings.ToLower(row.ID)
	provider := ""
	if row.ProviderPartNumber != nil {
		provider = strings.ToLower(*row.ProviderPartNumber)
	}

	switch {
	case name == m.term:
		return tierNameExact
	case id == m.term:
		return tierIDExact
	case provider != "" && provider == m.term:
		return tierProviderExact
	case strings.HasPrefix(name, m.term):
		return tierNamePrefix
	case m.wordRe.MatchString(name):
		return tierNameWholeWord
	case strings.HasPrefix(id, m.term):
		return tierIDPrefix
	case provider != "" && strings.HasPrefix(provider, m.term):
		return tierProviderPrefix
	case strings.EqualFold(row.Brand, m.term):
		return tierBrandExact
	default:
		return tierAlphabetical
	}
}

// matchesLocally reports whether the row belongs in the snapshot-scan result
// set. Prefix matches on id and provider part number are remote-only.
func (m termMatcher) matchesLocally(row *models.CatalogItem) bool {
	switch m.tier(row) {
	case tierNameExact, tierIDExact, tierProviderExact, tierNamePrefix, tierNameWholeWord, tierBrandExact:
		return true
	default:
		return false
	}
}
