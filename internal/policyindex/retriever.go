package policyindex

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/UdonsiKalu/denialguard/internal/crosswalk"
	"github.com/UdonsiKalu/denialguard/internal/model"
)

// Retriever runs hybrid policy searches for the two pipeline stages: a broad
// validated sweep for denial reasoning, and an archetype-scoped search for
// correction synthesis.
type Retriever struct {
	store      Searcher
	embedder   Embedder
	registry   model.Registry
	topK       int // per-collection hits
	maxResults int // cap after merge/dedup
	workers    int // concurrent collection searches
	log        zerolog.Logger
}

// NewRetriever creates a retriever.
func NewRetriever(store Searcher, embedder Embedder, registry model.Registry, topK, maxResults, workers int, log zerolog.Logger) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	if maxResults <= 0 {
		maxResults = 6
	}
	if workers <= 0 {
		workers = 4
	}
	return &Retriever{
		store:      store,
		embedder:   embedder,
		registry:   registry,
		topK:       topK,
		maxResults: maxResults,
		workers:    workers,
		log:        log,
	}
}

// SearchBroad runs the Stage-1 sweep: every collection, hybrid search, then
// relevance validation against the issue. Irrelevant excerpts are dropped;
// survivors carry their validation verdict. Retrieval failures degrade to an
// empty result, never an error.
func (r *Retriever) SearchBroad(ctx context.Context, issue model.ClaimIssue) []model.PolicyExcerpt {
	collections, err := r.store.Collections(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to list policy collections")
		return nil
	}

	query := broadQuery(issue)
	hits := r.searchCollections(ctx, collections, query, issue.Codes(), r.topK)

	var validated []model.PolicyExcerpt
	for _, p := range hits {
		verdict := ValidateRelevance(p, issue)
		if !verdict.Relevant {
			continue
		}
		p.ValidationStatus = verdict.Status
		p.RelevanceReason = verdict.Reason
		p.ManualAppropriate = verdict.ManualAppropriate
		validated = append(validated, p)
	}

	return Dedupe(validated)
}

// SearchCorrections runs the Stage-2 archetype-scoped search over the
// archetype's target collections, capped at maxResults after dedup.
func (r *Retriever) SearchCorrections(ctx context.Context, issue model.ClaimIssue, archetype model.Archetype) []model.PolicyExcerpt {
	collections := r.registry[archetype].Collections
	if len(collections) == 0 {
		var err error
		collections, err = r.store.Collections(ctx)
		if err != nil {
			r.log.Warn().Err(err).Msg("failed to list policy collections")
			return nil
		}
	}

	query := archetypeQuery(issue, archetype)
	hits := r.searchCollections(ctx, collections, query, issue.Codes(), r.topK)

	deduped := Dedupe(hits)
	if len(deduped) > r.maxResults {
		deduped = deduped[:r.maxResults]
	}
	return deduped
}

// searchCollections embeds the query once and fans out over collections.
func (r *Retriever) searchCollections(ctx context.Context, collections []string, query string, codes model.CodeSet, topK int) []model.PolicyExcerpt {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.log.Warn().Err(err).Msg("query embedding failed")
		return nil
	}

	filterCodes := []string{codes.HCPCS}
	if codes.ICD10 != "" {
		filterCodes = append(filterCodes, crosswalk.Normalize(codes.ICD10))
	} else if codes.ICD9 != "" {
		filterCodes = append(filterCodes, codes.ICD9)
	}

	var (
		mu  sync.Mutex
		out []model.PolicyExcerpt
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, collection := range collections {
		g.Go(func() error {
			hits := r.hybridSearch(gctx, collection, embedding, filterCodes, topK)
			mu.Lock()
			out = append(out, hits...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; they log and move on

	return out
}

// hybridSearch tries the code-filtered search first; when nothing matches the
// literal codes it falls back to pure semantic search so the caller always
// gets the nearest policy context.
func (r *Retriever) hybridSearch(ctx context.Context, collection string, embedding []float32, codes []string, topK int) []model.PolicyExcerpt {
	hits, err := r.store.SearchFiltered(ctx, collection, embedding, codes, topK)
	if err != nil {
		r.log.Warn().Err(err).Str("collection", collection).Msg("filtered search failed")
		return nil
	}
	if len(hits) > 0 {
		return hits
	}

	r.log.Debug().Str("collection", collection).Msg("no code matches, falling back to semantic search")
	hits, err = r.store.SearchSemantic(ctx, collection, embedding, topK)
	if err != nil {
		r.log.Warn().Err(err).Str("collection", collection).Msg("semantic search failed")
		return nil
	}
	return hits
}

// Dedupe sorts by score descending and collapses excerpts sharing the same
// leading text. Sorting first guarantees the highest-scoring copy survives.
func Dedupe(policies []model.PolicyExcerpt) []model.PolicyExcerpt {
	sorted := make([]model.PolicyExcerpt, len(policies))
	copy(sorted, policies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	seen := make(map[string]bool, len(sorted))
	deduped := sorted[:0]
	for _, p := range sorted {
		key := p.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, p)
	}
	return deduped
}

// broadQuery builds the Stage-1 query text covering all denial dimensions.
func broadQuery(issue model.ClaimIssue) string {
	icd := issue.ICD10Code
	if icd == "" {
		icd = issue.ICD9Code
	}
	denialReason := issue.PTPDenialReason
	if denialReason == "" {
		denialReason = "unspecified"
	}
	return fmt.Sprintf(
		"CMS policy for CPT/HCPCS %s, diagnosis %s, denial reason %s. Include NCCI, LCD, and CMS manual sections.",
		issue.HCPCSCode, icd, denialReason)
}

// archetypeQuery builds the Stage-2 query text targeted at the archetype's
// correction vocabulary.
func archetypeQuery(issue model.ClaimIssue, archetype model.Archetype) string {
	var b strings.Builder
	switch archetype {
	case model.ArchetypePrimaryDXNotCovered:
		fmt.Fprintf(&b, "covered ICD-10 codes for CPT %s %s ", issue.HCPCSCode, issue.ProcedureName)
		fmt.Fprintf(&b, "LCD crosswalk covered diagnosis alternatives for %s ", issue.DiagnosisName)
		b.WriteString("medicare coverage criteria medical necessity")
	case model.ArchetypePTPConflict:
		fmt.Fprintf(&b, "NCCI PTP edits for CPT %s modifier exceptions ", issue.HCPCSCode)
		b.WriteString("59 XE XP XS XU bundling conflicts separate procedural service ")
		b.WriteString("procedure to procedure edits")
	case model.ArchetypeMUERisk:
		fmt.Fprintf(&b, "MUE medically unlikely edit for CPT %s unit limits ", issue.HCPCSCode)
		b.WriteString("maximum units threshold documentation medical necessity")
	case model.ArchetypeNCDTerminated:
		fmt.Fprintf(&b, "NCD terminated replacement coverage for CPT %s ", issue.HCPCSCode)
		b.WriteString("national coverage determination successor policy")
	case model.ArchetypeSecondaryDXNotCovered:
		fmt.Fprintf(&b, "secondary diagnosis coverage LCD crosswalk for CPT %s ", issue.HCPCSCode)
		b.WriteString("co-diagnosis pairings medical necessity")
	default:
		fmt.Fprintf(&b, "CMS policy compliance for CPT %s ICD %s ", issue.HCPCSCode, issue.ICD10Code)
		b.WriteString("medicare billing guidelines documentation requirements")
	}
	return b.String()
}
