package crosswalk

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/UdonsiKalu/denialguard/internal/cache"
	"github.com/UdonsiKalu/denialguard/internal/rulesdb"
)

// Alternative strategy confidence levels. Shared-ICD-9 siblings are
// clinically related; same-family prefix matches are a weaker signal.
const (
	ConfidenceSharedICD9    = 0.85
	ConfidencePatternFamily = 0.70

	StrategySharedICD9    = "gems_shared_icd9"
	StrategyPatternFamily = "pattern_based_family"
)

// Alternative is a candidate replacement diagnosis code with its lookup
// strategy and confidence. Description is always populated.
type Alternative struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Strategy    string  `json:"strategy"`
	SharedICD9  string  `json:"shared_icd9,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// Resolver maps diagnosis codes between ICD revisions using the
// icd_crosswalk_master table. All lookups degrade to empty results on
// database failure; callers treat empty as "no mapping found", never as an
// error. Safe for concurrent use.
type Resolver struct {
	db    rulesdb.Querier
	cache cache.Cache
	log   zerolog.Logger
}

// NewResolver creates a resolver over the rules database. cache may be a
// NopCache when caching is disabled.
func NewResolver(db rulesdb.Querier, c cache.Cache, log zerolog.Logger) *Resolver {
	if c == nil {
		c = cache.NopCache{}
	}
	return &Resolver{db: db, cache: c, log: log}
}

// MapICD10ToICD9 returns the ICD-9 code(s) the crosswalk maps an ICD-10 code
// to, or an empty slice when no mapping exists or the database is down.
func (r *Resolver) MapICD10ToICD9(ctx context.Context, icd10 string) []string {
	if r.db == nil || icd10 == "" {
		return nil
	}
	key := cache.Key("xwalk", "10to9:"+Normalize(icd10))
	if hit, ok := r.cachedList(key); ok {
		return hit
	}

	rows, err := r.db.Select(ctx, `
		SELECT DISTINCT icd9_code
		FROM icd_crosswalk_master
		WHERE icd10_code = $1 AND mapping_type = 'CM'`, Normalize(icd10))
	if err != nil {
		r.log.Warn().Err(err).Str("icd10", icd10).Msg("ICD-10 to ICD-9 mapping failed")
		return nil
	}

	codes := collectColumn(rows, "icd9_code")
	r.storeList(key, codes)
	return codes
}

// MapICD9ToICD10 returns the ICD-10 code(s) for an ICD-9 code, or an empty
// slice when no mapping exists or the database is down.
func (r *Resolver) MapICD9ToICD10(ctx context.Context, icd9 string) []string {
	if r.db == nil || icd9 == "" {
		return nil
	}
	key := cache.Key("xwalk", "9to10:"+Normalize(icd9))
	if hit, ok := r.cachedList(key); ok {
		return hit
	}

	rows, err := r.db.Select(ctx, `
		SELECT DISTINCT icd10_code
		FROM icd_crosswalk_master
		WHERE icd9_code = $1 AND mapping_type = 'CM'`, Normalize(icd9))
	if err != nil {
		r.log.Warn().Err(err).Str("icd9", icd9).Msg("ICD-9 to ICD-10 mapping failed")
		return nil
	}

	codes := collectColumn(rows, "icd10_code")
	r.storeList(key, codes)
	return codes
}

// Description returns the ICD-10 description from the crosswalk master, or
// "" when unknown.
func (r *Resolver) Description(ctx context.Context, icd10 string) string {
	if r.db == nil || icd10 == "" {
		return ""
	}
	rows, err := r.db.Select(ctx, `
		SELECT icd10_description
		FROM icd_crosswalk_master
		WHERE icd10_code = $1 AND mapping_type = 'CM'
		LIMIT 1`, Normalize(icd10))
	if err != nil {
		r.log.Warn().Err(err).Str("icd10", icd10).Msg("ICD-10 description lookup failed")
		return ""
	}
	if len(rows) == 0 {
		return ""
	}
	return rows[0]["icd10_description"]
}

// Alternatives finds replacement candidates for a non-covered ICD-10
// diagnosis. Codes sharing an ICD-9 mapping (clinical siblings) rank above
// the same-family prefix fallback; each candidate carries its strategy name,
// confidence and description. Returns an empty slice on any failure.
func (r *Resolver) Alternatives(ctx context.Context, icd10 string, limit int) []Alternative {
	if r.db == nil || icd10 == "" {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}
	normalized := Normalize(icd10)

	// Strategy 1: siblings via shared ICD-9 mapping.
	rows, err := r.db.Select(ctx, `
		WITH source_icd9 AS (
			SELECT DISTINCT icd9_code
			FROM icd_crosswalk_master
			WHERE icd10_code = $1 AND mapping_type = 'CM'
		)
		SELECT DISTINCT m.icd10_code, m.icd9_code, m.icd10_description
		FROM icd_crosswalk_master m
		JOIN source_icd9 s ON m.icd9_code = s.icd9_code
		WHERE m.icd10_code <> $1 AND m.mapping_type = 'CM'
		ORDER BY m.icd10_code
		LIMIT $2`, normalized, limit)
	if err != nil {
		r.log.Warn().Err(err).Str("icd10", icd10).Msg("alternative lookup failed")
		return nil
	}

	if len(rows) > 0 {
		alts := make([]Alternative, 0, len(rows))
		for _, row := range rows {
			alts = append(alts, Alternative{
				Code:        Denormalize(row["icd10_code"]),
				Description: orDefault(row["icd10_description"], "Description not available"),
				Strategy:    StrategySharedICD9,
				SharedICD9:  row["icd9_code"],
				Confidence:  ConfidenceSharedICD9,
			})
		}
		r.log.Debug().Int("count", len(alts)).Str("icd10", icd10).Msg("alternatives via shared ICD-9 mapping")
		return alts
	}

	// Strategy 2: same code family (shared 3-character prefix).
	if len(normalized) < 3 {
		return nil
	}
	pattern := normalized[:3] + "%"
	rows, err = r.db.Select(ctx, `
		SELECT DISTINCT icd10_code, icd10_description
		FROM icd_crosswalk_master
		WHERE icd10_code LIKE $1 AND icd10_code <> $2 AND mapping_type = 'CM'
		ORDER BY icd10_code
		LIMIT $3`, pattern, normalized, limit)
	if err != nil {
		r.log.Warn().Err(err).Str("icd10", icd10).Msg("pattern alternative lookup failed")
		return nil
	}

	alts := make([]Alternative, 0, len(rows))
	for _, row := range rows {
		alts = append(alts, Alternative{
			Code:        Denormalize(row["icd10_code"]),
			Description: orDefault(row["icd10_description"], "Description not available"),
			Strategy:    StrategyPatternFamily,
			Confidence:  ConfidencePatternFamily,
		})
	}
	if len(alts) > 0 {
		r.log.Debug().Int("count", len(alts)).Str("pattern", pattern).Msg("alternatives via family pattern")
	}
	return alts
}

func (r *Resolver) cachedList(key string) ([]string, bool) {
	data, ok := r.cache.Get(key)
	if !ok {
		return nil, false
	}
	var codes []string
	if err := json.Unmarshal(data, &codes); err != nil {
		return nil, false
	}
	return codes, true
}

func (r *Resolver) storeList(key string, codes []string) {
	data, err := json.Marshal(codes)
	if err != nil {
		return
	}
	_ = r.cache.Set(key, data, 30*time.Minute)
}

func collectColumn(rows []rulesdb.Row, col string) []string {
	var out []string
	for _, row := range rows {
		if v := row[col]; v != "" {
			out = append(out, v)
		}
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
