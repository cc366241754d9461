// Package evidence gathers corroborating records from the rules database for
// a classified claim issue. Gathering never fails and never returns an empty
// list: direct queries fall back to crosswalk-mapped retries, and those fall
// back to a synthesized record carrying the reason real evidence was
// unavailable.
package evidence

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/UdonsiKalu/denialguard/internal/crosswalk"
	"github.com/UdonsiKalu/denialguard/internal/model"
	"github.com/UdonsiKalu/denialguard/internal/rulesdb"
)

// Mapper is the crosswalk dependency used for diagnosis-driven retries.
type Mapper interface {
	MapICD10ToICD9(ctx context.Context, icd10 string) []string
	MapICD9ToICD10(ctx context.Context, icd9 string) []string
}

// Aggregator executes archetype-specific evidence queries.
type Aggregator struct {
	db       rulesdb.Querier
	mapper   Mapper
	registry model.Registry
	ignore   map[string]bool
	log      zerolog.Logger
}

// NewAggregator creates an aggregator. ignoreFields configures which columns
// do not count toward the informative-record check; nil selects
// model.DefaultIgnoreFields.
func NewAggregator(db rulesdb.Querier, mapper Mapper, registry model.Registry, ignoreFields map[string]bool, log zerolog.Logger) *Aggregator {
	if ignoreFields == nil {
		ignoreFields = model.DefaultIgnoreFields()
	}
	return &Aggregator{
		db:       db,
		mapper:   mapper,
		registry: registry,
		ignore:   ignoreFields,
		log:      log,
	}
}

// Gather returns evidence for the archetype and codes. The result is never
// empty: when no informative database row can be found the sole record is a
// synthesized fallback tagged with the abandonment reason.
func (a *Aggregator) Gather(ctx context.Context, archetype model.Archetype, codes model.CodeSet) []model.EvidenceRecord {
	info, ok := a.registry[archetype]
	if !ok || info.EvidenceQuery == "" {
		a.log.Warn().Str("archetype", string(archetype)).Msg("no evidence query defined")
		return fallbackRecords(archetype, codes, "no_query_defined")
	}

	if a.db == nil {
		return fallbackRecords(archetype, codes, model.ReasonNoConnection)
	}

	if info.DiagnosisDriven {
		return a.gatherDiagnosis(ctx, archetype, info, codes)
	}
	return a.gatherProcedure(ctx, archetype, info, codes)
}

// gatherProcedure runs the single parameterized query for procedure-driven
// archetypes (and the unbound informational queries).
func (a *Aggregator) gatherProcedure(ctx context.Context, archetype model.Archetype, info model.ArchetypeInfo, codes model.CodeSet) []model.EvidenceRecord {
	var (
		rows []rulesdb.Row
		err  error
	)
	switch {
	case info.UnboundQuery():
		rows, err = a.db.Select(ctx, info.EvidenceQuery)
	case codes.HCPCS == "":
		return fallbackRecords(archetype, codes, "no_procedure_code")
	default:
		rows, err = a.db.Select(ctx, info.EvidenceQuery, codes.HCPCS)
	}
	if err != nil {
		a.log.Warn().Err(err).Str("archetype", string(archetype)).Msg("evidence query failed")
		return fallbackRecords(archetype, codes, truncatedReason(model.ReasonSQLError, err))
	}

	records := recordsFromRows(rows)
	if a.anyInformative(records) {
		a.log.Debug().Int("records", len(records)).Str("archetype", string(archetype)).Msg("evidence gathered")
		return records
	}

	a.log.Debug().Str("archetype", string(archetype)).Msg("evidence rows empty or NULL-only")
	return fallbackRecords(archetype, codes, model.ReasonReturnedNulls)
}

// gatherDiagnosis handles diagnosis-driven archetypes: shape-matched trial
// order, then crosswalk-mapped retries in both directions, then fallback.
func (a *Aggregator) gatherDiagnosis(ctx context.Context, archetype model.Archetype, info model.ArchetypeInfo, codes model.CodeSet) []model.EvidenceRecord {
	type attempt struct {
		where string
		param string
		label string
	}

	var attempts []attempt
	if codes.ICD10 != "" && crosswalk.IsICD10(codes.ICD10) {
		attempts = append(attempts, attempt{"icd10_code = $1", crosswalk.Normalize(codes.ICD10), "ICD-10"})
	}
	if codes.ICD9 != "" && !crosswalk.IsICD10(codes.ICD9) {
		attempts = append(attempts, attempt{"icd9_code = $1", codes.ICD9, "ICD-9"})
	}
	// Neither code fits its expected shape: best-effort, try both as given.
	if len(attempts) == 0 {
		if codes.ICD10 != "" {
			attempts = append(attempts, attempt{"icd10_code = $1", crosswalk.Normalize(codes.ICD10), "ICD-10 (shape fallback)"})
		}
		if codes.ICD9 != "" {
			attempts = append(attempts, attempt{"icd9_code = $1", codes.ICD9, "ICD-9 (shape fallback)"})
		}
	}

	run := func(where, param string) ([]model.EvidenceRecord, error) {
		query := strings.Replace(info.EvidenceQuery, "{DX_WHERE}", where, 1)
		rows, err := a.db.Select(ctx, query, param)
		if err != nil {
			return nil, err
		}
		return recordsFromRows(rows), nil
	}

	for _, at := range attempts {
		records, err := run(at.where, at.param)
		if err != nil {
			a.log.Warn().Err(err).Str("archetype", string(archetype)).Msg("diagnosis evidence query failed")
			return fallbackRecords(archetype, codes, truncatedReason(model.ReasonSQLError, err))
		}
		if a.anyInformative(records) {
			a.log.Debug().Int("records", len(records)).Str("via", at.label).Msg("diagnosis evidence gathered")
			return records
		}
	}

	// Crosswalk retries: map to the other revision and try each candidate,
	// stopping at the first informative result.
	if a.mapper != nil {
		if codes.ICD10 != "" {
			for _, mapped := range a.mapper.MapICD10ToICD9(ctx, codes.ICD10) {
				records, err := run("icd9_code = $1", mapped)
				if err == nil && a.anyInformative(records) {
					a.log.Debug().Str("mapped_icd9", mapped).Msg("diagnosis evidence via crosswalk")
					return records
				}
			}
		}
		if codes.ICD9 != "" {
			for _, mapped := range a.mapper.MapICD9ToICD10(ctx, codes.ICD9) {
				records, err := run("icd10_code = $1", mapped)
				if err == nil && a.anyInformative(records) {
					a.log.Debug().Str("mapped_icd10", mapped).Msg("diagnosis evidence via crosswalk")
					return records
				}
			}
		}
	}

	a.log.Debug().Str("archetype", string(archetype)).Msg("no informative evidence after crosswalk retries")
	return fallbackRecords(archetype, codes, model.ReasonNoLCDCoverage)
}

func (a *Aggregator) anyInformative(records []model.EvidenceRecord) bool {
	for _, r := range records {
		if r.Informative(a.ignore) {
			return true
		}
	}
	return false
}

// recordsFromRows scans generic rows into tagged evidence records. Columns
// with no matching field are ignored.
func recordsFromRows(rows []rulesdb.Row) []model.EvidenceRecord {
	records := make([]model.EvidenceRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, recordFromRow(row))
	}
	return records
}

func recordFromRow(row rulesdb.Row) model.EvidenceRecord {
	r := model.EvidenceRecord{Source: model.EvidenceSourceDatabase}
	for col, val := range row {
		switch col {
		case "procedure_code":
			r.ProcedureCode = val
		case "ptp_denial_reason":
			r.PTPDenialReason = val
		case "ptp_edit_rationale":
			r.PTPEditRationale = val
		case "ptp_edit_type":
			r.PTPEditType = val
		case "instructions":
			r.Instructions = val
		case "modifier_status":
			r.ModifierStatus = val
		case "mue_threshold":
			r.MUEThreshold = val
		case "mue_denial_type":
			r.MUEDenialType = val
		case "mue_rationale":
			r.MUERationale = val
		case "mue_adjudication_indicator":
			r.MUEAdjudicationIndicator = val
		case "icd9_code":
			r.ICD9Code = val
		case "icd10_code":
			r.ICD10Code = val
		case "icd10_description":
			r.ICD10Description = val
		case "source_table":
			r.SourceTable = val
		case "ncd_id":
			r.NCDID = val
		case "ncd_title":
			r.NCDTitle = val
		case "termination_date":
			r.TerminationDate = val
		case "effective_date":
			r.EffectiveDate = val
		case "implementation_date":
			r.ImplementationDate = val
		case "item_service_desc":
			r.ItemServiceDesc = val
		case "indication_limitation":
			r.IndicationLimitation = val
		case "source_type":
			r.SourceType = val
		case "note":
			r.Note = val
		case "denial_risk_level":
			r.DenialRiskLevel = val
		case "compliance_status":
			r.ComplianceStatus = val
		case "guidance":
			r.Guidance = val
		}
		// Unknown columns are ignored by design.
	}
	return r
}

// fallbackRecords synthesizes the archetype-appropriate stand-in when no
// real evidence exists.
func fallbackRecords(archetype model.Archetype, codes model.CodeSet, reason string) []model.EvidenceRecord {
	switch archetype {
	case model.ArchetypePrimaryDXNotCovered:
		return []model.EvidenceRecord{{
			Source:          model.EvidenceSourceFallback,
			ICD10Code:       codes.ICD10,
			ICD9Code:        codes.ICD9,
			Status:          "NO_LCD_DATA_AVAILABLE",
			Guidance:        fmt.Sprintf("LCD coverage data not available for %s", codes.ICD10),
			Reason:          reason,
			SuggestedAction: "Use crosswalk-driven alternative diagnosis mappings",
			DataSource:      "Fallback",
		}}
	case model.ArchetypeSecondaryDXNotCovered:
		return []model.EvidenceRecord{{
			Source:          model.EvidenceSourceFallback,
			ICD10Code:       codes.ICD10,
			Status:          "SECONDARY_DX_LOW_IMPACT",
			Guidance:        "Secondary diagnosis not covered - minimal claim impact",
			Reason:          reason,
			SuggestedAction: "No immediate action required",
			DataSource:      "Fallback",
		}}
	case model.ArchetypePTPConflict:
		return []model.EvidenceRecord{{
			Source:          model.EvidenceSourceFallback,
			ProcedureCode:   codes.HCPCS,
			Status:          "NO_NCCI_DATA",
			Guidance:        "NCCI data not available for this procedure",
			Reason:          reason,
			SuggestedAction: "Verify procedure compatibility manually",
			DataSource:      "Fallback",
		}}
	default:
		return []model.EvidenceRecord{{
			Source:     model.EvidenceSourceFallback,
			Status:     "NO_EVIDENCE_FOUND",
			Guidance:   "No database evidence available",
			Reason:     reason,
			DataSource: "Fallback",
		}}
	}
}

func truncatedReason(prefix string, err error) string {
	msg := err.Error()
	if len(msg) > 100 {
		msg = msg[:100]
	}
	return prefix + ": " + msg
}
