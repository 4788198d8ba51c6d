// =============================================================================
// Avisos Generator - Converter Module
// =============================================================================
//
// This module contains the generation engine. It turns one request (an
// activity, a reporting period, the obligated subject and the period's
// operation records) into the regulatory documents for that period.
//
// GENERATION PIPELINE:
//   1. Validate the request (activity, period, subject, records)
//   2. Resolve the activity's schema descriptor
//   3. Inspect records for data-quality issues (logged, never fatal)
//   4. Zero-operations report, or
//      gaming reports split into deposits and withdrawals, or
//      one standard report
//   5. For each document: group records by person, assemble, serialize
//   6. Return artifacts plus the side effects the caller must apply
//
// CONCURRENCY:
//   Generate is synchronous and keeps no state between calls. The registry
//   and keyword sets are read-only, so one Converter can serve concurrent
//   callers.
//
// =============================================================================

package converter

import (
	"fmt"
	"time"

	apperrors "github.com/ginjaninja78/avisos/internal/errors"
	"github.com/ginjaninja78/avisos/internal/logger"
	"github.com/ginjaninja78/avisos/internal/metrics"
	"github.com/ginjaninja78/avisos/internal/registry"
	"github.com/ginjaninja78/avisos/internal/sanitize"
	"github.com/ginjaninja78/avisos/internal/types"
	"github.com/ginjaninja78/avisos/internal/validation"
	"github.com/ginjaninja78/avisos/internal/xmlwriter"
)

// =============================================================================
// REQUEST AND RESULT
// =============================================================================

// Request is the input of one generation call.
type Request struct {
	ActivityType   types.ActivityType
	Period         types.Period
	Subject        types.SubjectProfile
	Records        []types.OperationRecord
	ZeroOperations bool

	// GeneratedBy identifies the operator, recorded in the history entry.
	GeneratedBy string
}

// Result is the outcome of one generation call.
type Result struct {
	// Artifacts holds one entry per generated document.
	Artifacts []types.Artifact

	// Commands are the side effects the caller must apply, in order.
	Commands []types.Command

	// Issues are the data-quality findings on the input records.
	Issues []validation.ValidationError

	Stats Stats
}

// Stats contains statistics about the generation.
type Stats struct {
	RecordsProcessed int
	ReportsCreated   int

	// UnmatchedOperationTypes counts gaming records that matched no keyword
	// and were classified as deposits.
	UnmatchedOperationTypes int

	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter generates aviso documents.
type Converter struct {
	registry *registry.Registry
	keywords KeywordSets
	options  xmlwriter.GenerateOptions
	logger   logger.Logger
	metrics  *metrics.Recorder
}

// Option customizes a Converter.
type Option func(*Converter)

// WithLogger sets the logger. The default discards everything. Callers
// attach the activity and period fields themselves.
func WithLogger(l logger.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Converter) { c.metrics = m }
}

// WithKeywordSets replaces the gaming split keywords.
func WithKeywordSets(k KeywordSets) Option {
	return func(c *Converter) { c.keywords = k }
}

// WithGenerateOptions replaces the serialization options.
func WithGenerateOptions(o xmlwriter.GenerateOptions) Option {
	return func(c *Converter) { c.options = o }
}

// New creates a Converter over reg.
func New(reg *registry.Registry, opts ...Option) *Converter {
	c := &Converter{
		registry: reg,
		keywords: DefaultKeywordSets(),
		options:  xmlwriter.DefaultGenerateOptions(),
		logger:   logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// MAIN GENERATION FUNCTION
// =============================================================================

// Generate runs the generation pipeline for req.
//
// ERRORS:
//   - configuration error: the activity type is not registered
//   - input error: missing activity or period, incomplete subject, empty
//     record set without the zero flag, zero flag with records, records
//     from another activity or period
//   - internal error: serialization failed
func (c *Converter) Generate(req Request) (*Result, error) {
	startTime := time.Now()
	log := c.logger

	result, err := c.generate(req, log)
	if err != nil {
		c.metrics.ObserveFailure(string(req.ActivityType), string(apperrors.CodeOf(err)))
		log.WithError(err).Error("Generation failed", nil)
		return nil, err
	}

	result.Stats.ProcessingTime = time.Since(startTime)
	c.metrics.ObserveGeneration(string(req.ActivityType), result.Stats.RecordsProcessed, result.Stats.ProcessingTime)
	for _, a := range result.Artifacts {
		c.metrics.ObserveArtifact(string(a.ActivityType), variantLabel(a.Variant))
	}

	log.Info("Generation complete", map[string]interface{}{
		"artifacts": len(result.Artifacts),
		"records":   result.Stats.RecordsProcessed,
		"avisos":    result.Stats.ReportsCreated,
		"elapsed":   result.Stats.ProcessingTime.String(),
	})
	return result, nil
}

func (c *Converter) generate(req Request, log logger.Logger) (*Result, error) {
	// =========================================================================
	// STEP 1: VALIDATE REQUEST
	// =========================================================================

	if req.ActivityType.Normalize() == "" {
		return nil, apperrors.New(apperrors.ErrCodeMissingActivity, "activity type is required")
	}

	descriptor, err := c.registry.Lookup(req.ActivityType)
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateRequest(validation.RequestCheck{
		Activity:       descriptor.Activity,
		Period:         req.Period,
		Subject:        req.Subject,
		Records:        req.Records,
		ZeroOperations: req.ZeroOperations,
	}); err != nil {
		return nil, err
	}

	result := &Result{}

	// =========================================================================
	// STEP 2: ZERO-OPERATIONS REPORT
	// =========================================================================

	if req.ZeroOperations {
		artifact, err := c.buildArtifact(descriptor, req, nil, types.VariantZero)
		if err != nil {
			return nil, err
		}
		result.Artifacts = append(result.Artifacts, artifact)
		result.Commands = c.commands(req, result.Artifacts)
		log.Debug("Built zero-operations report", map[string]interface{}{"file": artifact.FileName})
		return result, nil
	}

	// =========================================================================
	// STEP 3: INSPECT RECORDS
	// =========================================================================
	// Data-quality problems never stop a report; the sanitizers fall back to
	// safe defaults. They are reported so operators can fix the source.

	result.Issues = validation.InspectRecords(req.Records)
	for _, issue := range result.Issues {
		log.Warn("Data-quality issue", map[string]interface{}{
			"row":   issue.RowNumber,
			"field": issue.Field,
			"rule":  issue.Rule,
			"value": issue.Value,
		})
	}
	result.Stats.RecordsProcessed = len(req.Records)

	// =========================================================================
	// STEP 4: BUILD DOCUMENTS
	// =========================================================================

	if descriptor.Activity == types.ActivityGaming {
		deposits, withdrawals, unmatched := c.keywords.Partition(req.Records)
		result.Stats.UnmatchedOperationTypes = unmatched
		log.Debug("Split gaming operations", map[string]interface{}{
			"deposits":    len(deposits),
			"withdrawals": len(withdrawals),
			"unmatched":   unmatched,
		})

		for _, part := range []struct {
			records []types.OperationRecord
			variant types.Variant
		}{
			{deposits, types.VariantDeposits},
			{withdrawals, types.VariantWithdrawals},
		} {
			if len(part.records) == 0 {
				continue
			}
			artifact, err := c.buildArtifact(descriptor, req, part.records, part.variant)
			if err != nil {
				return nil, err
			}
			result.Artifacts = append(result.Artifacts, artifact)
		}
	} else {
		artifact, err := c.buildArtifact(descriptor, req, req.Records, types.VariantStandard)
		if err != nil {
			return nil, err
		}
		result.Artifacts = append(result.Artifacts, artifact)
	}

	for _, a := range result.Artifacts {
		result.Stats.ReportsCreated += a.ReportCount
	}

	// =========================================================================
	// STEP 5: POST-GENERATION COMMANDS
	// =========================================================================

	result.Commands = c.commands(req, result.Artifacts)
	return result, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// buildArtifact groups, assembles and serializes one document.
func (c *Converter) buildArtifact(descriptor registry.SchemaDescriptor, req Request, records []types.OperationRecord, variant types.Variant) (types.Artifact, error) {
	groups := GroupByPerson(records)

	data, err := xmlwriter.GenerateWithOptions(xmlwriter.DocumentInput{
		Descriptor:     descriptor,
		Period:         req.Period,
		Subject:        req.Subject,
		Groups:         groups,
		ZeroOperations: variant == types.VariantZero,
	}, c.options)
	if err != nil {
		return types.Artifact{}, apperrors.Wrap(apperrors.ErrCodeSerializationFailed, "failed to serialize document", err)
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		if r.ID != "" {
			ids = append(ids, r.ID)
		}
	}

	return types.Artifact{
		FileName:     FileName(req.Subject.TaxID, descriptor.RegulatorCode, variant, req.Period),
		XML:          data,
		Variant:      variant,
		ActivityType: descriptor.Activity,
		Period:       req.Period,
		RecordIDs:    ids,
		RecordCount:  len(records),
		ReportCount:  len(groups),
	}, nil
}

// commands lists the side effects of a successful generation: publish every
// artifact, record one history entry, then flag the records as reported.
func (c *Converter) commands(req Request, artifacts []types.Artifact) []types.Command {
	var cmds []types.Command
	entry := types.RecordGeneration{
		ActivityType: req.ActivityType.Normalize(),
		Period:       req.Period,
		ZeroFlag:     req.ZeroOperations,
		GeneratedBy:  req.GeneratedBy,
	}
	var ids []string

	for _, a := range artifacts {
		cmds = append(cmds, types.PublishArtifact{Artifact: a})
		entry.RecordCount += a.RecordCount
		entry.ReportCount += a.ReportCount
		entry.FileNames = append(entry.FileNames, a.FileName)
		ids = append(ids, a.RecordIDs...)
	}
	cmds = append(cmds, entry)

	if len(ids) > 0 {
		cmds = append(cmds, types.MarkRecordsReported{
			ActivityType: entry.ActivityType,
			Period:       req.Period,
			RecordIDs:    ids,
		})
	}
	return cmds
}

// FileName builds the artifact file name:
//
//	<taxId>_<regulatorCode>_<YYYYMM>.xml
//	<taxId>_<regulatorCode>_<VARIANT>_<YYYYMM>.xml
func FileName(subjectTaxID, regulatorCode string, variant types.Variant, period types.Period) string {
	taxID := sanitize.SanitizeTaxID(subjectTaxID)
	if variant == types.VariantStandard {
		return fmt.Sprintf("%s_%s_%s.xml", taxID, regulatorCode, period)
	}
	return fmt.Sprintf("%s_%s_%s_%s.xml", taxID, regulatorCode, variant, period)
}

func variantLabel(v types.Variant) string {
	if v == types.VariantStandard {
		return "ESTANDAR"
	}
	return string(v)
}
