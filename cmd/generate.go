// =============================================================================
// Avisos Generator - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, the main command of the tool. It
// turns the exports of a reporting period into aviso documents.
//
// COMMAND USAGE:
//   avisos generate --period YYYYMM [flags]
//
// FLAGS:
//   --period           : Reporting period (YYYYMM, YYYY-MM or YYYY/MM)
//   --activity         : Generate only this activity
//   --file             : Export to read instead of scanning the input directory (repeatable)
//   --zero             : File a zero-operations report for --activity
//   --dry-run          : Generate and validate without writing any file
//   --publish          : Publish the documents and record the generation history
//   --include-reported : Keep records an earlier publication already reported
//
// PROCESSING PIPELINE:
//   1. Load the main configuration, activity layouts and subject profile
//   2. Plan one job per activity from the discovered exports
//   3. For each job:
//      a. Parse its exports concurrently (CSV or XLSX)
//      b. Build operation records from the column mapping
//      c. Generate the aviso documents
//      d. Write the documents and the validation log
//      e. Publish them and record the history (--publish)
//      f. Archive the exports
//   4. Print the summary and write the summary logs
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/avisos/internal/blob"
	"github.com/ginjaninja78/avisos/internal/config"
	"github.com/ginjaninja78/avisos/internal/converter"
	"github.com/ginjaninja78/avisos/internal/csvparser"
	"github.com/ginjaninja78/avisos/internal/delivery"
	apperrors "github.com/ginjaninja78/avisos/internal/errors"
	"github.com/ginjaninja78/avisos/internal/history"
	"github.com/ginjaninja78/avisos/internal/ingest"
	"github.com/ginjaninja78/avisos/internal/logger"
	"github.com/ginjaninja78/avisos/internal/metrics"
	"github.com/ginjaninja78/avisos/internal/registry"
	"github.com/ginjaninja78/avisos/internal/types"
	"github.com/ginjaninja78/avisos/internal/validation"
	"github.com/ginjaninja78/avisos/internal/xlsxparser"
	"github.com/ginjaninja78/avisos/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// generateOptions holds the flags of one generate run.
type generateOptions struct {
	Period          string
	Activity        string
	Files           []string
	Zero            bool
	DryRun          bool
	Publish         bool
	IncludeReported bool
}

var genOpts generateOptions

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

// generateCmd represents the 'generate' command.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the avisos of a reporting period",
	Long: `The generate command reads the activity exports of a reporting period,
matches each one to its activity layout and produces the XML avisos.

Each activity is generated independently. Gaming exports produce two
documents (deposits and withdrawals); every other activity produces one.

On success:
  - The avisos are written to the output directory
  - Data-quality findings are written next to them as a validation log
  - With --publish, the avisos are uploaded and the history is recorded
  - The exports are moved to the input archive

On error:
  - The exports stay in the input directory
  - Processing continues for other activities when continue_on_error is set`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd.Context(), cmd.OutOrStdout(), genOpts)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	flags := generateCmd.Flags()
	flags.StringVar(&genOpts.Period, "period", "", "Reporting period (YYYYMM)")
	flags.StringVar(&genOpts.Activity, "activity", "", "Generate only this activity (see 'avisos activities')")
	flags.StringArrayVar(&genOpts.Files, "file", nil, "Export to read instead of scanning the input directory (repeatable)")
	flags.BoolVar(&genOpts.Zero, "zero", false, "File a zero-operations report for --activity")
	flags.BoolVar(&genOpts.DryRun, "dry-run", false, "Generate and validate without writing any file")
	flags.BoolVar(&genOpts.Publish, "publish", false, "Publish the avisos and record the generation history")
	flags.BoolVar(&genOpts.IncludeReported, "include-reported", false, "Keep records already reported by an earlier publication")

	_ = generateCmd.MarkFlagRequired("period")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runGenerate loads the configuration and runs the pipeline.
func runGenerate(ctx context.Context, out io.Writer, opts generateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Fprintln(out, "=== Avisos Generator ===")
	fmt.Fprintln(out, "Loading configuration...")

	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}

	activityConfigs, err := config.LoadActivityConfigs(mainConfig.ActivitiesDir)
	if err != nil {
		return fmt.Errorf("failed to load activity configs: %w", err)
	}
	fmt.Fprintf(out, "Loaded %d activity configuration(s)\n", len(activityConfigs))

	subject, err := config.LoadSubjectProfile(mainConfig.SubjectProfile)
	if err != nil {
		return fmt.Errorf("failed to load subject profile: %w", err)
	}

	log := newLogger(mainConfig, verbose)
	defer log.Sync()

	p := newPipeline(mainConfig, activityConfigs, subject, log, out)
	defer p.close()

	return p.run(ctx, opts)
}

// =============================================================================
// PIPELINE
// =============================================================================

// pipeline runs the generation of one invocation. Storage and history
// connections are opened on first use and shared by every job.
type pipeline struct {
	cfg        *config.MainConfig
	activities map[types.ActivityType]*config.ActivityConfig
	subject    types.SubjectProfile
	registry   *registry.Registry
	files      *utils.FileManager
	logger     logger.Logger
	metrics    *metrics.Recorder
	out        io.Writer
	runID      string

	history    *history.Store
	dispatcher *delivery.Dispatcher
}

// job is the unit of generation: one activity and its exports.
type job struct {
	activity types.ActivityType
	config   *config.ActivityConfig
	files    []string
	zero     bool
}

// jobResult is the outcome of one job.
type jobResult struct {
	job          job
	outputs      []string
	archived     []string
	publications []delivery.Publication
	records      int
	reports      int
	warnings     int
	skipped      int
	elapsed      time.Duration
	err          error
}

// failedFile is an export no activity layout claims.
type failedFile struct {
	path string
	err  error
}

func newPipeline(cfg *config.MainConfig, activities map[types.ActivityType]*config.ActivityConfig,
	subject types.SubjectProfile, log logger.Logger, out io.Writer) *pipeline {

	files := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir)
	files.ArchiveOnSuccess = cfg.ArchiveOnSuccess
	files.OverwriteOutput = cfg.OverwriteOutput
	files.UseTimestampSubdirs = cfg.ArchiveDateSubdirs

	return &pipeline{
		cfg:        cfg,
		activities: activities,
		subject:    subject,
		registry:   registry.Default(),
		files:      files,
		logger:     log,
		metrics:    metrics.New(),
		out:        out,
		runID:      uuid.NewString(),
	}
}

// run plans the jobs, executes them and prints the summary. It returns an
// error when any job or export failed.
func (p *pipeline) run(ctx context.Context, opts generateOptions) error {
	startTime := time.Now()

	period, err := types.ParsePeriod(opts.Period)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeMissingPeriod, "invalid --period", err)
	}

	if !opts.DryRun {
		if err := p.files.EnsureDirectories(); err != nil {
			return err
		}
	}

	fmt.Fprintln(p.out, "Discovering input files...")
	jobs, unmatched, err := p.plan(opts)
	if err != nil {
		return err
	}
	if len(jobs) == 0 && len(unmatched) == 0 {
		fmt.Fprintln(p.out, "No exports found in the input directory.")
		return nil
	}

	fmt.Fprintln(p.out, "Generating avisos...")
	var results []jobResult
	for _, j := range jobs {
		res := p.execute(ctx, j, period, opts)
		p.report(res)
		results = append(results, res)

		if res.err != nil && !p.cfg.ContinueOnError {
			break
		}
	}
	for _, f := range unmatched {
		fmt.Fprintf(p.out, "  ✗ %s: %v\n", filepath.Base(f.path), f.err)
	}

	if !opts.DryRun {
		for _, res := range results {
			summary := p.summarize(res, period, startTime)
			if _, err := utils.WriteSummaryLog(summary, p.cfg.OutputDir); err != nil {
				p.logger.WithError(err).Warn("Failed to write summary log", nil)
			}
		}
	}
	if p.cfg.MetricsTextfile != "" {
		if err := p.metrics.WriteTextfile(p.cfg.MetricsTextfile); err != nil {
			p.logger.WithError(err).Warn("Failed to write metrics textfile", nil)
		}
	}

	// =========================================================================
	// PRINT SUMMARY
	// =========================================================================

	var successCount, errorCount, reports int
	for _, res := range results {
		if res.err != nil {
			errorCount++
			continue
		}
		successCount++
		reports += res.reports
	}
	errorCount += len(unmatched)

	fmt.Fprintln(p.out, "\n=== Processing Complete ===")
	fmt.Fprintf(p.out, "Period:          %s\n", period)
	fmt.Fprintf(p.out, "Activities:      %d\n", len(jobs))
	fmt.Fprintf(p.out, "Successful:      %d\n", successCount)
	fmt.Fprintf(p.out, "Errors:          %d\n", errorCount)
	fmt.Fprintf(p.out, "Avisos:          %d\n", reports)
	fmt.Fprintf(p.out, "Time elapsed:    %s\n", time.Since(startTime).Round(time.Millisecond))

	if errorCount > 0 {
		return fmt.Errorf("%d generation(s) failed", errorCount)
	}
	return nil
}

// plan groups the exports into jobs.
//
// PLANNING RULES:
//   - --zero needs --activity and no exports
//   - --activity limits discovery to that activity's file patterns
//   - otherwise every export is matched to a layout; unmatched exports are
//     reported as failures
func (p *pipeline) plan(opts generateOptions) ([]job, []failedFile, error) {
	var only types.ActivityType
	if opts.Activity != "" {
		only = types.ActivityType(opts.Activity).Normalize()
		if !p.registry.Has(only) {
			return nil, nil, apperrors.NewUnknownActivityError(opts.Activity)
		}
	}

	if opts.Zero {
		if only == "" {
			return nil, nil, apperrors.New(apperrors.ErrCodeMissingActivity, "--zero requires --activity")
		}
		if len(opts.Files) > 0 {
			return nil, nil, apperrors.New(apperrors.ErrCodeZeroWithRecords, "--zero does not take --file")
		}
		return []job{{activity: only, config: p.activities[only], zero: true}}, nil, nil
	}

	if only != "" {
		cfg, ok := p.activities[only]
		if !ok {
			return nil, nil, apperrors.Newf(apperrors.ErrCodeInvalidConfig,
				"no layout configured for activity %q", only)
		}
		files := opts.Files
		if len(files) == 0 {
			var err error
			files, err = p.files.DiscoverInputFiles(cfg.FileMatchingPatterns...)
			if err != nil {
				return nil, nil, err
			}
		}
		return []job{{activity: only, config: cfg, files: files}}, nil, nil
	}

	files := opts.Files
	if len(files) == 0 {
		var err error
		files, err = p.files.DiscoverInputFiles()
		if err != nil {
			return nil, nil, err
		}
	}

	byActivity := make(map[types.ActivityType]*job)
	var unmatched []failedFile
	for _, file := range files {
		cfg := config.FindActivityForFile(file, p.activities)
		if cfg == nil {
			unmatched = append(unmatched, failedFile{
				path: file,
				err:  fmt.Errorf("no matching activity configuration found"),
			})
			continue
		}
		j, ok := byActivity[cfg.ActivityType]
		if !ok {
			j = &job{activity: cfg.ActivityType, config: cfg}
			byActivity[cfg.ActivityType] = j
		}
		j.files = append(j.files, file)
	}

	jobs := make([]job, 0, len(byActivity))
	for _, j := range byActivity {
		jobs = append(jobs, *j)
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].activity < jobs[k].activity })
	return jobs, unmatched, nil
}

// =============================================================================
// JOB EXECUTION
// =============================================================================

// execute runs one job end to end.
func (p *pipeline) execute(ctx context.Context, j job, period types.Period, opts generateOptions) (res jobResult) {
	start := time.Now()
	res.job = j
	defer func() { res.elapsed = time.Since(start) }()

	log := p.logger.WithFields(map[string]interface{}{
		"run_id":   p.runID,
		"activity": string(j.activity),
		"period":   period.String(),
	})

	var records []types.OperationRecord
	if !j.zero {
		var err error
		records, res.warnings, err = p.ingest(j, log)
		if err != nil {
			res.err = err
			return res
		}

		if opts.Publish && !opts.IncludeReported {
			records, res.skipped, err = p.dropReported(ctx, j.activity, period, records)
			if err != nil {
				res.err = err
				return res
			}
			if res.skipped > 0 {
				log.Info("Skipping records already reported", map[string]interface{}{"records": res.skipped})
			}
		}

		if err := validation.CheckRecordLimit(len(records), p.cfg.MaxRecordsPerCall); err != nil {
			res.err = err
			return res
		}
	}

	conv := p.converterFor(j, log)
	result, err := conv.Generate(converter.Request{
		ActivityType:   j.activity,
		Period:         period,
		Subject:        p.subject,
		Records:        records,
		ZeroOperations: j.zero,
		GeneratedBy:    p.cfg.GeneratedBy,
	})
	if err != nil {
		res.err = err
		return res
	}
	res.records = result.Stats.RecordsProcessed
	res.reports = result.Stats.ReportsCreated
	res.warnings += len(result.Issues)
	if result.Stats.UnmatchedOperationTypes > 0 {
		log.Warn("Operations classified as deposits by default", map[string]interface{}{
			"records": result.Stats.UnmatchedOperationTypes,
		})
	}

	if opts.DryRun {
		for _, a := range result.Artifacts {
			res.outputs = append(res.outputs, a.FileName)
		}
		return res
	}

	if len(result.Issues) > 0 {
		logPath := filepath.Join(p.cfg.OutputDir, fmt.Sprintf("validation_%s_%s.log", j.activity, period))
		if err := validation.WriteErrorLog(result.Issues, strings.Join(j.files, ", "), logPath); err != nil {
			log.WithError(err).Warn("Failed to write validation log", nil)
		}
	}

	var written []string
	for _, a := range result.Artifacts {
		path, err := p.files.WriteArtifact(a)
		if err != nil {
			res.err = err
			return res
		}
		written = append(written, path)
		res.outputs = append(res.outputs, a.FileName)
	}

	if opts.Publish {
		dispatcher, err := p.openDispatcher(ctx)
		if err != nil {
			res.err = err
			return res
		}
		receipt, err := dispatcher.Apply(ctx, result.Commands)
		if err != nil {
			// Unpublished avisos are removed so a retry can write them again.
			for _, path := range written {
				_ = os.Remove(path)
			}
			res.err = err
			return res
		}
		res.publications = receipt.Publications
		for _, path := range written {
			if _, err := p.files.ArchiveOutputFile(path); err != nil {
				log.WithError(err).Warn("Failed to archive aviso", map[string]interface{}{"file": path})
			}
		}
	}

	for _, file := range j.files {
		archived, err := p.files.ArchiveInputFile(file)
		if err != nil {
			log.WithError(err).Warn("Failed to archive export", map[string]interface{}{"file": file})
			continue
		}
		res.archived = append(res.archived, archived)
	}

	return res
}

// converterFor returns a converter honoring the job's keyword overrides.
func (p *pipeline) converterFor(j job, log logger.Logger) *converter.Converter {
	opts := []converter.Option{
		converter.WithLogger(log),
		converter.WithMetrics(p.metrics),
	}
	if j.config != nil && j.config.GamingKeywords != nil {
		opts = append(opts, converter.WithKeywordSets(converter.KeywordSets{
			Deposits:    j.config.GamingKeywords.Deposits,
			Withdrawals: j.config.GamingKeywords.Withdrawals,
		}))
	}
	return converter.New(p.registry, opts...)
}

// =============================================================================
// INGESTION
// =============================================================================

// parsedExport is one parsed export file.
type parsedExport struct {
	index   int
	path    string
	headers []string
	rows    []types.SourceRow
	err     error
}

// ingest parses the job's exports concurrently and builds their records.
// Any unreadable export fails the whole job so that a period is never
// filed with part of its operations.
func (p *pipeline) ingest(j job, log logger.Logger) ([]types.OperationRecord, int, error) {
	builder, err := ingest.NewBuilder(j.config)
	if err != nil {
		return nil, 0, err
	}

	limit := p.cfg.MaxConcurrency
	if limit <= 0 {
		limit = 1
	}
	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup
	results := make(chan parsedExport, len(j.files))

	for i, file := range j.files {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			headers, rows, err := parseExport(path, j.config)
			results <- parsedExport{index: index, path: path, headers: headers, rows: rows, err: err}
		}(i, file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	parsed := make([]parsedExport, len(j.files))
	for r := range results {
		parsed[r.index] = r
	}

	var records []types.OperationRecord
	warnings := 0
	for _, pe := range parsed {
		if pe.err != nil {
			return nil, warnings, apperrors.Wrap(apperrors.ErrCodeUnreadableInput,
				fmt.Sprintf("failed to read %s", filepath.Base(pe.path)), pe.err)
		}
		if missing := builder.MissingColumns(pe.headers); len(missing) > 0 {
			warnings += len(missing)
			log.Warn("Mapped columns not found in export", map[string]interface{}{
				"file":    filepath.Base(pe.path),
				"columns": strings.Join(missing, ", "),
			})
		}
		records = append(records, builder.Build(pe.rows)...)
		log.Debug("Export parsed", map[string]interface{}{
			"file": filepath.Base(pe.path),
			"rows": len(pe.rows),
		})
	}

	return records, warnings, nil
}

// parseExport reads one export with the parser its extension calls for.
func parseExport(path string, cfg *config.ActivityConfig) ([]string, []types.SourceRow, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		data, err := xlsxparser.Parse(path, xlsxparser.Options{
			SheetName:    cfg.SheetName,
			HeaderRows:   cfg.CSVSettings.HeaderRows,
			DataStartRow: cfg.CSVSettings.DataStartRow,
		})
		if err != nil {
			return nil, nil, err
		}
		return data.Headers, data.Rows, nil
	}

	data, err := csvparser.Parse(path, cfg.CSVSettings)
	if err != nil {
		return nil, nil, err
	}
	return data.Headers, data.Rows, nil
}

// =============================================================================
// DELIVERY
// =============================================================================

// openDispatcher opens the artifact store and the history on first use.
func (p *pipeline) openDispatcher(ctx context.Context) (*delivery.Dispatcher, error) {
	if p.dispatcher != nil {
		return p.dispatcher, nil
	}

	store, err := blob.Open(ctx, p.cfg.Blob)
	if err != nil {
		return nil, err
	}

	opts := []delivery.Option{
		delivery.WithLogger(p.logger),
		delivery.WithMetrics(p.metrics),
	}
	if p.cfg.Blob.PresignExpiry > 0 {
		opts = append(opts, delivery.WithExpiry(p.cfg.Blob.PresignExpiry))
	}
	if h, err := p.openHistory(ctx); err != nil {
		return nil, err
	} else if h != nil {
		opts = append(opts, delivery.WithHistory(h))
	}

	p.dispatcher = delivery.NewDispatcher(store, opts...)
	return p.dispatcher, nil
}

// openHistory returns nil when the history is disabled.
func (p *pipeline) openHistory(ctx context.Context) (*history.Store, error) {
	if p.history != nil {
		return p.history, nil
	}
	if strings.EqualFold(p.cfg.History.Driver, "none") {
		return nil, nil
	}
	h, err := history.Open(ctx, p.cfg.History)
	if err != nil {
		return nil, err
	}
	p.history = h
	return h, nil
}

// dropReported removes the records an earlier publication already reported.
func (p *pipeline) dropReported(ctx context.Context, activity types.ActivityType, period types.Period,
	records []types.OperationRecord) ([]types.OperationRecord, int, error) {

	h, err := p.openHistory(ctx)
	if err != nil || h == nil {
		return records, 0, err
	}
	ids, err := h.ReportedIDs(ctx, activity, period)
	if err != nil || len(ids) == 0 {
		return records, 0, err
	}

	reported := make(map[string]bool, len(ids))
	for _, id := range ids {
		reported[id] = true
	}
	kept := records[:0:0]
	for _, r := range records {
		if !reported[r.ID] {
			kept = append(kept, r)
		}
	}
	return kept, len(records) - len(kept), nil
}

func (p *pipeline) close() {
	if p.history != nil {
		if err := p.history.Close(); err != nil {
			p.logger.WithError(err).Warn("Failed to close history", nil)
		}
	}
}

// =============================================================================
// REPORTING
// =============================================================================

// report prints the outcome of one job.
func (p *pipeline) report(res jobResult) {
	name := string(res.job.activity)
	if res.err != nil {
		fmt.Fprintf(p.out, "  ✗ %s: %v\n", name, res.err)
		return
	}
	fmt.Fprintf(p.out, "  ✓ %s -> %s (%d records, %d avisos)\n",
		name, strings.Join(res.outputs, ", "), res.records, res.reports)
	if res.skipped > 0 {
		fmt.Fprintf(p.out, "      %d record(s) already reported were skipped\n", res.skipped)
	}
	for _, pub := range res.publications {
		fmt.Fprintf(p.out, "      published %s\n", pub.URL)
	}
}

// summarize converts a job result into its summary log.
func (p *pipeline) summarize(res jobResult, period types.Period, start time.Time) utils.ProcessingSummary {
	summary := utils.ProcessingSummary{
		RunID:        p.runID,
		ActivityType: res.job.activity,
		Period:       period,
		StartTime:    start,
		EndTime:      time.Now(),
		TotalFiles:   len(res.job.files),
		TotalRecords: res.records,
		TotalReports: res.reports,
		Warnings:     res.warnings,
	}

	if res.err != nil {
		summary.FailedFiles = len(res.job.files)
		for _, file := range res.job.files {
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    file,
				ErrorMessage: res.err.Error(),
				ErrorCode:    string(apperrors.CodeOf(res.err)),
			})
		}
		return summary
	}

	summary.SuccessfulFiles = len(res.job.files)
	info := utils.ProcessedFileInfo{
		InputFile:   strings.Join(res.job.files, ", "),
		OutputFiles: res.outputs,
		ArchivePath: strings.Join(res.archived, ", "),
		Records:     res.records,
		Reports:     res.reports,
		Warnings:    res.warnings,
		ProcessTime: res.elapsed,
	}
	if res.job.zero {
		info.InputFile = "(zero operations)"
	}
	summary.ProcessedFiles = append(summary.ProcessedFiles, info)
	return summary
}
