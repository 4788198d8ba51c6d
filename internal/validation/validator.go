// =============================================================================
// Avisos Generator - Validation Engine
// =============================================================================
//
// This module validates generation requests and inspects operation records
// for data-quality problems.
//
// VALIDATION STRATEGY:
//   Validation is performed at two levels:
//   1. Request-level: activity, period, subject and record set. Failures are
//      input errors and stop generation.
//   2. Record-level: amounts, dates, tax ids, postal codes. Failures are
//      warnings; the sanitizers substitute safe defaults and generation
//      continues.
//
// ERROR HANDLING:
//   - Record issues are collected, not returned immediately
//   - Each issue includes its context (row, record, field, value)
//   - Warnings can be promoted to errors with TreatWarningsAsErrors
//
// =============================================================================

package validation

import (
	"bufio"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	apperrors "github.com/ginjaninja78/avisos/internal/errors"
	"github.com/ginjaninja78/avisos/internal/sanitize"
	"github.com/ginjaninja78/avisos/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity indicates the severity of the finding.
	// "error" = the record should be fixed before it is reported
	// "warning" = a default was substituted, processing can continue
	Severity string

	// Field is the name of the record field that failed validation.
	Field string

	// Value is the raw value that failed validation.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable message.
	Message string

	// RecordID is the ID of the record containing the issue.
	RecordID string

	// RowNumber is the original source row number (for error reporting).
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] Row %d, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.RowNumber,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of record validation.
type ValidationResult struct {
	// IsValid is true if there are no error-level findings.
	IsValid bool

	// Errors contains all findings (including warnings).
	Errors []ValidationError

	ErrorCount   int
	WarningCount int

	// RecordsValidated is the total number of records inspected.
	RecordsValidated int
}

// =============================================================================
// REQUEST VALIDATION
// =============================================================================

// RequestCheck carries the request values checked before generation.
// Activity must already be resolved against the registry.
type RequestCheck struct {
	Activity       types.ActivityType
	Period         types.Period
	Subject        types.SubjectProfile
	Records        []types.OperationRecord
	ZeroOperations bool
}

// ValidateRequest checks a generation request and returns an input error
// for the first violation found.
//
// CHECK ORDER:
//  1. Period present and valid
//  2. Subject tax id and legal name present
//  3. Records present, or the zero flag set (never both)
//  4. Every record belongs to the requested activity and period
func ValidateRequest(req RequestCheck) error {
	if req.Period.IsZero() {
		return apperrors.New(apperrors.ErrCodeMissingPeriod, "reporting period is required")
	}
	if !req.Period.Valid() {
		return apperrors.Newf(apperrors.ErrCodeMissingPeriod, "reporting period %s is not valid", req.Period)
	}

	if sanitize.SanitizeTaxID(req.Subject.TaxID) == "" {
		return apperrors.New(apperrors.ErrCodeSubjectIncomplete, "subject profile has no tax id")
	}
	if sanitize.SanitizeText(req.Subject.LegalName, sanitize.MaxNameLength) == "" {
		return apperrors.New(apperrors.ErrCodeSubjectIncomplete, "subject profile has no legal name")
	}

	if req.ZeroOperations && len(req.Records) > 0 {
		return apperrors.Newf(apperrors.ErrCodeZeroWithRecords,
			"zero-operations report requested with %d records", len(req.Records))
	}
	if !req.ZeroOperations && len(req.Records) == 0 {
		return apperrors.New(apperrors.ErrCodeEmptyRecordSet,
			"no records to report; set the zero-operations flag to file an empty report")
	}

	for i, r := range req.Records {
		if a := r.ActivityType.Normalize(); a != "" && a != req.Activity {
			return apperrors.Newf(apperrors.ErrCodeRecordMismatch,
				"record %d has activity %q, request is for %q", position(r, i), a, req.Activity).
				WithMetadata("record_id", r.ID)
		}
		if !r.Period.IsZero() && r.Period != req.Period {
			return apperrors.Newf(apperrors.ErrCodeRecordMismatch,
				"record %d has period %s, request is for %s", position(r, i), r.Period, req.Period).
				WithMetadata("record_id", r.ID)
		}
	}

	return nil
}

// CheckRecordLimit returns an input error when count exceeds max. A max of
// zero or less disables the check.
func CheckRecordLimit(count, max int) error {
	if max > 0 && count > max {
		return apperrors.Newf(apperrors.ErrCodeRecordLimit,
			"%d records exceed the limit of %d per generation", count, max)
	}
	return nil
}

func position(r types.OperationRecord, index int) int {
	if r.RowNumber > 0 {
		return r.RowNumber
	}
	return index + 1
}

// =============================================================================
// VALIDATOR
// =============================================================================

// CustomValidatorFunc validates one record and returns a message when the
// record fails. The returned finding is an error.
type CustomValidatorFunc func(record types.OperationRecord) string

// ValidationOptions contains options for record validation.
type ValidationOptions struct {
	// TreatWarningsAsErrors treats warnings as errors.
	// Default: false
	TreatWarningsAsErrors bool

	// CustomValidators run after the built-in checks, keyed by rule name.
	CustomValidators map[string]CustomValidatorFunc
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{
		CustomValidators: make(map[string]CustomValidatorFunc),
	}
}

// Validator inspects operation records.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a new Validator with default options.
func NewValidator() *Validator {
	return &Validator{options: DefaultValidationOptions()}
}

// NewValidatorWithOptions creates a new Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// InspectRecords returns the data-quality findings for records using the
// default options.
func InspectRecords(records []types.OperationRecord) []ValidationError {
	return NewValidator().ValidateAll(records).Errors
}

// ValidateAll inspects every record and returns a detailed result.
func (v *Validator) ValidateAll(records []types.OperationRecord) ValidationResult {
	result := ValidationResult{
		IsValid:          true,
		RecordsValidated: len(records),
	}

	for _, record := range records {
		for _, finding := range v.ValidateRecord(record) {
			if v.options.TreatWarningsAsErrors {
				finding.Severity = SeverityError
			}
			if finding.Severity == SeverityError {
				result.ErrorCount++
				result.IsValid = false
			} else {
				result.WarningCount++
			}
			result.Errors = append(result.Errors, finding)
		}
	}

	return result
}

// ValidateRecord inspects a single record.
func (v *Validator) ValidateRecord(record types.OperationRecord) []ValidationError {
	var findings []ValidationError
	add := func(severity, field, value, rule, message string) {
		findings = append(findings, ValidationError{
			Severity:  severity,
			Field:     field,
			Value:     value,
			Rule:      rule,
			Message:   message,
			RecordID:  record.ID,
			RowNumber: record.RowNumber,
		})
	}

	// =========================================================================
	// COUNTERPARTY
	// =========================================================================

	taxID := sanitize.SanitizeTaxID(record.CounterpartyTaxID)
	switch {
	case taxID == "":
		add(SeverityWarning, "counterparty_tax_id", record.CounterpartyTaxID, "required",
			"Counterparty has no tax id; the record is reported on its own")
	case len([]rune(taxID)) != 12 && len([]rune(taxID)) != 13:
		add(SeverityWarning, "counterparty_tax_id", record.CounterpartyTaxID, "tax_id_length",
			fmt.Sprintf("Tax id has %d characters, expected 12 or 13", len([]rune(taxID))))
	}

	if sanitize.SanitizeText(record.CounterpartyName, sanitize.MaxNameLength) == "" {
		add(SeverityWarning, "counterparty_name", record.CounterpartyName, "required",
			"Counterparty has no name")
	}

	// =========================================================================
	// OPERATION
	// =========================================================================

	if strings.TrimSpace(record.Amount) == "" {
		add(SeverityWarning, "amount", record.Amount, "required", "Amount is empty and is reported as 0.00")
	} else if !sanitize.IsNumeric(record.Amount) {
		add(SeverityWarning, "amount", record.Amount, "data_type", "Amount is not a number and is reported as 0.00")
	}

	if strings.TrimSpace(record.OperationDate) == "" {
		add(SeverityWarning, "operation_date", record.OperationDate, "required", "Operation date is empty")
	} else if sanitize.FormatDate(record.OperationDate) == "" {
		add(SeverityWarning, "operation_date", record.OperationDate, "data_type", "Operation date is not a recognized date")
	}

	if bd := record.Person.BirthOrIncorporationDate; strings.TrimSpace(bd) != "" && sanitize.FormatDate(bd) == "" {
		add(SeverityWarning, "birth_or_incorporation_date", bd, "data_type", "Date is not recognized and is omitted")
	}

	// =========================================================================
	// DOMICILE AND CONTACT
	// =========================================================================

	if pc := strings.TrimSpace(record.Domicile.PostalCode); pc != "" && len(sanitize.DigitsOnly(pc, 0)) != 5 {
		add(SeverityWarning, "postal_code", pc, "postal_code", "Postal code does not have 5 digits")
	}

	if email := strings.TrimSpace(record.Contact.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			add(SeverityWarning, "email", email, "email", "Email address is not valid")
		}
	}

	if record.ActingOnOwnBehalf != nil && !*record.ActingOnOwnBehalf &&
		strings.TrimSpace(record.Beneficiary.Name) == "" && strings.TrimSpace(record.Beneficiary.TaxID) == "" {
		add(SeverityWarning, "beneficiary", "", "conditional_required",
			"Counterparty acts on behalf of a third party but no beneficiary is given")
	}

	// =========================================================================
	// CUSTOM VALIDATORS
	// =========================================================================

	for rule, fn := range v.options.CustomValidators {
		if msg := fn(record); msg != "" {
			add(SeverityError, "", "", rule, msg)
		}
	}

	return findings
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats findings for display or logging.
func FormatErrors(errors []ValidationError) string {
	if len(errors) == 0 {
		return "No validation issues."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Validation completed with %d issue(s):\n\n", len(errors)))
	for i := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, errors[i].Error()))
	}
	return builder.String()
}

// WriteErrorLog writes findings to filePath with a header naming source.
func WriteErrorLog(errors []ValidationError, source, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "Source: %s\n", source)
	fmt.Fprintf(writer, "Generated: %s\n\n", time.Now().Format(time.RFC3339))
	writer.WriteString(FormatErrors(errors))

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write error log: %w", err)
	}
	return nil
}
