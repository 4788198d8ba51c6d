package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ginjaninja78/avisos/internal/errors"
	"github.com/ginjaninja78/avisos/internal/types"
)

var (
	testPeriod  = types.Period{Year: 2024, Month: 3}
	testSubject = types.SubjectProfile{TaxID: "AAA010101AAA", LegalName: "Autos del Norte", ObligorKey: "000123"}
)

func goodRecord() types.OperationRecord {
	return types.OperationRecord{
		ID:                "r1",
		RowNumber:         2,
		OperationDate:     "2024-03-05",
		Amount:            "$1,500.00",
		CounterpartyTaxID: "PEGJ800101AB1",
		CounterpartyName:  "Juan Perez",
	}
}

func TestValidateRequest(t *testing.T) {
	mismatchActivity := goodRecord()
	mismatchActivity.ActivityType = types.ActivityVehicles

	mismatchPeriod := goodRecord()
	mismatchPeriod.Period = types.Period{Year: 2024, Month: 4}

	matching := goodRecord()
	matching.ActivityType = "INMUEBLES"
	matching.Period = testPeriod

	tests := []struct {
		name string
		req  RequestCheck
		code apperrors.ErrorCode
	}{
		{
			name: "missing period",
			req:  RequestCheck{Activity: types.ActivityRealEstate, Subject: testSubject, Records: []types.OperationRecord{goodRecord()}},
			code: apperrors.ErrCodeMissingPeriod,
		},
		{
			name: "invalid month",
			req:  RequestCheck{Activity: types.ActivityRealEstate, Period: types.Period{Year: 2024, Month: 13}, Subject: testSubject, Records: []types.OperationRecord{goodRecord()}},
			code: apperrors.ErrCodeMissingPeriod,
		},
		{
			name: "subject without tax id",
			req:  RequestCheck{Activity: types.ActivityRealEstate, Period: testPeriod, Subject: types.SubjectProfile{LegalName: "X"}, Records: []types.OperationRecord{goodRecord()}},
			code: apperrors.ErrCodeSubjectIncomplete,
		},
		{
			name: "subject without name",
			req:  RequestCheck{Activity: types.ActivityRealEstate, Period: testPeriod, Subject: types.SubjectProfile{TaxID: "AAA010101AAA"}, Records: []types.OperationRecord{goodRecord()}},
			code: apperrors.ErrCodeSubjectIncomplete,
		},
		{
			name: "empty without zero flag",
			req:  RequestCheck{Activity: types.ActivityRealEstate, Period: testPeriod, Subject: testSubject},
			code: apperrors.ErrCodeEmptyRecordSet,
		},
		{
			name: "zero flag with records",
			req:  RequestCheck{Activity: types.ActivityRealEstate, Period: testPeriod, Subject: testSubject, Records: []types.OperationRecord{goodRecord()}, ZeroOperations: true},
			code: apperrors.ErrCodeZeroWithRecords,
		},
		{
			name: "record from another activity",
			req:  RequestCheck{Activity: types.ActivityRealEstate, Period: testPeriod, Subject: testSubject, Records: []types.OperationRecord{mismatchActivity}},
			code: apperrors.ErrCodeRecordMismatch,
		},
		{
			name: "record from another period",
			req:  RequestCheck{Activity: types.ActivityRealEstate, Period: testPeriod, Subject: testSubject, Records: []types.OperationRecord{mismatchPeriod}},
			code: apperrors.ErrCodeRecordMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.IsInput(err))
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
		})
	}

	t.Run("valid", func(t *testing.T) {
		err := ValidateRequest(RequestCheck{
			Activity: types.ActivityRealEstate, Period: testPeriod, Subject: testSubject,
			Records: []types.OperationRecord{goodRecord(), matching},
		})
		assert.NoError(t, err)
	})

	t.Run("valid zero report", func(t *testing.T) {
		err := ValidateRequest(RequestCheck{
			Activity: types.ActivityRealEstate, Period: testPeriod, Subject: testSubject, ZeroOperations: true,
		})
		assert.NoError(t, err)
	})
}

func TestCheckRecordLimit(t *testing.T) {
	assert.NoError(t, CheckRecordLimit(10, 0))
	assert.NoError(t, CheckRecordLimit(10, 10))

	err := CheckRecordLimit(11, 10)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeRecordLimit, apperrors.CodeOf(err))
}

func TestValidateRecord_Clean(t *testing.T) {
	assert.Empty(t, NewValidator().ValidateRecord(goodRecord()))
}

func TestValidateRecord_Warnings(t *testing.T) {
	notOwn := false
	r := types.OperationRecord{
		RowNumber:         7,
		OperationDate:     "not a date",
		Amount:            "N/A",
		CounterpartyTaxID: "ABC",
		Domicile:          types.Domicile{PostalCode: "123"},
		Contact:           types.Contact{Email: "nope"},
		ActingOnOwnBehalf: &notOwn,
	}

	findings := NewValidator().ValidateRecord(r)

	rules := map[string]string{}
	for _, f := range findings {
		assert.Equal(t, SeverityWarning, f.Severity)
		assert.Equal(t, 7, f.RowNumber)
		rules[f.Field] = f.Rule
	}
	assert.Equal(t, map[string]string{
		"counterparty_tax_id": "tax_id_length",
		"counterparty_name":   "required",
		"amount":              "data_type",
		"operation_date":      "data_type",
		"postal_code":         "postal_code",
		"email":               "email",
		"beneficiary":         "conditional_required",
	}, rules)
}

func TestValidateAll(t *testing.T) {
	bad := goodRecord()
	bad.Amount = ""

	result := NewValidator().ValidateAll([]types.OperationRecord{goodRecord(), bad})
	assert.True(t, result.IsValid)
	assert.Equal(t, 2, result.RecordsValidated)
	assert.Equal(t, 1, result.WarningCount)
	assert.Equal(t, 0, result.ErrorCount)

	strict := NewValidatorWithOptions(ValidationOptions{TreatWarningsAsErrors: true})
	result = strict.ValidateAll([]types.OperationRecord{bad})
	assert.False(t, result.IsValid)
	assert.Equal(t, 1, result.ErrorCount)
}

func TestValidateAll_CustomValidator(t *testing.T) {
	v := NewValidatorWithOptions(ValidationOptions{
		CustomValidators: map[string]CustomValidatorFunc{
			"max_amount": func(r types.OperationRecord) string {
				if r.Amount == "$1,500.00" {
					return "amount above threshold"
				}
				return ""
			},
		},
	})

	result := v.ValidateAll([]types.OperationRecord{goodRecord()})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "max_amount", result.Errors[0].Rule)
	assert.False(t, result.IsValid)
}

func TestFormatErrors(t *testing.T) {
	assert.Equal(t, "No validation issues.", FormatErrors(nil))

	out := FormatErrors([]ValidationError{{
		Severity: SeverityWarning, Field: "amount", Value: "N/A", Message: "bad", RowNumber: 3,
	}})
	assert.Contains(t, out, "1 issue(s)")
	assert.Contains(t, out, "1. [WARNING] Row 3, Field 'amount': bad (value: 'N/A')")
}

func TestWriteErrorLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	findings := []ValidationError{{Severity: SeverityWarning, Field: "email", Value: "x", Message: "bad", RowNumber: 4}}

	require.NoError(t, WriteErrorLog(findings, "ventas_marzo.csv", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Source: ventas_marzo.csv\n"))
	assert.Contains(t, string(data), "Field 'email'")
}
