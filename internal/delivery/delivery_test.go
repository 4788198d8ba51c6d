package delivery

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/avisos/internal/blob"
	apperrors "github.com/ginjaninja78/avisos/internal/errors"
	"github.com/ginjaninja78/avisos/internal/history"
	"github.com/ginjaninja78/avisos/internal/logger"
	"github.com/ginjaninja78/avisos/internal/metrics"
	"github.com/ginjaninja78/avisos/internal/types"
)

var (
	march = types.Period{Year: 2024, Month: 3}
	fixed = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
)

type fakeHistory struct {
	entries   []history.Entry
	marked    map[string]bool
	markedAt  time.Time
	recordErr error
	markErr   error
}

func (f *fakeHistory) RecordGeneration(_ context.Context, e history.Entry) (history.Entry, error) {
	if f.recordErr != nil {
		return history.Entry{}, f.recordErr
	}
	e.ID = "gen-1"
	f.entries = append(f.entries, e)
	return e, nil
}

func (f *fakeHistory) MarkReported(_ context.Context, _ types.ActivityType, _ types.Period, ids []string, at time.Time) (int, error) {
	if f.markErr != nil {
		return 0, f.markErr
	}
	if f.marked == nil {
		f.marked = make(map[string]bool)
	}
	f.markedAt = at
	n := 0
	for _, id := range ids {
		if !f.marked[id] {
			f.marked[id] = true
			n++
		}
	}
	return n, nil
}

func (f *fakeHistory) DeleteGeneration(_ context.Context, id string) error {
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	f.entries = kept
	return nil
}

// failingStore fails Put for one key.
type failingStore struct {
	blob.Store
	failKey string
}

func (s *failingStore) Put(ctx context.Context, key string, r io.Reader, opts blob.PutOptions) (blob.Info, error) {
	if key == s.failKey {
		return blob.Info{}, errors.New("bucket unavailable")
	}
	return s.Store.Put(ctx, key, r, opts)
}

func artifact(name string, variant types.Variant) types.Artifact {
	return types.Artifact{
		FileName:     name,
		XML:          []byte("<archivo/>"),
		Variant:      variant,
		ActivityType: types.ActivityGaming,
		Period:       march,
	}
}

func gamingBatch() []types.Command {
	return []types.Command{
		types.PublishArtifact{Artifact: artifact("AAA010101AAA_JYS_DEPOSITOS_202403.xml", types.VariantDeposits)},
		types.PublishArtifact{Artifact: artifact("AAA010101AAA_JYS_RETIROS_202403.xml", types.VariantWithdrawals)},
		types.RecordGeneration{
			ActivityType: types.ActivityGaming,
			Period:       march,
			RecordCount:  5,
			ReportCount:  2,
			GeneratedBy:  "ops",
			FileNames:    []string{"AAA010101AAA_JYS_DEPOSITOS_202403.xml", "AAA010101AAA_JYS_RETIROS_202403.xml"},
		},
		types.MarkRecordsReported{ActivityType: types.ActivityGaming, Period: march, RecordIDs: []string{"r1", "r2", "r3", "r4", "r5"}},
	}
}

func TestDispatcher_Apply(t *testing.T) {
	store := blob.NewMemory("https://avisos.example.com")
	hist := &fakeHistory{}
	rec := metrics.New()
	d := NewDispatcher(store,
		WithHistory(hist),
		WithClock(func() time.Time { return fixed }),
		WithLogger(logger.NewTestLogger(t)),
		WithMetrics(rec),
	)

	receipt, err := d.Apply(context.Background(), gamingBatch())
	require.NoError(t, err)

	require.Len(t, receipt.Publications, 2)
	first := receipt.Publications[0]
	assert.Equal(t, "juegos_apuestas/202403/AAA010101AAA_JYS_DEPOSITOS_202403.xml", first.Key)
	assert.Equal(t, "https://avisos.example.com/"+first.Key, first.URL)
	assert.Equal(t, fixed.Add(15*time.Minute), first.ExpiresAt)
	assert.Equal(t, int64(len("<archivo/>")), first.Size)

	info, err := store.Head(context.Background(), first.Key)
	require.NoError(t, err)
	assert.Equal(t, "application/xml", info.ContentType)
	assert.Equal(t, "DEPOSITOS", info.Metadata["variant"])

	require.NotNil(t, receipt.History)
	assert.Equal(t, fixed, receipt.History.Timestamp)
	assert.Equal(t, 2, receipt.History.ReportCount)
	assert.Equal(t, 5, receipt.MarkedRecords)
	assert.Equal(t, fixed, hist.markedAt)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.Deliveries.WithLabelValues("publish_artifact", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Deliveries.WithLabelValues("record_generation", "ok")))
}

func TestDispatcher_WithoutHistory(t *testing.T) {
	d := NewDispatcher(blob.NewMemory(""))
	receipt, err := d.Apply(context.Background(), gamingBatch())
	require.NoError(t, err)
	assert.Len(t, receipt.Publications, 2)
	assert.Nil(t, receipt.History)
	assert.Zero(t, receipt.MarkedRecords)
}

func TestDispatcher_StorageFailureRollsBack(t *testing.T) {
	mem := blob.NewMemory("")
	store := &failingStore{Store: mem, failKey: "juegos_apuestas/202403/AAA010101AAA_JYS_RETIROS_202403.xml"}
	hist := &fakeHistory{}
	rec := metrics.New()
	d := NewDispatcher(store, WithHistory(hist), WithMetrics(rec))

	receipt, err := d.Apply(context.Background(), gamingBatch())
	require.Error(t, err)
	assert.Nil(t, receipt)
	assert.Equal(t, apperrors.ErrCodeStorageFailed, apperrors.CodeOf(err))

	left, err := mem.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, left, "first artifact must be removed")
	assert.Empty(t, hist.entries, "history must not be recorded")
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Deliveries.WithLabelValues("publish_artifact", "error")))
}

func TestDispatcher_HistoryFailureRollsBack(t *testing.T) {
	mem := blob.NewMemory("")
	hist := &fakeHistory{recordErr: errors.New("database is locked")}
	d := NewDispatcher(mem, WithHistory(hist))

	_, err := d.Apply(context.Background(), gamingBatch())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeHistoryFailed, apperrors.CodeOf(err))
	assert.True(t, apperrors.IsDependency(err))

	left, err := mem.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.Nil(t, hist.marked)
}

func TestDispatcher_MarkFailureRemovesHistoryEntry(t *testing.T) {
	mem := blob.NewMemory("")
	hist := &fakeHistory{markErr: errors.New("database is locked")}
	d := NewDispatcher(mem, WithHistory(hist))

	_, err := d.Apply(context.Background(), gamingBatch())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeHistoryFailed, apperrors.CodeOf(err))
	assert.Empty(t, hist.entries)

	left, err := mem.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestDispatcher_MarkFailureWithSQLStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var entryID string
	mock.ExpectExec(`INSERT INTO generation_history`).
		WithArgs(sqlmock.AnyArg(), "juegos_apuestas", "202403", 5, 2, 0, "ops", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reported_records`).
		WithArgs("juegos_apuestas", "202403", "r1", sqlmock.AnyArg()).
		WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()
	mock.ExpectExec(`DELETE FROM generation_history WHERE id = \?`).
		WithArgs(idCapture{&entryID}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mem := blob.NewMemory("")
	d := NewDispatcher(mem, WithHistory(history.NewStore(db, history.DialectSQLite)))

	_, err = d.Apply(context.Background(), gamingBatch())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeHistoryFailed, apperrors.CodeOf(err))
	assert.NotEmpty(t, entryID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// idCapture accepts any non-empty string argument and keeps it.
type idCapture struct{ id *string }

func (c idCapture) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok || s == "" {
		return false
	}
	*c.id = s
	return true
}

func TestDispatcher_KeepsHistoryErrorCode(t *testing.T) {
	coded := apperrors.NewHistoryError("mark_reported", errors.New("boom"))
	d := NewDispatcher(blob.NewMemory(""), WithHistory(&fakeHistory{markErr: coded}))

	_, err := d.Apply(context.Background(), []types.Command{
		types.MarkRecordsReported{ActivityType: types.ActivityGaming, Period: march, RecordIDs: []string{"r1"}},
	})
	require.Error(t, err)
	assert.Same(t, coded, err)
}

type bogusCommand struct{}

func (bogusCommand) CommandName() string { return "bogus" }

func TestDispatcher_UnknownCommand(t *testing.T) {
	_, err := NewDispatcher(blob.NewMemory("")).Apply(context.Background(), []types.Command{bogusCommand{}})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUnknownCommand, apperrors.CodeOf(err))
}

func TestArtifactKey(t *testing.T) {
	a := types.Artifact{FileName: "X_VEH_202401.xml", ActivityType: types.ActivityVehicles, Period: types.Period{Year: 2024, Month: 1}}
	assert.Equal(t, "vehiculos/202401/X_VEH_202401.xml", ArtifactKey(a))
}
