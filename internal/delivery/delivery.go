// =============================================================================
// Avisos Generator - Delivery
// =============================================================================
//
// This module applies the commands returned by the generator:
//   PublishArtifact     -> artifact store + retrieval reference
//   RecordGeneration    -> generation history entry (timestamp stamped here)
//   MarkRecordsReported -> record status
//
// Nothing is delivered partially: when a command fails, artifacts already
// published by the same batch and its generation entry are removed, and the
// remaining commands are skipped.
//
// =============================================================================

package delivery

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ginjaninja78/avisos/internal/blob"
	apperrors "github.com/ginjaninja78/avisos/internal/errors"
	"github.com/ginjaninja78/avisos/internal/history"
	"github.com/ginjaninja78/avisos/internal/logger"
	"github.com/ginjaninja78/avisos/internal/metrics"
	"github.com/ginjaninja78/avisos/internal/types"
)

// HistoryStore persists generation runs and record status.
type HistoryStore interface {
	RecordGeneration(ctx context.Context, e history.Entry) (history.Entry, error)
	MarkReported(ctx context.Context, activity types.ActivityType, period types.Period, ids []string, at time.Time) (int, error)
	DeleteGeneration(ctx context.Context, id string) error
}

// Publication is the retrieval reference of one published artifact.
type Publication struct {
	FileName  string
	Key       string
	URL       string
	Size      int64
	ExpiresAt time.Time
}

// Receipt summarizes an applied command batch.
type Receipt struct {
	Publications  []Publication
	History       *history.Entry
	MarkedRecords int
}

// Dispatcher applies command batches against injected collaborators.
type Dispatcher struct {
	store   blob.Store
	history HistoryStore
	clock   func() time.Time
	expiry  time.Duration
	logger  logger.Logger
	metrics *metrics.Recorder
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHistory enables the history and record status commands. Without a
// history store those commands are skipped.
func WithHistory(h HistoryStore) Option { return func(d *Dispatcher) { d.history = h } }

// WithClock replaces time.Now for timestamps.
func WithClock(clock func() time.Time) Option { return func(d *Dispatcher) { d.clock = clock } }

// WithExpiry sets the lifetime of retrieval references.
func WithExpiry(expiry time.Duration) Option { return func(d *Dispatcher) { d.expiry = expiry } }

// WithLogger sets the dispatcher logger.
func WithLogger(l logger.Logger) Option { return func(d *Dispatcher) { d.logger = l } }

// WithMetrics records one delivery outcome per command.
func WithMetrics(m *metrics.Recorder) Option { return func(d *Dispatcher) { d.metrics = m } }

// NewDispatcher creates a Dispatcher publishing to store.
func NewDispatcher(store blob.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:  store,
		clock:  func() time.Time { return time.Now().UTC() },
		expiry: blob.DefaultPresignExpiry,
		logger: logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ArtifactKey is the store key of an artifact: <activity>/<YYYYMM>/<file>.
func ArtifactKey(a types.Artifact) string {
	return fmt.Sprintf("%s/%s/%s", a.ActivityType, a.Period, a.FileName)
}

// Apply runs cmds in order.
//
// RETURNS:
//   - The receipt of everything applied
//   - STORAGE_FAILED or HISTORY_FAILED; published artifacts of this batch
//     have been removed by then
func (d *Dispatcher) Apply(ctx context.Context, cmds []types.Command) (*Receipt, error) {
	receipt := &Receipt{}
	now := d.clock()

	for _, cmd := range cmds {
		err := d.apply(ctx, cmd, now, receipt)
		d.metrics.ObserveDelivery(cmd.CommandName(), err)
		if err != nil {
			d.logger.WithError(err).Error("Delivery failed", map[string]interface{}{
				"command":   cmd.CommandName(),
				"published": len(receipt.Publications),
			})
			d.rollback(ctx, receipt)
			return nil, err
		}
	}
	return receipt, nil
}

func (d *Dispatcher) apply(ctx context.Context, cmd types.Command, now time.Time, receipt *Receipt) error {
	switch c := cmd.(type) {
	case types.PublishArtifact:
		pub, err := d.publish(ctx, c.Artifact, now)
		if err != nil {
			return err
		}
		receipt.Publications = append(receipt.Publications, pub)
		d.logger.Info("Artifact published", map[string]interface{}{
			"file": pub.FileName,
			"key":  pub.Key,
			"size": pub.Size,
		})

	case types.RecordGeneration:
		if d.history == nil {
			d.logger.Debug("History disabled, generation not recorded", nil)
			return nil
		}
		entry, err := d.history.RecordGeneration(ctx, history.Entry{
			ActivityType: c.ActivityType,
			Period:       c.Period,
			RecordCount:  c.RecordCount,
			ReportCount:  c.ReportCount,
			ZeroFlag:     c.ZeroFlag,
			GeneratedBy:  c.GeneratedBy,
			Timestamp:    now,
			FileNames:    c.FileNames,
		})
		if err != nil {
			return asHistoryError("record_generation", err)
		}
		receipt.History = &entry

	case types.MarkRecordsReported:
		if d.history == nil {
			return nil
		}
		n, err := d.history.MarkReported(ctx, c.ActivityType, c.Period, c.RecordIDs, now)
		if err != nil {
			return asHistoryError("mark_reported", err)
		}
		receipt.MarkedRecords += n

	default:
		return apperrors.Newf(apperrors.ErrCodeUnknownCommand, "unknown command %q", cmd.CommandName())
	}
	return nil
}

func (d *Dispatcher) publish(ctx context.Context, a types.Artifact, now time.Time) (Publication, error) {
	key := ArtifactKey(a)
	info, err := d.store.Put(ctx, key, bytes.NewReader(a.XML), blob.PutOptions{
		ContentType: "application/xml",
		Metadata: map[string]string{
			"activity": string(a.ActivityType),
			"period":   a.Period.String(),
			"variant":  string(a.Variant),
		},
	})
	if err != nil {
		return Publication{}, apperrors.NewStorageError(key, err)
	}

	url, err := d.store.PresignURL(ctx, key, blob.SignedURLOptions{Method: "GET", Expiry: d.expiry})
	if err != nil {
		_, _ = d.store.Delete(ctx, key)
		return Publication{}, apperrors.NewStorageError(key, err)
	}
	return Publication{
		FileName:  a.FileName,
		Key:       key,
		URL:       url,
		Size:      info.Size,
		ExpiresAt: now.Add(d.expiry),
	}, nil
}

// rollback removes the history entry and the artifacts of a failed batch.
func (d *Dispatcher) rollback(ctx context.Context, receipt *Receipt) {
	if receipt.History != nil && d.history != nil {
		if err := d.history.DeleteGeneration(ctx, receipt.History.ID); err != nil {
			d.logger.WithError(err).Warn("Failed to remove generation entry", map[string]interface{}{"id": receipt.History.ID})
		}
	}
	for _, p := range receipt.Publications {
		if _, err := d.store.Delete(ctx, p.Key); err != nil {
			d.logger.WithError(err).Warn("Failed to remove published artifact", map[string]interface{}{"key": p.Key})
		}
	}
}

// asHistoryError keeps errors that already carry a code.
func asHistoryError(op string, err error) error {
	if apperrors.CodeOf(err) != "" {
		return err
	}
	return apperrors.NewHistoryError(op, err)
}
