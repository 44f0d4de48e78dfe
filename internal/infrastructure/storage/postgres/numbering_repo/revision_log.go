package numbering_repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "policyhub/internal/core/context"
	"policyhub/internal/core/id"
	"policyhub/internal/domain/numbering"
	"policyhub/internal/infrastructure/storage/postgres"
)

const revisionsTable = "num_generator_revisions"

// Compression names stored in num_generator_revisions.compression.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
)

// DefaultCompressThreshold is the snapshot size above which zstd is used.
const DefaultCompressThreshold = 512

// Compile-time check that RevisionLog implements numbering.RevisionLog.
var _ numbering.RevisionLog = (*RevisionLog)(nil)

// RevisionLog stores JSON snapshots of generators before each update.
type RevisionLog struct {
	txm       *postgres.TxManager
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	threshold int
}

// NewRevisionLog creates a revision log. Snapshots longer than threshold
// bytes are zstd-compressed; a negative threshold disables compression.
func NewRevisionLog(txm *postgres.TxManager, threshold int) (*RevisionLog, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &RevisionLog{
		txm:       txm,
		encoder:   encoder,
		decoder:   decoder,
		threshold: threshold,
	}, nil
}

type revisionRow struct {
	Version     int       `db:"version"`
	Snapshot    []byte    `db:"snapshot"`
	Compression string    `db:"compression"`
	RecordedBy  string    `db:"recorded_by"`
	RecordedAt  time.Time `db:"recorded_at"`
}

// Record implements numbering.RevisionLog.
func (l *RevisionLog) Record(ctx context.Context, previous *numbering.Generator) error {
	snapshot, compression, err := l.encode(previous)
	if err != nil {
		return err
	}

	q := builder().
		Insert(revisionsTable).
		SetMap(map[string]any{
			"id":           id.New(),
			"tenant_id":    previous.TenantID,
			"generator_id": previous.ID,
			"version":      previous.Version,
			"snapshot":     snapshot,
			"compression":  compression,
			"recorded_by":  appctx.GetUserID(ctx),
			"recorded_at":  time.Now().UTC(),
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := l.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.Classify(fmt.Errorf("insert %s: %w", revisionsTable, err))
	}
	return nil
}

// List implements numbering.RevisionLog.
func (l *RevisionLog) List(ctx context.Context, tenantID string, generatorID id.ID, limit int) ([]numbering.Revision, error) {
	q := builder().
		Select("version", "snapshot", "compression", "recorded_by", "recorded_at").
		From(revisionsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "generator_id": generatorID}).
		OrderBy("version DESC", "recorded_at DESC").
		Limit(uint64(limit))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []revisionRow
	if err := pgxscan.Select(ctx, l.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, postgres.Classify(fmt.Errorf("list revisions: %w", err))
	}

	out := make([]numbering.Revision, 0, len(rows))
	for _, row := range rows {
		g, err := l.decode(row.Snapshot, row.Compression)
		if err != nil {
			return nil, fmt.Errorf("revision %d: %w", row.Version, err)
		}
		out = append(out, numbering.Revision{
			GeneratorID: generatorID,
			Version:     row.Version,
			Snapshot:    g,
			RecordedBy:  row.RecordedBy,
			RecordedAt:  row.RecordedAt,
		})
	}
	return out, nil
}

func (l *RevisionLog) encode(g *numbering.Generator) ([]byte, string, error) {
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if l.threshold < 0 || len(raw) <= l.threshold {
		return raw, CompressionNone, nil
	}
	return l.encoder.EncodeAll(raw, nil), CompressionZstd, nil
}

func (l *RevisionLog) decode(data []byte, compression string) (numbering.Generator, error) {
	var g numbering.Generator
	switch compression {
	case CompressionZstd:
		raw, err := l.decoder.DecodeAll(data, nil)
		if err != nil {
			return g, fmt.Errorf("decompress snapshot: %w", err)
		}
		data = raw
	case CompressionNone, "":
	default:
		return g, fmt.Errorf("unknown snapshot compression %q", compression)
	}
	if err := json.Unmarshal(data, &g); err != nil {
		return g, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return g, nil
}
