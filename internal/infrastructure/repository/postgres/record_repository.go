package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkraev/docintake/internal/core/domain"
)

type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *RecordRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS processing_records (
	id BIGSERIAL PRIMARY KEY,
	filename TEXT NOT NULL,
	file_type TEXT NOT NULL,
	business_intent TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	extracted_data JSONB NOT NULL DEFAULT '{}'::jsonb,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	actions_taken JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_processing_records_status ON processing_records(status);
CREATE INDEX IF NOT EXISTS idx_processing_records_file_type ON processing_records(file_type);
CREATE INDEX IF NOT EXISTS idx_processing_records_intent ON processing_records(business_intent);
CREATE INDEX IF NOT EXISTS idx_processing_records_created_at ON processing_records(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *RecordRepository) Create(ctx context.Context, rec *domain.ProcessingRecord) (int64, error) {
	extractedJSON, metadataJSON, actionsJSON, err := marshalRecordColumns(rec.ExtractedData, rec.Metadata, rec.ActionsTaken)
	if err != nil {
		return 0, err
	}

	var id int64
	err = r.db.QueryRowContext(ctx, `
INSERT INTO processing_records (
	filename, file_type, business_intent, status, extracted_data, metadata, actions_taken, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id
`,
		rec.Filename, string(rec.FileType), string(rec.BusinessIntent), string(rec.Status),
		extractedJSON, metadataJSON, actionsJSON, rec.CreatedAt, rec.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert processing record: %w", err)
	}
	return id, nil
}

func (r *RecordRepository) GetByID(ctx context.Context, id int64) (*domain.ProcessingRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, file_type, business_intent, status, extracted_data, metadata, actions_taken, created_at, updated_at
FROM processing_records
WHERE id = $1
`, id)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrRecordNotFound, "get record", fmt.Errorf("id=%d", id))
		}
		return nil, err
	}
	return rec, nil
}

// Update merges a partial update into the stored record. This is a
// read-modify-write without row locking: two concurrent updates to the same
// record can lose writes.
func (r *RecordRepository) Update(ctx context.Context, id int64, update domain.RecordUpdate) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if update.Status != nil {
		current.Status = *update.Status
	}
	if update.ExtractedData != nil {
		if current.ExtractedData == nil {
			current.ExtractedData = map[string]any{}
		}
		for k, v := range update.ExtractedData {
			current.ExtractedData[k] = v
		}
	}
	if update.Metadata != nil {
		if current.Metadata == nil {
			current.Metadata = map[string]any{}
		}
		for k, v := range update.Metadata {
			current.Metadata[k] = v
		}
	}
	if update.ActionsTaken != nil {
		current.ActionsTaken = dedupeActions(append(current.ActionsTaken, update.ActionsTaken...))
	}

	extractedJSON, metadataJSON, actionsJSON, err := marshalRecordColumns(current.ExtractedData, current.Metadata, current.ActionsTaken)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE processing_records
SET status = $2, extracted_data = $3, metadata = $4, actions_taken = $5, updated_at = $6
WHERE id = $1
`, id, string(current.Status), extractedJSON, metadataJSON, actionsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update processing record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrRecordNotFound, "update record", fmt.Errorf("id=%d", id))
	}
	return nil
}

func (r *RecordRepository) List(ctx context.Context, filter domain.RecordFilter) ([]domain.ProcessingRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var conditions []string
	var args []any
	addFilter := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	addFilter("status", filter.Status)
	addFilter("file_type", filter.FileType)
	addFilter("business_intent", filter.BusinessIntent)

	query := `
SELECT id, filename, file_type, business_intent, status, extracted_data, metadata, actions_taken, created_at, updated_at
FROM processing_records
`
	if len(conditions) > 0 {
		query += "WHERE " + strings.Join(conditions, " AND ") + "\n"
	}
	args = append(args, limit)
	query += fmt.Sprintf("ORDER BY created_at DESC\nLIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list processing records: %w", err)
	}
	defer rows.Close()

	var records []domain.ProcessingRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processing records: %w", err)
	}
	return records, nil
}

func (r *RecordRepository) Stats(ctx context.Context) (*domain.Statistics, error) {
	stats := &domain.Statistics{
		StatusBreakdown: map[string]int64{},
		FileTypes:       map[string]int64{},
		BusinessIntents: map[string]int64{},
		GeneratedAt:     time.Now().UTC(),
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processing_records`).Scan(&stats.TotalProcessed); err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	groupCounts := func(column string, into map[string]int64) error {
		rows, err := r.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT %s, COUNT(*) FROM processing_records GROUP BY %s`, column, column))
		if err != nil {
			return fmt.Errorf("count by %s: %w", column, err)
		}
		defer rows.Close()
		for rows.Next() {
			var key string
			var count int64
			if err := rows.Scan(&key, &count); err != nil {
				return fmt.Errorf("scan %s count: %w", column, err)
			}
			into[key] = count
		}
		return rows.Err()
	}

	if err := groupCounts("status", stats.StatusBreakdown); err != nil {
		return nil, err
	}
	if err := groupCounts("file_type", stats.FileTypes); err != nil {
		return nil, err
	}
	if err := groupCounts("business_intent", stats.BusinessIntents); err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM processing_records WHERE created_at >= $1`, cutoff,
	).Scan(&stats.RecentLast24h); err != nil {
		return nil, fmt.Errorf("count recent records: %w", err)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.ProcessingRecord, error) {
	var rec domain.ProcessingRecord
	var fileType, intent, status string
	var extractedRaw, metadataRaw, actionsRaw []byte

	err := row.Scan(
		&rec.ID, &rec.Filename, &fileType, &intent, &status,
		&extractedRaw, &metadataRaw, &actionsRaw, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(extractedRaw, &rec.ExtractedData); err != nil {
		return nil, fmt.Errorf("unmarshal extracted_data: %w", err)
	}
	if err := json.Unmarshal(metadataRaw, &rec.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if err := json.Unmarshal(actionsRaw, &rec.ActionsTaken); err != nil {
		return nil, fmt.Errorf("unmarshal actions_taken: %w", err)
	}

	rec.FileType = domain.FileType(fileType)
	rec.BusinessIntent = domain.BusinessIntent(intent)
	rec.Status = domain.ProcessingStatus(status)
	return &rec, nil
}

func marshalRecordColumns(extracted, metadata map[string]any, actions []string) ([]byte, []byte, []byte, error) {
	if extracted == nil {
		extracted = map[string]any{}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	if actions == nil {
		actions = []string{}
	}

	extractedJSON, err := json.Marshal(extracted)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal extracted_data: %w", err)
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal metadata: %w", err)
	}
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshal actions_taken: %w", err)
	}
	return extractedJSON, metadataJSON, actionsJSON, nil
}

func dedupeActions(actions []string) []string {
	seen := make(map[string]struct{}, len(actions))
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
