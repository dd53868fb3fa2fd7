package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/budgetly/budgetly-core/internal/domain"
	"github.com/shopspring/decimal"
)

// CalculationRepository implements domain.CalculationRepository on SQLite
type CalculationRepository struct {
	store *Store
}

// NewCalculationRepository creates a new CalculationRepository
func NewCalculationRepository(store *Store) *CalculationRepository {
	return &CalculationRepository{store: store}
}

// Create inserts a calculation record and assigns its id
func (r *CalculationRepository) Create(record *domain.CalculationRecord) (*domain.CalculationRecord, error) {
	tx, err := r.store.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertRecord(tx, record); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return record, nil
}

// CreateWithOperation inserts the record and its sync operation in one
// transaction. The operation payload is the record snapshot including the
// generated id, so replays identify the record on the remote side.
func (r *CalculationRepository) CreateWithOperation(record *domain.CalculationRecord, op *domain.SyncOperation) (*domain.CalculationRecord, error) {
	tx, err := r.store.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertRecord(tx, record); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	op.Payload = payload

	if err := insertOperation(tx, op); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return record, nil
}

func insertRecord(tx *sql.Tx, record *domain.CalculationRecord) error {
	breakdown, err := json.Marshal(record.Breakdown)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	forecast, err := json.Marshal(record.Forecast)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	insights, err := json.Marshal(record.Insights)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	res, err := tx.Exec(`INSERT INTO calculation_records
		(amount, duration, breakdown_json, forecast_json, insights_json, created_at, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Amount.String(), string(record.Duration), string(breakdown), string(forecast),
		string(insights), record.CreatedAt.Format(time.RFC3339Nano), boolToInt(record.Synced),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	record.ID = id
	return nil
}

// List returns up to limit records, newest first. A non-positive limit
// returns everything.
func (r *CalculationRepository) List(limit int) ([]*domain.CalculationRecord, error) {
	query := `SELECT id, amount, duration, breakdown_json, forecast_json, insights_json, created_at, synced
		FROM calculation_records ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.store.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	var records []*domain.CalculationRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// MarkSynced flips the synced flag after the remote confirms delivery
func (r *CalculationRepository) MarkSynced(id int64) error {
	res, err := r.store.db.Exec("UPDATE calculation_records SET synced = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if affected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func scanRecord(rows *sql.Rows) (*domain.CalculationRecord, error) {
	var (
		record                        domain.CalculationRecord
		amount, duration, createdAt   string
		breakdown, forecast, insights string
		synced                        int
	)
	if err := rows.Scan(&record.ID, &amount, &duration, &breakdown, &forecast, &insights, &createdAt, &synced); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: bad amount %q: %v", domain.ErrPersistence, amount, err)
	}
	record.Amount = amt
	record.Duration = domain.Duration(duration)
	record.Synced = synced != 0

	if record.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("%w: bad created_at %q: %v", domain.ErrPersistence, createdAt, err)
	}
	if err := json.Unmarshal([]byte(breakdown), &record.Breakdown); err != nil {
		return nil, fmt.Errorf("%w: bad breakdown: %v", domain.ErrPersistence, err)
	}
	if err := json.Unmarshal([]byte(forecast), &record.Forecast); err != nil {
		return nil, fmt.Errorf("%w: bad forecast: %v", domain.ErrPersistence, err)
	}
	if err := json.Unmarshal([]byte(insights), &record.Insights); err != nil {
		return nil, fmt.Errorf("%w: bad insights: %v", domain.ErrPersistence, err)
	}
	return &record, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
