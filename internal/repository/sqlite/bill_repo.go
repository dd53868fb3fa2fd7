package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/budgetly/budgetly-core/internal/domain"
	"github.com/shopspring/decimal"
)

// BillRepository implements domain.BillRepository on SQLite. When a sync
// operation accompanies a mutation, both rows commit in one transaction so
// the local write and its pending remote delivery cannot diverge.
type BillRepository struct {
	store *Store
}

// NewBillRepository creates a new BillRepository
func NewBillRepository(store *Store) *BillRepository {
	return &BillRepository{store: store}
}

// Create inserts a bill, optionally together with its sync operation. The
// operation payload is the bill snapshot including the generated id.
func (r *BillRepository) Create(bill *domain.Bill, op *domain.SyncOperation) (*domain.Bill, error) {
	tx, err := r.store.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	bill.CreatedAt = now
	bill.UpdatedAt = now

	res, err := tx.Exec(`INSERT INTO bills
		(name, amount, due_day, category, is_recurring, is_archived, is_paid, payment_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.Name, bill.Amount.String(), bill.DueDay, string(bill.Category),
		boolToInt(bill.IsRecurring), boolToInt(bill.IsArchived), boolToInt(bill.IsPaid),
		nullableTime(bill.PaymentDate), now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	bill.ID = id

	if op != nil {
		if err := attachBillPayload(op, bill); err != nil {
			return nil, err
		}
		if err := insertOperation(tx, op); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return bill, nil
}

// Update rewrites a bill row, optionally together with its sync operation
func (r *BillRepository) Update(bill *domain.Bill, op *domain.SyncOperation) (*domain.Bill, error) {
	tx, err := r.store.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	bill.UpdatedAt = time.Now().UTC()

	res, err := tx.Exec(`UPDATE bills SET
		name = ?, amount = ?, due_day = ?, category = ?, is_recurring = ?,
		is_archived = ?, is_paid = ?, payment_date = ?, updated_at = ?
		WHERE id = ?`,
		bill.Name, bill.Amount.String(), bill.DueDay, string(bill.Category),
		boolToInt(bill.IsRecurring), boolToInt(bill.IsArchived), boolToInt(bill.IsPaid),
		nullableTime(bill.PaymentDate), bill.UpdatedAt.Format(time.RFC3339Nano), bill.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if affected == 0 {
		return nil, domain.ErrBillNotFound
	}

	if op != nil {
		if err := attachBillPayload(op, bill); err != nil {
			return nil, err
		}
		if err := insertOperation(tx, op); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return bill, nil
}

// Delete hard-deletes a bill, optionally together with its sync operation.
// The delete payload carries only the id.
func (r *BillRepository) Delete(id int64, op *domain.SyncOperation) error {
	tx, err := r.store.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec("DELETE FROM bills WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if affected == 0 {
		return domain.ErrBillNotFound
	}

	if op != nil {
		payload, err := json.Marshal(map[string]int64{"id": id})
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		op.Payload = payload
		if err := insertOperation(tx, op); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// GetByID retrieves a single bill
func (r *BillRepository) GetByID(id int64) (*domain.Bill, error) {
	row := r.store.db.QueryRow(`SELECT id, name, amount, due_day, category, is_recurring,
		is_archived, is_paid, payment_date, created_at, updated_at FROM bills WHERE id = ?`, id)

	bill, err := scanBill(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBillNotFound
	}
	return bill, err
}

// List returns all bills, oldest first
func (r *BillRepository) List() ([]*domain.Bill, error) {
	rows, err := r.store.db.Query(`SELECT id, name, amount, due_day, category, is_recurring,
		is_archived, is_paid, payment_date, created_at, updated_at FROM bills ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	var bills []*domain.Bill
	for rows.Next() {
		bill, err := scanBill(rows.Scan)
		if err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	return bills, rows.Err()
}

func scanBill(scan func(dest ...any) error) (*domain.Bill, error) {
	var (
		bill                      domain.Bill
		amount, category          string
		createdAt, updatedAt      string
		recurring, archived, paid int
		paymentDate               sql.NullString
	)
	err := scan(&bill.ID, &bill.Name, &amount, &bill.DueDay, &category, &recurring,
		&archived, &paid, &paymentDate, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	if bill.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("%w: bad amount %q: %v", domain.ErrPersistence, amount, err)
	}
	bill.Category = domain.BillCategory(category)
	bill.IsRecurring = recurring != 0
	bill.IsArchived = archived != 0
	bill.IsPaid = paid != 0

	if paymentDate.Valid {
		t, err := time.Parse(time.RFC3339Nano, paymentDate.String)
		if err != nil {
			return nil, fmt.Errorf("%w: bad payment_date %q: %v", domain.ErrPersistence, paymentDate.String, err)
		}
		bill.PaymentDate = &t
	}
	if bill.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("%w: bad created_at %q: %v", domain.ErrPersistence, createdAt, err)
	}
	if bill.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("%w: bad updated_at %q: %v", domain.ErrPersistence, updatedAt, err)
	}
	return &bill, nil
}

func attachBillPayload(op *domain.SyncOperation, bill *domain.Bill) error {
	payload, err := json.Marshal(bill)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	op.Payload = payload
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
