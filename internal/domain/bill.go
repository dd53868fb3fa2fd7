package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillCategory classifies a recurring obligation
type BillCategory string

const (
	BillCategoryHousing        BillCategory = "housing"
	BillCategoryUtilities      BillCategory = "utilities"
	BillCategoryTransportation BillCategory = "transportation"
	BillCategoryFood           BillCategory = "food"
	BillCategoryInsurance      BillCategory = "insurance"
	BillCategorySubscription   BillCategory = "subscription"
	BillCategoryOther          BillCategory = "other"
)

// Valid reports whether c is a known bill category
func (c BillCategory) Valid() bool {
	switch c {
	case BillCategoryHousing, BillCategoryUtilities, BillCategoryTransportation,
		BillCategoryFood, BillCategoryInsurance, BillCategorySubscription, BillCategoryOther:
		return true
	}
	return false
}

// Bill is a recurring obligation with a day-of-month due date. Archived
// bills are excluded from totals and active lists but retained for history.
type Bill struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	DueDay      int             `json:"dueDay"`
	Category    BillCategory    `json:"category"`
	IsRecurring bool            `json:"isRecurring"`
	IsArchived  bool            `json:"isArchived"`
	IsPaid      bool            `json:"isPaid"`
	PaymentDate *time.Time      `json:"paymentDate,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// BillRepository persists bills. The *WithOperation variants apply the bill
// mutation and the attached sync operation in a single transaction; a nil
// operation is a plain local write.
type BillRepository interface {
	Create(bill *Bill, op *SyncOperation) (*Bill, error)
	Update(bill *Bill, op *SyncOperation) (*Bill, error)
	Delete(id int64, op *SyncOperation) error
	GetByID(id int64) (*Bill, error)
	List() ([]*Bill, error)
}
