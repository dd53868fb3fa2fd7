package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/budgetly/budgetly-core/internal/domain"
	"github.com/budgetly/budgetly-core/internal/util"
	"github.com/budgetly/budgetly-core/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// BillService handles the recurring-obligation collection: CRUD, the
// soft-archive lifecycle, derived aggregates, and pairing every mutation
// with its sync delivery.
type BillService struct {
	billRepo    domain.BillRepository
	queueRepo   domain.SyncQueueRepository
	applier     RemoteApplier
	syncService *SyncService
	publisher   websocket.EventPublisher
}

// NewBillService creates a new BillService
func NewBillService(
	billRepo domain.BillRepository,
	queueRepo domain.SyncQueueRepository,
	applier RemoteApplier,
	syncService *SyncService,
	publisher websocket.EventPublisher,
) *BillService {
	return &BillService{
		billRepo:    billRepo,
		queueRepo:   queueRepo,
		applier:     applier,
		syncService: syncService,
		publisher:   publisher,
	}
}

// CreateBillInput holds the input for creating a bill
type CreateBillInput struct {
	Name        string
	Amount      decimal.Decimal
	DueDay      int
	Category    domain.BillCategory
	IsRecurring bool
}

// CreateBill validates and creates a bill. An offline session commits the
// bill and its sync operation in one transaction; an online session applies
// the mutation to the remote directly and only enqueues if that fails.
func (s *BillService) CreateBill(ctx context.Context, input CreateBillInput) (*domain.Bill, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxBillNameLength {
		return nil, domain.ErrNameTooLong
	}
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	dueDay := input.DueDay
	if dueDay == 0 {
		dueDay = 1 // Default to 1 if not provided
	}
	if dueDay < 1 || dueDay > 31 {
		return nil, domain.ErrInvalidDueDay
	}

	category := input.Category
	if category == "" {
		category = domain.BillCategoryOther
	}
	if !category.Valid() {
		return nil, domain.ErrInvalidCategory
	}

	bill := &domain.Bill{
		Name:        name,
		Amount:      input.Amount,
		DueDay:      dueDay,
		Category:    category,
		IsRecurring: input.IsRecurring,
	}

	var op *domain.SyncOperation
	offline := !s.syncService.IsOnline()
	if offline {
		op = domain.NewSyncOperation(domain.SyncActionCreate, domain.CollectionBills)
	}

	created, err := s.billRepo.Create(bill, op)
	if err != nil {
		return nil, err
	}

	if offline {
		s.publisher.Publish(websocket.SyncQueued(op))
	} else {
		s.deliverDirect(ctx, domain.SyncActionCreate, created)
	}
	s.publisher.Publish(websocket.BillCreated(created))
	return created, nil
}

// UpdateBillInput holds partial fields for updating a bill; nil fields are
// left unchanged
type UpdateBillInput struct {
	Name        *string
	Amount      *decimal.Decimal
	DueDay      *int
	Category    *domain.BillCategory
	IsRecurring *bool
}

// UpdateBill applies the provided fields to an existing bill
func (s *BillService) UpdateBill(ctx context.Context, id int64, input UpdateBillInput) (*domain.Bill, error) {
	bill, err := s.billRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.ErrNameRequired
		}
		if len(name) > domain.MaxBillNameLength {
			return nil, domain.ErrNameTooLong
		}
		bill.Name = name
	}
	if input.Amount != nil {
		if !input.Amount.IsPositive() {
			return nil, domain.ErrInvalidAmount
		}
		bill.Amount = *input.Amount
	}
	if input.DueDay != nil {
		if *input.DueDay < 1 || *input.DueDay > 31 {
			return nil, domain.ErrInvalidDueDay
		}
		bill.DueDay = *input.DueDay
	}
	if input.Category != nil {
		if !input.Category.Valid() {
			return nil, domain.ErrInvalidCategory
		}
		bill.Category = *input.Category
	}
	if input.IsRecurring != nil {
		bill.IsRecurring = *input.IsRecurring
	}

	updated, err := s.applyUpdate(ctx, bill)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(websocket.BillUpdated(updated))
	return updated, nil
}

// DeleteBill hard-deletes a bill
func (s *BillService) DeleteBill(ctx context.Context, id int64) error {
	if _, err := s.billRepo.GetByID(id); err != nil {
		return err
	}

	var op *domain.SyncOperation
	offline := !s.syncService.IsOnline()
	if offline {
		op = domain.NewSyncOperation(domain.SyncActionDelete, domain.CollectionBills)
	}

	if err := s.billRepo.Delete(id, op); err != nil {
		return err
	}

	if offline {
		s.publisher.Publish(websocket.SyncQueued(op))
	} else {
		s.deliverDirect(ctx, domain.SyncActionDelete, map[string]int64{"id": id})
	}
	s.publisher.Publish(websocket.BillDeleted(map[string]int64{"id": id}))
	return nil
}

// ArchiveBill soft-archives a bill; it leaves active lists and totals but
// is retained for history
func (s *BillService) ArchiveBill(ctx context.Context, id int64) (*domain.Bill, error) {
	return s.setArchived(ctx, id, true)
}

// UnarchiveBill restores an archived bill
func (s *BillService) UnarchiveBill(ctx context.Context, id int64) (*domain.Bill, error) {
	return s.setArchived(ctx, id, false)
}

func (s *BillService) setArchived(ctx context.Context, id int64, archived bool) (*domain.Bill, error) {
	bill, err := s.billRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	bill.IsArchived = archived

	updated, err := s.applyUpdate(ctx, bill)
	if err != nil {
		return nil, err
	}
	if archived {
		s.publisher.Publish(websocket.BillArchived(updated))
	} else {
		s.publisher.Publish(websocket.BillUnarchived(updated))
	}
	return updated, nil
}

// MarkPaid records a payment against the bill
func (s *BillService) MarkPaid(ctx context.Context, id int64) (*domain.Bill, error) {
	bill, err := s.billRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	bill.IsPaid = true
	bill.PaymentDate = &now

	updated, err := s.applyUpdate(ctx, bill)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(websocket.BillPaid(updated))
	return updated, nil
}

// MarkUnpaid clears the payment state of a bill
func (s *BillService) MarkUnpaid(ctx context.Context, id int64) (*domain.Bill, error) {
	bill, err := s.billRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	bill.IsPaid = false
	bill.PaymentDate = nil

	updated, err := s.applyUpdate(ctx, bill)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(websocket.BillUnpaid(updated))
	return updated, nil
}

// applyUpdate persists a mutated bill with the offline/online sync pairing
func (s *BillService) applyUpdate(ctx context.Context, bill *domain.Bill) (*domain.Bill, error) {
	var op *domain.SyncOperation
	offline := !s.syncService.IsOnline()
	if offline {
		op = domain.NewSyncOperation(domain.SyncActionUpdate, domain.CollectionBills)
	}

	updated, err := s.billRepo.Update(bill, op)
	if err != nil {
		return nil, err
	}

	if offline {
		s.publisher.Publish(websocket.SyncQueued(op))
	} else {
		s.deliverDirect(ctx, domain.SyncActionUpdate, updated)
	}
	return updated, nil
}

// deliverDirect applies an online mutation to the remote immediately. A
// failure flips the session offline and enqueues the operation so it is
// retried on the next connectivity transition.
func (s *BillService) deliverDirect(ctx context.Context, action domain.SyncAction, payload any) {
	op := domain.NewSyncOperation(action, domain.CollectionBills)
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode sync payload")
		return
	}
	op.Payload = data

	if err := s.applier.ApplyOperation(ctx, op); err == nil {
		return
	}

	s.syncService.SetOnline(ctx, false)
	if err := s.queueRepo.Enqueue(op); err != nil {
		log.Error().Err(err).Str("operation_id", op.ID).Msg("Failed to enqueue sync operation")
		return
	}
	s.publisher.Publish(websocket.SyncQueued(op))
}

// ActiveBills returns bills that are not archived
func (s *BillService) ActiveBills() ([]*domain.Bill, error) {
	return s.filterBills(func(b *domain.Bill) bool { return !b.IsArchived })
}

// ArchivedBills returns archived bills
func (s *BillService) ArchivedBills() ([]*domain.Bill, error) {
	return s.filterBills(func(b *domain.Bill) bool { return b.IsArchived })
}

func (s *BillService) filterBills(keep func(*domain.Bill) bool) ([]*domain.Bill, error) {
	bills, err := s.billRepo.List()
	if err != nil {
		return nil, err
	}
	filtered := make([]*domain.Bill, 0, len(bills))
	for _, bill := range bills {
		if keep(bill) {
			filtered = append(filtered, bill)
		}
	}
	return filtered, nil
}

// MonthlyTotal sums the amounts of active, recurring bills
func (s *BillService) MonthlyTotal() (decimal.Decimal, error) {
	bills, err := s.billRepo.List()
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, bill := range bills {
		if !bill.IsArchived && bill.IsRecurring {
			total = total.Add(bill.Amount)
		}
	}
	return total, nil
}

// DueDate resolves the bill's due day within the month of ref, clamped to
// that month's last valid day
func (s *BillService) DueDate(bill *domain.Bill, ref time.Time) time.Time {
	return util.DueDateIn(bill.DueDay, ref)
}

// IsOverdue reports whether the bill's due date for the current month has
// passed without payment
func (s *BillService) IsOverdue(bill *domain.Bill, now time.Time) bool {
	if bill.IsPaid {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.DueDate(bill, now).Before(today)
}

// IsDueSoon reports whether the bill's due date falls within the next
// windowDays days (inclusive of today)
func (s *BillService) IsDueSoon(bill *domain.Bill, now time.Time, windowDays int) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	due := s.DueDate(bill, now)
	return !due.Before(today) && !due.After(today.AddDate(0, 0, windowDays))
}

// BillSummary aggregates the active collection
type BillSummary struct {
	MonthlyTotal decimal.Decimal `json:"monthlyTotal"`
	ActiveCount  int             `json:"activeCount"`
	OverdueCount int             `json:"overdueCount"`
	DueSoonCount int             `json:"dueSoonCount"`
}

// Summary computes the monthly total plus overdue and due-soon counts over
// active bills, using a 7-day due-soon window
func (s *BillService) Summary(now time.Time) (*BillSummary, error) {
	active, err := s.ActiveBills()
	if err != nil {
		return nil, err
	}

	summary := &BillSummary{MonthlyTotal: decimal.Zero, ActiveCount: len(active)}
	for _, bill := range active {
		if bill.IsRecurring {
			summary.MonthlyTotal = summary.MonthlyTotal.Add(bill.Amount)
		}
		if s.IsOverdue(bill, now) {
			summary.OverdueCount++
		}
		if s.IsDueSoon(bill, now, 7) {
			summary.DueSoonCount++
		}
	}
	return summary, nil
}
