package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/budgetly/budgetly-core/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrRemoteUnavailable simulates an unreachable remote service
var ErrRemoteUnavailable = errors.New("remote service unavailable")

// MockCalculationRepository is a mock implementation of domain.CalculationRepository
type MockCalculationRepository struct {
	Records   map[int64]*domain.CalculationRecord
	Ops       []*domain.SyncOperation
	NextID    int64
	CreateErr error
}

// NewMockCalculationRepository creates a new MockCalculationRepository
func NewMockCalculationRepository() *MockCalculationRepository {
	return &MockCalculationRepository{
		Records: make(map[int64]*domain.CalculationRecord),
		NextID:  1,
	}
}

// Create persists a calculation record
func (m *MockCalculationRepository) Create(record *domain.CalculationRecord) (*domain.CalculationRecord, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	record.ID = m.NextID
	m.NextID++
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	m.Records[record.ID] = record
	return record, nil
}

// CreateWithOperation persists a record together with its sync operation
func (m *MockCalculationRepository) CreateWithOperation(record *domain.CalculationRecord, op *domain.SyncOperation) (*domain.CalculationRecord, error) {
	created, err := m.Create(record)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(created)
	if err != nil {
		return nil, err
	}
	op.Payload = payload
	if op.Timestamp.IsZero() {
		op.Timestamp = time.Now().UTC()
	}
	m.Ops = append(m.Ops, op)
	return created, nil
}

// List returns records newest first, limited when limit > 0
func (m *MockCalculationRepository) List(limit int) ([]*domain.CalculationRecord, error) {
	records := make([]*domain.CalculationRecord, 0, len(m.Records))
	for _, r := range m.Records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID > records[j].ID
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// MarkSynced marks a record as delivered to the remote
func (m *MockCalculationRepository) MarkSynced(id int64) error {
	record, ok := m.Records[id]
	if !ok {
		return domain.ErrRecordNotFound
	}
	record.Synced = true
	return nil
}

// MockSettingRepository is a mock implementation of domain.SettingRepository
type MockSettingRepository struct {
	Values map[string]string
	GetErr error
}

// NewMockSettingRepository creates a new MockSettingRepository
func NewMockSettingRepository() *MockSettingRepository {
	return &MockSettingRepository{
		Values: make(map[string]string),
	}
}

// Get retrieves a setting value
func (m *MockSettingRepository) Get(key string) (string, bool, error) {
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	value, ok := m.Values[key]
	return value, ok, nil
}

// Set stores a setting value
func (m *MockSettingRepository) Set(key, value string) error {
	m.Values[key] = value
	return nil
}

// MockSyncQueueRepository is a mock implementation of domain.SyncQueueRepository.
// Operations are held in insertion order, matching the durable queue.
type MockSyncQueueRepository struct {
	Ops        []*domain.SyncOperation
	EnqueueErr error
}

// NewMockSyncQueueRepository creates a new MockSyncQueueRepository
func NewMockSyncQueueRepository() *MockSyncQueueRepository {
	return &MockSyncQueueRepository{}
}

// Enqueue appends an operation to the queue
func (m *MockSyncQueueRepository) Enqueue(op *domain.SyncOperation) error {
	if m.EnqueueErr != nil {
		return m.EnqueueErr
	}
	if op.Timestamp.IsZero() {
		op.Timestamp = time.Now().UTC()
	}
	m.Ops = append(m.Ops, op)
	return nil
}

// ListPending returns queued operations oldest first
func (m *MockSyncQueueRepository) ListPending() ([]*domain.SyncOperation, error) {
	ops := make([]*domain.SyncOperation, len(m.Ops))
	copy(ops, m.Ops)
	return ops, nil
}

// Remove deletes a delivered operation by id
func (m *MockSyncQueueRepository) Remove(id string) error {
	for i, op := range m.Ops {
		if op.ID == id {
			m.Ops = append(m.Ops[:i], m.Ops[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// IncrementAttempts bumps the attempt counter for a failed delivery
func (m *MockSyncQueueRepository) IncrementAttempts(id string) error {
	for _, op := range m.Ops {
		if op.ID == id {
			op.Attempts++
			return nil
		}
	}
	return domain.ErrNotFound
}

// Count returns the number of pending operations
func (m *MockSyncQueueRepository) Count() (int, error) {
	return len(m.Ops), nil
}

// MockBillRepository is a mock implementation of domain.BillRepository
type MockBillRepository struct {
	Bills  map[int64]*domain.Bill
	Ops    []*domain.SyncOperation
	NextID int64
}

// NewMockBillRepository creates a new MockBillRepository
func NewMockBillRepository() *MockBillRepository {
	return &MockBillRepository{
		Bills:  make(map[int64]*domain.Bill),
		NextID: 1,
	}
}

// Create persists a bill, recording the sync operation when present
func (m *MockBillRepository) Create(bill *domain.Bill, op *domain.SyncOperation) (*domain.Bill, error) {
	bill.ID = m.NextID
	m.NextID++
	now := time.Now().UTC()
	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = now
	}
	bill.UpdatedAt = now
	m.Bills[bill.ID] = bill
	if op != nil {
		if err := m.attachPayload(op, bill); err != nil {
			return nil, err
		}
	}
	return bill, nil
}

// Update replaces a bill, recording the sync operation when present
func (m *MockBillRepository) Update(bill *domain.Bill, op *domain.SyncOperation) (*domain.Bill, error) {
	if _, ok := m.Bills[bill.ID]; !ok {
		return nil, domain.ErrBillNotFound
	}
	bill.UpdatedAt = time.Now().UTC()
	m.Bills[bill.ID] = bill
	if op != nil {
		if err := m.attachPayload(op, bill); err != nil {
			return nil, err
		}
	}
	return bill, nil
}

// Delete removes a bill, recording the sync operation when present
func (m *MockBillRepository) Delete(id int64, op *domain.SyncOperation) error {
	if _, ok := m.Bills[id]; !ok {
		return domain.ErrBillNotFound
	}
	delete(m.Bills, id)
	if op != nil {
		payload, err := json.Marshal(map[string]int64{"id": id})
		if err != nil {
			return err
		}
		op.Payload = payload
		m.Ops = append(m.Ops, op)
	}
	return nil
}

// GetByID retrieves a bill by id
func (m *MockBillRepository) GetByID(id int64) (*domain.Bill, error) {
	bill, ok := m.Bills[id]
	if !ok {
		return nil, domain.ErrBillNotFound
	}
	return bill, nil
}

// List returns all bills ordered by id
func (m *MockBillRepository) List() ([]*domain.Bill, error) {
	bills := make([]*domain.Bill, 0, len(m.Bills))
	for _, b := range m.Bills {
		bills = append(bills, b)
	}
	sort.Slice(bills, func(i, j int) bool {
		return bills[i].ID < bills[j].ID
	})
	return bills, nil
}

func (m *MockBillRepository) attachPayload(op *domain.SyncOperation, bill *domain.Bill) error {
	payload, err := json.Marshal(bill)
	if err != nil {
		return err
	}
	op.Payload = payload
	m.Ops = append(m.Ops, op)
	return nil
}

// FakeRemoteEngine is a configurable stand-in for the remote calculation
// service. A non-nil Err fails every call, which forces the local fallback.
type FakeRemoteEngine struct {
	Err         error
	CalculateFn func(ctx context.Context, amount decimal.Decimal, duration domain.Duration) (*domain.BudgetBreakdown, error)
	ForecastFn  func(ctx context.Context, monthlySavings, emergencyFund, goal decimal.Decimal) (*domain.SavingsForecast, error)
	InsightsFn  func(ctx context.Context, breakdown *domain.BudgetBreakdown, forecast *domain.SavingsForecast) (*domain.BudgetInsights, error)
	Calls       int
}

// CalculateBudget implements service.RemoteEngine
func (f *FakeRemoteEngine) CalculateBudget(ctx context.Context, amount decimal.Decimal, duration domain.Duration) (*domain.BudgetBreakdown, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if f.CalculateFn != nil {
		return f.CalculateFn(ctx, amount, duration)
	}
	return nil, ErrRemoteUnavailable
}

// ForecastSavings implements service.RemoteEngine
func (f *FakeRemoteEngine) ForecastSavings(ctx context.Context, monthlySavings, emergencyFund, goal decimal.Decimal) (*domain.SavingsForecast, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if f.ForecastFn != nil {
		return f.ForecastFn(ctx, monthlySavings, emergencyFund, goal)
	}
	return nil, ErrRemoteUnavailable
}

// AnalyzeInsights implements service.RemoteEngine
func (f *FakeRemoteEngine) AnalyzeInsights(ctx context.Context, breakdown *domain.BudgetBreakdown, forecast *domain.SavingsForecast) (*domain.BudgetInsights, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if f.InsightsFn != nil {
		return f.InsightsFn(ctx, breakdown, forecast)
	}
	return nil, ErrRemoteUnavailable
}

// FakeRemoteApplier records operations replayed against the remote.
// FailOn maps operation ids to injected delivery errors.
type FakeRemoteApplier struct {
	Applied []*domain.SyncOperation
	FailOn  map[string]error
	Err     error
}

// ApplyOperation implements service.RemoteApplier
func (f *FakeRemoteApplier) ApplyOperation(ctx context.Context, op *domain.SyncOperation) error {
	if f.Err != nil {
		return f.Err
	}
	if err, ok := f.FailOn[op.ID]; ok {
		return err
	}
	f.Applied = append(f.Applied, op)
	return nil
}

// FakeResetter records whether the store was wiped
type FakeResetter struct {
	Cleared bool
	Err     error
}

// ClearAll implements service.StoreResetter
func (f *FakeResetter) ClearAll() error {
	if f.Err != nil {
		return f.Err
	}
	f.Cleared = true
	return nil
}
