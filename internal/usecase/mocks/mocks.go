package mocks

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retrobus-essonne/finance/internal/domain"
	"github.com/retrobus-essonne/finance/internal/usecase"
)

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu  sync.RWMutex
	txs map[string]*domain.Transaction

	CreateFunc  func(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error
	UpdateFunc  func(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error
	DeleteFunc  func(ctx context.Context, tx usecase.Transaction, id string) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.Transaction, error)
	ListAllFunc func(ctx context.Context) ([]*domain.Transaction, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		txs: make(map[string]*domain.Transaction),
	}
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *t
	m.txs[t.ID] = &c
	return nil
}

func (m *MockTransactionRepository) Update(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[t.ID]; !ok {
		return domain.ErrTransactionNotFound
	}
	c := *t
	m.txs[t.ID] = &c
	return nil
}

func (m *MockTransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[id]; !ok {
		return domain.ErrTransactionNotFound
	}
	delete(m.txs, id)
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.txs[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	return m.GetByID(ctx, id)
}

func (m *MockTransactionRepository) List(ctx context.Context, filter usecase.TransactionFilter) ([]*domain.Transaction, int, error) {
	all, err := m.ListAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	var out []*domain.Transaction
	for _, t := range all {
		if filter.EventID != "" && (t.EventID == nil || *t.EventID != filter.EventID) {
			continue
		}
		out = append(out, t)
	}
	total := len(out)
	start := min((filter.Page-1)*filter.Limit, total)
	end := min(start+filter.Limit, total)
	return out[start:end], total, nil
}

func (m *MockTransactionRepository) ListAll(ctx context.Context) ([]*domain.Transaction, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Transaction, 0, len(m.txs))
	for _, t := range m.txs {
		c := *t
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *domain.Transaction) int {
		return a.Date.Compare(b.Date)
	})
	return out, nil
}

// Len returns the number of stored transactions.
func (m *MockTransactionRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txs)
}

// MockCategoryRepository is a mock implementation of CategoryRepository.
type MockCategoryRepository struct {
	categories []*domain.Category
}

func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{categories: domain.DefaultCategories()}
}

func (m *MockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	return m.categories, nil
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	for _, c := range m.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

// MockDocumentRepository is a mock implementation of DocumentRepository.
type MockDocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]*domain.FinancialDocument

	CreateFunc  func(ctx context.Context, tx usecase.Transaction, doc *domain.FinancialDocument) error
	UpdateFunc  func(ctx context.Context, tx usecase.Transaction, doc *domain.FinancialDocument) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.FinancialDocument, error)
}

func NewMockDocumentRepository() *MockDocumentRepository {
	return &MockDocumentRepository{
		docs: make(map[string]*domain.FinancialDocument),
	}
}

// Put stores doc directly, bypassing the usecase.
func (m *MockDocumentRepository) Put(doc *domain.FinancialDocument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc.Clone()
}

func (m *MockDocumentRepository) Create(ctx context.Context, tx usecase.Transaction, doc *domain.FinancialDocument) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, doc)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.Number == doc.Number {
			return domain.ErrDuplicateNumber
		}
	}
	m.docs[doc.ID] = doc.Clone()
	return nil
}

func (m *MockDocumentRepository) Update(ctx context.Context, tx usecase.Transaction, doc *domain.FinancialDocument) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, doc)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.ID]; !ok {
		return domain.ErrDocumentNotFound
	}
	m.docs[doc.ID] = doc.Clone()
	return nil
}

func (m *MockDocumentRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id string) (*domain.FinancialDocument, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.docs[id]; ok {
		return d.Clone(), nil
	}
	return nil, domain.ErrDocumentNotFound
}

func (m *MockDocumentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.FinancialDocument, error) {
	return m.GetByID(ctx, id)
}

func (m *MockDocumentRepository) GetByNumber(ctx context.Context, number string) (*domain.FinancialDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.docs {
		if d.Number == number {
			return d.Clone(), nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

func (m *MockDocumentRepository) List(ctx context.Context, filter domain.DocumentFilter) ([]*domain.FinancialDocument, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.FinancialDocument
	for _, d := range m.docs {
		if filter.Type != "" && d.Type != filter.Type {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, d.Clone())
	}
	slices.SortFunc(out, func(a, b *domain.FinancialDocument) int {
		return strings.Compare(a.Number, b.Number)
	})
	total := len(out)
	start := min((filter.Page-1)*filter.Limit, total)
	end := min(start+filter.Limit, total)
	return out[start:end], total, nil
}

func (m *MockDocumentRepository) CountByPrefix(ctx context.Context, prefix string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, d := range m.docs {
		if strings.HasPrefix(d.Number, prefix) {
			n++
		}
	}
	return n, nil
}

// MockScheduledOperationRepository is a mock implementation of
// ScheduledOperationRepository.
type MockScheduledOperationRepository struct {
	mu       sync.RWMutex
	ops      map[string]*domain.ScheduledOperation
	payments []*domain.ScheduledPayment

	UpdateFunc        func(ctx context.Context, tx usecase.Transaction, op *domain.ScheduledOperation) error
	CreatePaymentFunc func(ctx context.Context, tx usecase.Transaction, p *domain.ScheduledPayment) error
}

func NewMockScheduledOperationRepository() *MockScheduledOperationRepository {
	return &MockScheduledOperationRepository{
		ops: make(map[string]*domain.ScheduledOperation),
	}
}

func (m *MockScheduledOperationRepository) Create(ctx context.Context, tx usecase.Transaction, op *domain.ScheduledOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[op.ID] = op.Clone()
	return nil
}

func (m *MockScheduledOperationRepository) Update(ctx context.Context, tx usecase.Transaction, op *domain.ScheduledOperation) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, op)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ops[op.ID]; !ok {
		return domain.ErrOperationNotFound
	}
	m.ops[op.ID] = op.Clone()
	return nil
}

func (m *MockScheduledOperationRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ops[id]; !ok {
		return domain.ErrOperationNotFound
	}
	delete(m.ops, id)
	return nil
}

func (m *MockScheduledOperationRepository) GetByID(ctx context.Context, id string) (*domain.ScheduledOperation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if op, ok := m.ops[id]; ok {
		return op.Clone(), nil
	}
	return nil, domain.ErrOperationNotFound
}

func (m *MockScheduledOperationRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ScheduledOperation, error) {
	return m.GetByID(ctx, id)
}

func (m *MockScheduledOperationRepository) List(ctx context.Context) ([]*domain.ScheduledOperation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.ScheduledOperation, 0, len(m.ops))
	for _, op := range m.ops {
		out = append(out, op.Clone())
	}
	slices.SortFunc(out, func(a, b *domain.ScheduledOperation) int {
		return a.NextDate.Compare(b.NextDate)
	})
	return out, nil
}

func (m *MockScheduledOperationRepository) CreatePayment(ctx context.Context, tx usecase.Transaction, p *domain.ScheduledPayment) error {
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *p
	m.payments = append(m.payments, &c)
	return nil
}

func (m *MockScheduledOperationRepository) ListPayments(ctx context.Context, operationID string) ([]*domain.ScheduledPayment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ScheduledPayment
	for _, p := range m.payments {
		if p.OperationID == operationID {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

// MockBalanceRepository is a mock implementation of BalanceRepository.
type MockBalanceRepository struct {
	mu      sync.RWMutex
	balance domain.Balance

	SaveFunc func(ctx context.Context, tx usecase.Transaction, b *domain.Balance) error
}

func NewMockBalanceRepository(amount decimal.Decimal) *MockBalanceRepository {
	return &MockBalanceRepository{
		balance: domain.Balance{Amount: amount, Opening: amount},
	}
}

func (m *MockBalanceRepository) Get(ctx context.Context) (*domain.Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b := m.balance
	return &b, nil
}

func (m *MockBalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction) (*domain.Balance, error) {
	return m.Get(ctx)
}

func (m *MockBalanceRepository) Save(ctx context.Context, tx usecase.Transaction, b *domain.Balance) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, b)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance = *b
	return nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			at := publishedAt
			e.PublishedAt = &at
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}

// EventTypes returns the types of all recorded events in order.
func (m *MockOutboxRepository) EventTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.EventType)
	}
	return out
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.AuditLog
	for _, l := range m.logs {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "mock-id-" + strconv.Itoa(m.counter)
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	ReleaseFunc     func(ctx context.Context, key string) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte(usecase.IdempotencyPending)
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
