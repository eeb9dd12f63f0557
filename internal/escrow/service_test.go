package escrow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskcoin/backend/internal/ledger"
	"github.com/taskcoin/backend/internal/models"
	"github.com/taskcoin/backend/internal/testutil"
)

type mockTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*models.Task
}

func newMockTaskStore() *mockTaskStore {
	return &mockTaskStore{tasks: make(map[uuid.UUID]*models.Task)}
}

func (m *mockTaskStore) Insert(_ context.Context, _ pgx.Tx, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *mockTaskStore) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockTaskStore) GetForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*models.Task, error) {
	return m.GetByID(ctx, id)
}

func (m *mockTaskStore) UpdateDetails(_ context.Context, id uuid.UUID, title, detail, info string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return ledger.ErrNotFound
	}
	t.Title, t.Detail, t.SubmissionInfo = title, detail, info
	return nil
}

func (m *mockTaskStore) Delete(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *mockTaskStore) ListOpen(_ context.Context) ([]*models.Task, error)            { return nil, nil }
func (m *mockTaskStore) ListByBuyer(_ context.Context, _ string) ([]*models.Task, error) { return nil, nil }

type mockAccounts struct {
	mu    sync.Mutex
	coins map[string]int
}

func (m *mockAccounts) Credit(_ context.Context, _ pgx.Tx, email string, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.coins[email]; !ok {
		return 0, ledger.ErrNotFound
	}
	m.coins[email] += amount
	return m.coins[email], nil
}

func (m *mockAccounts) Debit(_ context.Context, _ pgx.Tx, email string, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coins[email]
	if !ok {
		return 0, ledger.ErrNotFound
	}
	if c < amount {
		return 0, ledger.ErrInsufficientFunds
	}
	m.coins[email] = c - amount
	return m.coins[email], nil
}

func newTestService(coins map[string]int) (*Service, *mockTaskStore, *mockAccounts) {
	tasks := newMockTaskStore()
	acc := &mockAccounts{coins: coins}
	return NewService(testutil.Pool{}, tasks, acc), tasks, acc
}

func input(workers, payable int) CreateInput {
	return CreateInput{
		Title:           "label images",
		Detail:          "label 100 images",
		RequiredWorkers: workers,
		PayableAmount:   payable,
		CompletionDate:  time.Now().Add(72 * time.Hour),
	}
}

// Buyer with 50 coins posts 3×20 = 60: rejected, balance untouched.
func TestCreateInsufficientFunds(t *testing.T) {
	svc, tasks, acc := newTestService(map[string]int{"buyer@example.com": 50})

	_, err := svc.Create(context.Background(), "buyer@example.com", input(3, 20))
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if acc.coins["buyer@example.com"] != 50 {
		t.Fatalf("buyer balance = %d, want unchanged 50", acc.coins["buyer@example.com"])
	}
	if len(tasks.tasks) != 0 {
		t.Fatalf("task count = %d, want 0", len(tasks.tasks))
	}
}

// Buyer with 50 coins posts 2×20 = 40: task created, balance 10, escrow fixed.
func TestCreateEscrowsTotalPayable(t *testing.T) {
	svc, _, acc := newTestService(map[string]int{"buyer@example.com": 50})

	task, err := svc.Create(context.Background(), "buyer@example.com", input(2, 20))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if acc.coins["buyer@example.com"] != 10 {
		t.Fatalf("buyer balance = %d, want 10", acc.coins["buyer@example.com"])
	}
	if task.RequiredWorkers != 2 || task.TotalPayable != 40 {
		t.Fatalf("task = %+v, want required_workers=2 total_payable=40", task)
	}
}

func TestCreateUnknownBuyer(t *testing.T) {
	svc, _, _ := newTestService(map[string]int{})
	_, err := svc.Create(context.Background(), "ghost@example.com", input(1, 10))
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService(map[string]int{"buyer@example.com": 50})
	for _, in := range []CreateInput{
		{Title: "", RequiredWorkers: 1, PayableAmount: 10},
		{Title: "t", RequiredWorkers: 0, PayableAmount: 10},
		{Title: "t", RequiredWorkers: 1, PayableAmount: 0},
	} {
		if _, err := svc.Create(context.Background(), "buyer@example.com", in); !errors.Is(err, ledger.ErrMissingField) {
			t.Fatalf("input %+v: err = %v, want ErrMissingField", in, err)
		}
	}
}

// Closing refunds remaining capacity × payable amount: the full escrow
// cycle conserves coins.
func TestCloseRefundsUnspentEscrow(t *testing.T) {
	svc, tasks, acc := newTestService(map[string]int{"buyer@example.com": 50})
	ctx := context.Background()

	task, err := svc.Create(ctx, "buyer@example.com", input(2, 20))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// One slot was consumed by an accepted submission.
	tasks.tasks[task.ID].RequiredWorkers = 1

	if err := svc.Close(ctx, "buyer@example.com", false, task.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	// 50 − 40 escrow + 20 refund = 30; the other 20 stays committed to the
	// pending submission's payout.
	if acc.coins["buyer@example.com"] != 30 {
		t.Fatalf("buyer balance = %d, want 30", acc.coins["buyer@example.com"])
	}
	if _, err := svc.Get(ctx, task.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("task still present after close")
	}
}

func TestCloseByStranger(t *testing.T) {
	svc, _, acc := newTestService(map[string]int{"buyer@example.com": 50})
	ctx := context.Background()

	task, err := svc.Create(ctx, "buyer@example.com", input(1, 10))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Close(ctx, "other@example.com", false, task.ID); !errors.Is(err, ledger.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	// Admin override is allowed.
	if err := svc.Close(ctx, "admin@example.com", true, task.ID); err != nil {
		t.Fatalf("admin close: %v", err)
	}
	if acc.coins["buyer@example.com"] != 50 {
		t.Fatalf("buyer balance = %d, want full refund to 50", acc.coins["buyer@example.com"])
	}
}

func TestUpdateOnlyOwner(t *testing.T) {
	svc, _, _ := newTestService(map[string]int{"buyer@example.com": 50})
	ctx := context.Background()

	task, err := svc.Create(ctx, "buyer@example.com", input(1, 10))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Update(ctx, "other@example.com", task.ID, "t", "d", "i"); !errors.Is(err, ledger.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if err := svc.Update(ctx, "buyer@example.com", task.ID, "new title", "new detail", "new info"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := svc.Get(ctx, task.ID)
	if got.Title != "new title" {
		t.Fatalf("title = %q, want %q", got.Title, "new title")
	}
	// Money fields survive edits untouched.
	if got.PayableAmount != 10 || got.TotalPayable != 10 {
		t.Fatalf("money fields changed: %+v", got)
	}
}
