package submission

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/taskcoin/backend/internal/ledger"
	"github.com/taskcoin/backend/internal/models"
	"github.com/taskcoin/backend/internal/testutil"
)

// ---------------------------------------------------------------------------
// In-memory mocks mirroring the repos' atomic conditional semantics.
// ---------------------------------------------------------------------------

type mockTasks struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*models.Task
}

func newMockTasks(tasks ...*models.Task) *mockTasks {
	m := &mockTasks{tasks: make(map[uuid.UUID]*models.Task)}
	for _, t := range tasks {
		cp := *t
		m.tasks[t.ID] = &cp
	}
	return m
}

func (m *mockTasks) ClaimSlot(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	if t.RequiredWorkers <= 0 {
		return nil, ledger.ErrCapacityExhausted
	}
	t.RequiredWorkers--
	cp := *t
	return &cp, nil
}

func (m *mockTasks) ReleaseSlot(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok {
		t.RequiredWorkers++
	}
	return nil
}

func (m *mockTasks) capacity(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[id].RequiredWorkers
}

type mockSubs struct {
	mu   sync.Mutex
	subs map[uuid.UUID]*models.Submission
}

func newMockSubs() *mockSubs {
	return &mockSubs{subs: make(map[uuid.UUID]*models.Submission)}
}

func (m *mockSubs) Insert(_ context.Context, _ pgx.Tx, s *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.subs[s.ID] = &cp
	return nil
}

func (m *mockSubs) GetByID(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSubs) MarkStatus(_ context.Context, _ pgx.Tx, id uuid.UUID, from, to string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	if s.Status != from {
		return nil, ledger.ErrInvalidTransition
	}
	s.Status = to
	cp := *s
	return &cp, nil
}

func (m *mockSubs) ListByWorker(_ context.Context, email string, page, limit int) ([]*models.Submission, int, error) {
	return nil, 0, nil
}

func (m *mockSubs) ListPendingByBuyer(_ context.Context, email string) ([]*models.Submission, error) {
	return nil, nil
}

type mockAccounts struct {
	mu    sync.Mutex
	coins map[string]int
}

func (m *mockAccounts) Credit(_ context.Context, _ pgx.Tx, email string, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coins[email] += amount
	return m.coins[email], nil
}

type recordEmitter struct {
	mu     sync.Mutex
	events []string
}

func (e *recordEmitter) Emit(_ context.Context, toEmail, message, _ string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, toEmail+": "+message)
}

func (e *recordEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}

// ---------------------------------------------------------------------------

func newTestService(tasks *mockTasks, subs *mockSubs, coins map[string]int) (*Service, *mockAccounts, *recordEmitter) {
	acc := &mockAccounts{coins: coins}
	em := &recordEmitter{}
	return NewService(testutil.Pool{}, tasks, subs, acc, em), acc, em
}

func openTask(capacity, payable int) *models.Task {
	return &models.Task{
		ID:              uuid.New(),
		Title:           "label images",
		RequiredWorkers: capacity,
		PayableAmount:   payable,
		TotalPayable:    capacity * payable,
		BuyerEmail:      "buyer@example.com",
	}
}

func TestSubmitTakesOneSlot(t *testing.T) {
	task := openTask(2, 20)
	tasks := newMockTasks(task)
	svc, _, em := newTestService(tasks, newMockSubs(), map[string]int{})

	sub, err := svc.Submit(context.Background(), "worker@example.com", "Worker", task.ID, "done, see attachment")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Status != models.SubmissionPending {
		t.Fatalf("status = %q, want pending", sub.Status)
	}
	if sub.PayableAmount != 20 {
		t.Fatalf("captured payable = %d, want 20", sub.PayableAmount)
	}
	if got := tasks.capacity(task.ID); got != 1 {
		t.Fatalf("capacity = %d, want 1", got)
	}
	if em.count() != 1 {
		t.Fatalf("notifications = %d, want 1 (to buyer)", em.count())
	}
}

func TestSubmitAgainstFullTask(t *testing.T) {
	task := openTask(0, 20)
	svc, _, _ := newTestService(newMockTasks(task), newMockSubs(), map[string]int{})

	_, err := svc.Submit(context.Background(), "worker@example.com", "Worker", task.ID, "work")
	if !errors.Is(err, ledger.ErrCapacityExhausted) {
		t.Fatalf("err = %v, want ErrCapacityExhausted", err)
	}
}

func TestSubmitUnknownTask(t *testing.T) {
	svc, _, _ := newTestService(newMockTasks(), newMockSubs(), map[string]int{})
	_, err := svc.Submit(context.Background(), "worker@example.com", "Worker", uuid.New(), "work")
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestApproveCreditsWorkerOnce(t *testing.T) {
	task := openTask(2, 20)
	tasks := newMockTasks(task)
	subs := newMockSubs()
	svc, acc, em := newTestService(tasks, subs, map[string]int{"worker@example.com": 10})
	ctx := context.Background()

	sub, err := svc.Submit(ctx, "worker@example.com", "Worker", task.ID, "work")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	approved, err := svc.Approve(ctx, "buyer@example.com", "Buyer", sub.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != models.SubmissionApproved {
		t.Fatalf("status = %q, want approved", approved.Status)
	}
	if acc.coins["worker@example.com"] != 30 {
		t.Fatalf("worker balance = %d, want 30", acc.coins["worker@example.com"])
	}
	if em.count() != 2 { // submit → buyer, approve → worker
		t.Fatalf("notifications = %d, want 2", em.count())
	}

	// Terminal: a second approve changes nothing.
	_, err = svc.Approve(ctx, "buyer@example.com", "Buyer", sub.ID)
	if !errors.Is(err, ledger.ErrInvalidTransition) {
		t.Fatalf("second approve err = %v, want ErrInvalidTransition", err)
	}
	if acc.coins["worker@example.com"] != 30 {
		t.Fatalf("worker balance after replay = %d, want 30", acc.coins["worker@example.com"])
	}
}

func TestRejectReopensSlot(t *testing.T) {
	task := openTask(2, 20)
	tasks := newMockTasks(task)
	svc, acc, _ := newTestService(tasks, newMockSubs(), map[string]int{"worker@example.com": 10})
	ctx := context.Background()

	sub, err := svc.Submit(ctx, "worker@example.com", "Worker", task.ID, "work")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := tasks.capacity(task.ID); got != 1 {
		t.Fatalf("capacity after submit = %d, want 1", got)
	}

	rejected, err := svc.Reject(ctx, "buyer@example.com", "Buyer", sub.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != models.SubmissionRejected {
		t.Fatalf("status = %q, want rejected", rejected.Status)
	}
	if got := tasks.capacity(task.ID); got != 2 {
		t.Fatalf("capacity after reject = %d, want 2", got)
	}
	if acc.coins["worker@example.com"] != 10 {
		t.Fatalf("worker balance = %d, want unchanged 10", acc.coins["worker@example.com"])
	}

	_, err = svc.Approve(ctx, "buyer@example.com", "Buyer", sub.ID)
	if !errors.Is(err, ledger.ErrInvalidTransition) {
		t.Fatalf("approve after reject err = %v, want ErrInvalidTransition", err)
	}
}

func TestReviewByWrongBuyer(t *testing.T) {
	task := openTask(1, 20)
	svc, _, _ := newTestService(newMockTasks(task), newMockSubs(), map[string]int{})
	ctx := context.Background()

	sub, err := svc.Submit(ctx, "worker@example.com", "Worker", task.ID, "work")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	_, err = svc.Approve(ctx, "other@example.com", "Other", sub.ID)
	if !errors.Is(err, ledger.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

// Two racing submissions against a task with one slot: exactly one gets a
// pending submission, the other fails with CapacityExhausted.
func TestConcurrentSubmissionsLastSlot(t *testing.T) {
	task := openTask(1, 20)
	tasks := newMockTasks(task)
	svc, _, _ := newTestService(tasks, newMockSubs(), map[string]int{})
	ctx := context.Background()

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.Submit(ctx, "worker@example.com", "Worker", task.ID, "work")
			results <- err
		}()
	}

	var oks, exhausted int
	for i := 0; i < 2; i++ {
		err := <-results
		switch {
		case err == nil:
			oks++
		case errors.Is(err, ledger.ErrCapacityExhausted):
			exhausted++
		default:
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if oks != 1 || exhausted != 1 {
		t.Fatalf("oks = %d, exhausted = %d; want 1 and 1", oks, exhausted)
	}
	if got := tasks.capacity(task.ID); got != 0 {
		t.Fatalf("capacity = %d, want 0", got)
	}
}
