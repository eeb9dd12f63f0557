package withdrawal

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskcoin/backend/internal/ledger"
	"github.com/taskcoin/backend/internal/models"
	"github.com/taskcoin/backend/internal/testutil"
)

type mockWithdrawals struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.Withdrawal
}

func newMockWithdrawals() *mockWithdrawals {
	return &mockWithdrawals{rows: make(map[uuid.UUID]*models.Withdrawal)}
}

func (m *mockWithdrawals) Insert(_ context.Context, _ pgx.Tx, w *models.Withdrawal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *w
	m.rows[w.ID] = &cp
	return nil
}

func (m *mockWithdrawals) MarkApproved(_ context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.rows[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	if w.Status != models.WithdrawalPending {
		return nil, ledger.ErrInvalidTransition
	}
	w.Status = models.WithdrawalApproved
	cp := *w
	return &cp, nil
}

func (m *mockWithdrawals) ListByWorker(_ context.Context, email string) ([]*models.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Withdrawal
	for _, w := range m.rows {
		if w.WorkerEmail == email {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockWithdrawals) ListPending(_ context.Context) ([]*models.Withdrawal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Withdrawal
	for _, w := range m.rows {
		if w.Status == models.WithdrawalPending {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

type mockAccounts struct {
	mu    sync.Mutex
	coins map[string]int
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

type mockDirectory struct {
	admins []string
}

func (m *mockDirectory) ListEmailsByRole(_ context.Context, role string) ([]string, error) {
	if role == models.RoleAdmin {
		return m.admins, nil
	}
	return nil, nil
}

type recordEmitter struct {
	mu     sync.Mutex
	events map[string]int
}

func (e *recordEmitter) Emit(_ context.Context, toEmail, _, _ string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.events == nil {
		e.events = make(map[string]int)
	}
	e.events[toEmail]++
}

func newTestService(coins map[string]int, admins ...string) (*Service, *mockAccounts, *recordEmitter) {
	acc := &mockAccounts{coins: coins}
	em := &recordEmitter{}
	svc := NewService(testutil.Pool{}, newMockWithdrawals(), acc, &mockDirectory{admins: admins}, em)
	return svc, acc, em
}

// Worker with 20 coins asking for 25: no record, balance untouched.
func TestRequestInsufficientFunds(t *testing.T) {
	svc, acc, _ := newTestService(map[string]int{"worker@example.com": 20})

	_, err := svc.Request(context.Background(), "worker@example.com", "Worker", 25, 2, "bkash")
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.Equal(t, 20, acc.coins["worker@example.com"])

	pending, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRequestMissingFields(t *testing.T) {
	svc, _, _ := newTestService(map[string]int{"worker@example.com": 100})
	for _, tc := range []struct {
		coin, amount int
		system       string
	}{
		{0, 2, "bkash"},
		{20, 0, "bkash"},
		{20, 2, ""},
	} {
		_, err := svc.Request(context.Background(), "worker@example.com", "Worker", tc.coin, tc.amount, tc.system)
		assert.ErrorIs(t, err, ledger.ErrMissingField)
	}
}

func TestRequestNotifiesAdmins(t *testing.T) {
	svc, acc, em := newTestService(map[string]int{"worker@example.com": 100},
		"admin1@example.com", "admin2@example.com")

	wd, err := svc.Request(context.Background(), "worker@example.com", "Worker", 60, 6, "nagad")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalPending, wd.Status)
	assert.Equal(t, 40, acc.coins["worker@example.com"])
	assert.Equal(t, 1, em.events["admin1@example.com"])
	assert.Equal(t, 1, em.events["admin2@example.com"])
}

// The worker is debited exactly once per withdrawal lifecycle: at request
// time. Approval flips status only.
func TestRequestThenApproveDebitsOnce(t *testing.T) {
	svc, acc, em := newTestService(map[string]int{"worker@example.com": 100}, "admin@example.com")
	ctx := context.Background()

	wd, err := svc.Request(ctx, "worker@example.com", "Worker", 30, 3, "bkash")
	require.NoError(t, err)
	assert.Equal(t, 70, acc.coins["worker@example.com"])

	approved, err := svc.Approve(ctx, wd.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalApproved, approved.Status)
	assert.Equal(t, 70, acc.coins["worker@example.com"], "approval must not debit again")
	assert.Equal(t, 1, em.events["worker@example.com"], "worker notified of payout")

	// Terminal: replaying the approval is rejected and still moves nothing.
	_, err = svc.Approve(ctx, wd.ID)
	assert.ErrorIs(t, err, ledger.ErrInvalidTransition)
	assert.Equal(t, 70, acc.coins["worker@example.com"])
}

func TestApproveUnknownWithdrawal(t *testing.T) {
	svc, _, _ := newTestService(map[string]int{})
	_, err := svc.Approve(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
