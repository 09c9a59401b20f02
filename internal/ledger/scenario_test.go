package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger_service/internal/domain"
	"ledger_service/internal/ledger"
	"ledger_service/internal/memstore"
)

func TestLedgerScenarios(t *testing.T) {
	s := memstore.New()
	ids := seedAccounts(t, s, "1000.00", "500.00")
	a, b := ids[0], ids[1]
	clock := newStepClock(clockStart, time.Minute)
	e := ledger.NewEngine(s, ledger.WithClock(clock.Now))
	q := ledger.NewQueryService(s, nil, nil)
	ctx := context.Background()

	// 200.00 from A to B.
	first, err := e.Transfer(ctx, ledger.TransferRequest{FromAccountID: a, ToAccountID: b, Amount: dec("200.00")})
	require.NoError(t, err)
	requireBalance(t, s, a, "800.00")
	requireBalance(t, s, b, "700.00")
	assert.Equal(t, domain.TypeTransfer, first.Type)

	// 2000.00 from A is more than it holds.
	_, err = e.Transfer(ctx, ledger.TransferRequest{FromAccountID: a, ToAccountID: b, Amount: dec("2000.00")})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	requireBalance(t, s, a, "800.00")
	requireBalance(t, s, b, "700.00")

	// Unknown source account.
	_, err = e.Transfer(ctx, ledger.TransferRequest{FromAccountID: uuid.New(), ToAccountID: b, Amount: dec("1.00")})
	require.ErrorIs(t, err, ledger.ErrAccountNotFound)

	second, err := e.Transfer(ctx, ledger.TransferRequest{FromAccountID: b, ToAccountID: a, Amount: dec("50.00")})
	require.NoError(t, err)

	all, err := q.Transactions(ctx, a, ledger.TimeRange{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	// A window bounding exactly the first transfer.
	start, end := first.CreatedAt, first.CreatedAt
	window, err := q.Transactions(ctx, a, ledger.TimeRange{Start: &start, End: &end})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, first.ID, window[0].ID)
	assert.NotEqual(t, second.ID, window[0].ID)

	// Reads are repeatable.
	b1, err := q.Balance(ctx, a)
	require.NoError(t, err)
	b2, err := q.Balance(ctx, a)
	require.NoError(t, err)
	assert.True(t, b1.Equal(b2))
	assert.Equal(t, "850.00", b1.StringFixed(2))
}

func TestConcurrentTransfersToDistinctDestinations(t *testing.T) {
	const n = 60
	balances := make([]string, n+1)
	balances[0] = "500.00"
	for i := 1; i <= n; i++ {
		balances[i] = "0"
	}
	s := memstore.New()
	ids := seedAccounts(t, s, balances...)
	e := ledger.NewEngine(s)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(dst uuid.UUID) {
			defer wg.Done()
			_, err := e.Transfer(context.Background(), ledger.TransferRequest{FromAccountID: ids[0], ToAccountID: dst, Amount: dec("12.00")})
			if err != nil && !errors.Is(err, ledger.ErrInsufficientFunds) {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(ids[i])
	}
	wg.Wait()

	assert.Equal(t, 41, successes) // floor(500 / 12)
	requireBalance(t, s, ids[0], "8.00")

	credited := dec("0")
	for _, id := range ids[1:] {
		credited = credited.Add(balanceOf(t, s, id))
	}
	assert.True(t, credited.Equal(dec("492")), "credited %s", credited)
}
