package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"chainpay-gateway/internal/core/domain"
	"chainpay-gateway/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const expiryWindow = 5 * time.Minute

func newSettlementEnv() (*service.SettlementServiceImpl, *inMemoryPaymentRepo) {
	repo := newInMemoryPaymentRepo()
	svc := service.NewSettlementService(repo, nil, expiryWindow, zerolog.Nop())
	return svc, repo
}

// seedPending inserts a pending request with a backdated creation time.
func seedPending(t *testing.T, repo *inMemoryPaymentRepo, age time.Duration) *domain.PaymentRequest {
	t.Helper()
	created := time.Now().UTC().Add(-age)
	p := &domain.PaymentRequest{
		ID:         uuid.New(),
		MerchantID: uuid.New(),
		Amount:     decimal.RequireFromString("0.5"),
		Currency:   "ETH",
		Network:    domain.NetworkEthereum,
		Status:     domain.StatusPending,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

// A stale pending request is raced by a completion and an expiry.
// Exactly one writer wins; the loser observes the winner's state.
func TestCompleteVersusExpire_ExactlyOneWinner(t *testing.T) {
	for i := 0; i < 20; i++ {
		svc, repo := newSettlementEnv()
		p := seedPending(t, repo, 6*time.Minute)

		var wg sync.WaitGroup
		var completeErr, expireErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, completeErr = svc.Complete(context.Background(), p.MerchantID, p.ID, "0xdeadbeef")
		}()
		go func() {
			defer wg.Done()
			_, expireErr = svc.Expire(context.Background(), p.ID)
		}()
		wg.Wait()

		if completeErr == nil {
			require.Error(t, expireErr, "both writers won the race")
		} else {
			require.NoError(t, expireErr, "both writers lost the race")
		}

		final, err := repo.GetByID(context.Background(), p.ID)
		require.NoError(t, err)
		if completeErr == nil {
			assert.Equal(t, domain.StatusCompleted, final.Status)
			require.NotNil(t, final.TxHash)
			assert.Equal(t, "0xdeadbeef", *final.TxHash)
		} else {
			assert.Equal(t, domain.StatusFailed, final.Status)
			assert.Nil(t, final.TxHash)
		}
	}
}

// Many concurrent completions of the same request: one 200, the rest
// conflicts, and the stored hash belongs to the winner.
func TestConcurrentCompletes_SingleWinner(t *testing.T) {
	svc, repo := newSettlementEnv()
	p := seedPending(t, repo, time.Minute)

	const writers = 16
	hashes := make([]string, writers)
	results := make([]error, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		hashes[i] = "0xhash" + uuid.NewString()
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Complete(context.Background(), p.MerchantID, p.ID, hashes[i])
		}(i)
	}
	wg.Wait()

	winners := 0
	winnerHash := ""
	for i, err := range results {
		if err == nil {
			winners++
			winnerHash = hashes[i]
		}
	}
	require.Equal(t, 1, winners)

	final, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, final.Status)
	require.NotNil(t, final.TxHash)
	assert.Equal(t, winnerHash, *final.TxHash)
}

func TestSweepExpired_FailsOnlyStaleRequests(t *testing.T) {
	svc, repo := newSettlementEnv()

	stale := seedPending(t, repo, 6*time.Minute)
	fresh := seedPending(t, repo, 2*time.Minute)

	count, err := svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := repo.GetByID(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)

	got, err = repo.GetByID(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestSweepExpired_CompletedRowsUntouched(t *testing.T) {
	svc, repo := newSettlementEnv()

	p := seedPending(t, repo, 10*time.Minute)
	_, err := svc.Complete(context.Background(), p.MerchantID, p.ID, "0xsettled")
	require.NoError(t, err)

	count, err := svc.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

func TestConcurrentSweeps_CountOnceTotal(t *testing.T) {
	svc, repo := newSettlementEnv()

	const stale = 8
	for i := 0; i < stale; i++ {
		seedPending(t, repo, 6*time.Minute)
	}

	const sweepers = 4
	counts := make([]int64, sweepers)
	var wg sync.WaitGroup
	for i := 0; i < sweepers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := svc.SweepExpired(context.Background())
			require.NoError(t, err)
			counts[i] = n
		}(i)
	}
	wg.Wait()

	var total int64
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, int64(stale), total, "each stale request must be counted by exactly one sweep")
}
