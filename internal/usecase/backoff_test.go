package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/rollout/internal/domain"
	"github.com/trebuchet-org/rollout/internal/domain/config"
	"github.com/trebuchet-org/rollout/internal/usecase"
)

func TestBackoff_Delay(t *testing.T) {
	b := usecase.BackoffFromPolicy(config.DefaultConfirmationPolicy())

	want := []time.Duration{
		2 * time.Second,
		3 * time.Second,
		4500 * time.Millisecond,
		6750 * time.Millisecond,
		10125 * time.Millisecond,
		15187500 * time.Microsecond,
		22781250 * time.Microsecond,
		30 * time.Second,
		30 * time.Second,
	}
	for n, d := range want {
		assert.Equal(t, d, b.Delay(n), "attempt %d", n)
	}
}

func TestBackoff_MultiplierBelowOneIsConstant(t *testing.T) {
	b := usecase.Backoff{Initial: time.Second, Multiplier: 0.5, Max: time.Minute}
	assert.Equal(t, time.Second, b.Delay(0))
	assert.Equal(t, time.Second, b.Delay(5))
}

func TestConfirmationWaiter(t *testing.T) {
	policy := config.DefaultConfirmationPolicy()

	t.Run("counts confirmations from the receipt block", func(t *testing.T) {
		chain := newFakeChain()
		chain.mu.Lock()
		hash := chain.mine()
		chain.head += 2
		chain.mu.Unlock()

		p := policy
		p.Confirmations = 3
		got, err := usecase.NewConfirmationWaiter(newFakeClock(), p).Wait(context.Background(), chain, hash)
		require.NoError(t, err)
		assert.Equal(t, uint64(101), got.BlockNumber)
		assert.Equal(t, uint64(3), got.Confirmations)
		assert.Equal(t, 1, got.Attempts)
	})

	t.Run("waits for more blocks", func(t *testing.T) {
		chain := newFakeChain()
		chain.mu.Lock()
		hash := chain.mine()
		chain.mu.Unlock()

		clock := newFakeClock()
		clock.onSleep = func(int, time.Duration) error {
			chain.mu.Lock()
			chain.head++
			chain.mu.Unlock()
			return nil
		}

		p := policy
		p.Confirmations = 2
		got, err := usecase.NewConfirmationWaiter(clock, p).Wait(context.Background(), chain, hash)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), got.Confirmations)
		assert.Equal(t, []time.Duration{2 * time.Second}, clock.Sleeps())
	})

	t.Run("times out", func(t *testing.T) {
		chain := newFakeChain()
		chain.neverMined = true
		clock := newFakeClock()

		p := policy
		p.Timeout = 5 * time.Second
		got, err := usecase.NewConfirmationWaiter(clock, p).Wait(context.Background(), chain, [32]byte{1})
		assert.ErrorIs(t, err, domain.ErrConfirmationTimeout)
		assert.Nil(t, got.Receipt)
		assert.Equal(t, []time.Duration{2 * time.Second, 3 * time.Second}, clock.Sleeps())
	})

	t.Run("cancelled context", func(t *testing.T) {
		chain := newFakeChain()
		chain.neverMined = true
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := usecase.NewConfirmationWaiter(newFakeClock(), policy).Wait(ctx, chain, [32]byte{1})
		assert.ErrorIs(t, err, domain.ErrCancelled)
		assert.Zero(t, chain.receiptCalls)
	})
}
