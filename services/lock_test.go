package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockerSerializesSameTournament(t *testing.T) {
	locker := NewTournamentLocker()

	release, err := locker.Acquire(context.Background(), 1)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		r2, err2 := locker.Acquire(context.Background(), 1)
		require.NoError(t, err2)
		close(acquired)
		r2()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while the lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never completed after release")
	}
}

func TestLockerIndependentTournaments(t *testing.T) {
	locker := NewTournamentLocker()

	r1, err := locker.Acquire(context.Background(), 1)
	require.NoError(t, err)
	defer r1()

	done := make(chan struct{})
	go func() {
		r2, err2 := locker.Acquire(context.Background(), 2)
		require.NoError(t, err2)
		r2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("different tournament id should not contend")
	}
}

func TestLockerContextCancellationWhileQueued(t *testing.T) {
	locker := NewTournamentLocker()

	release, err := locker.Acquire(context.Background(), 7)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, acqErr := locker.Acquire(ctx, 7)
		errCh <- acqErr
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case acqErr := <-errCh:
		assert.ErrorIs(t, acqErr, ErrConcurrentMutationRejected)
	case <-time.After(time.Second):
		t.Fatal("queued acquire did not observe cancellation")
	}

	release()

	// The lock must remain usable after an abandoned waiter.
	r2, err := locker.Acquire(context.Background(), 7)
	require.NoError(t, err)
	r2()
}

func TestLockerManyWaitersAllProceed(t *testing.T) {
	locker := NewTournamentLocker()

	const n = 32
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), 3)
			require.NoError(t, err)
			counter++
			release()
		}()
	}

	wg.Wait()
	assert.Equal(t, n, counter)
}
