package services

import (
	"context"
	"sync"
)

// TournamentLocker serializes bracket mutations per tournament. Callers queue
// behind whoever holds the lock for the same tournament id; mutations against
// different tournaments never contend.
type TournamentLocker struct {
	mu    sync.Mutex
	locks map[int]*tournamentLock
}

type tournamentLock struct {
	ch   chan struct{}
	refs int
}

func NewTournamentLocker() *TournamentLocker {
	return &TournamentLocker{locks: make(map[int]*tournamentLock)}
}

// Acquire blocks until the caller holds the tournament's mutation lock or ctx
// is done. On success it returns the release func; the caller must invoke it
// exactly once. On ctx cancellation it returns ErrConcurrentMutationRejected.
func (l *TournamentLocker) Acquire(ctx context.Context, tournamentID int) (func(), error) {
	l.mu.Lock()
	tl, ok := l.locks[tournamentID]
	if !ok {
		tl = &tournamentLock{ch: make(chan struct{}, 1)}
		l.locks[tournamentID] = tl
	}
	tl.refs++
	l.mu.Unlock()

	select {
	case tl.ch <- struct{}{}:
		return func() {
			<-tl.ch
			l.put(tournamentID, tl)
		}, nil
	case <-ctx.Done():
		l.put(tournamentID, tl)
		return nil, ErrConcurrentMutationRejected
	}
}

func (l *TournamentLocker) put(tournamentID int, tl *tournamentLock) {
	l.mu.Lock()
	tl.refs--
	if tl.refs == 0 {
		delete(l.locks, tournamentID)
	}
	l.mu.Unlock()
}
