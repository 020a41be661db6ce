package trading

import "sync"

// tickerLocks hands out one mutex per ticker and forgets it once no caller
// holds or waits for it. The locks only serialise engines in this process;
// another process writing the same store is not excluded.
type tickerLocks struct {
	mu    sync.Mutex
	locks map[string]*tickerLock
}

type tickerLock struct {
	mu   sync.Mutex
	refs int
}

func newTickerLocks() *tickerLocks {
	return &tickerLocks{locks: make(map[string]*tickerLock)}
}

// Lock blocks until ticker is free and returns the matching unlock function.
func (l *tickerLocks) Lock(ticker string) (unlock func()) {
	l.mu.Lock()
	lk, ok := l.locks[ticker]
	if !ok {
		lk = &tickerLock{}
		l.locks[ticker] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()
	return func() {
		lk.mu.Unlock()

		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, ticker)
		}
		l.mu.Unlock()
	}
}

// size returns the number of tickers currently tracked.
func (l *tickerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
