package session

import (
	"log"
	"time"
)

// Sweeper periodically drops expired sessions from a Store
type Sweeper struct {
	store    *Store
	interval time.Duration
	stopChan chan struct{}
	now      func() time.Time
}

// DefaultSweepInterval is used when NewSweeper is given a non-positive interval
const DefaultSweepInterval = 10 * time.Minute

// NewSweeper creates a sweeper running every interval
func NewSweeper(store *Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// Start sweeps once immediately, then on every tick until Stop
func (w *Sweeper) Start() {
	log.Printf("[DANAM-SESSION] Starting session sweeper with %v interval", w.interval)
	w.run()

	ticker := time.NewTicker(w.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				w.run()
			case <-w.stopChan:
				ticker.Stop()
				log.Println("[DANAM-SESSION] Session sweeper stopped")
				return
			}
		}
	}()
}

// Stop ends the sweep loop
func (w *Sweeper) Stop() {
	close(w.stopChan)
}

func (w *Sweeper) run() {
	if n := w.store.Sweep(w.now()); n > 0 {
		log.Printf("[DANAM-SESSION] Swept %d expired sessions", n)
	}
}
