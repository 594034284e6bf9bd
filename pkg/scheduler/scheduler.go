// Package scheduler implements the fixed-period task fan-in of spec.md
// §5: gossip at 1Hz, the requester at 32Hz (31.25ms), a receiver drain
// at 64Hz (15.625ms), the disk saver at 1/30Hz, and a display refresh at
// 1Hz started only after a 900ms warm-up. The miner is handled
// separately (RescheduleMine) since it is self-rescheduling rather than
// timer-driven: each attempt batch re-arms itself at zero delay so it
// runs again as soon as every other pending task has had a turn.
//
// No corpus example reaches for a scheduling library (robfig/cron and
// similar solve calendar-style recurrence, not fixed-period fan-in); a
// handful of time.Ticker instances merged through select in pkg/node is
// the idiomatic stdlib answer to "run these N things at N fixed rates"
// and needs no further dependency (see DESIGN.md).
package scheduler

import "time"

const (
	GossipInterval  = 1 * time.Second
	RequestInterval = time.Second / 32
	ReceiveInterval = time.Second / 64
	SaveInterval    = 30 * time.Second
	DisplayInterval = 1 * time.Second
	DisplayWarmup   = 900 * time.Millisecond
)

// Scheduler owns the timers pkg/node's event loop selects over.
type Scheduler struct {
	Gossip  *time.Ticker
	Request *time.Ticker
	Receive *time.Ticker
	Save    *time.Ticker

	Mine chan struct{}

	displayC chan time.Time
	stopWarm chan struct{}
}

// New starts every fixed-period ticker and primes the miner's
// self-rescheduling channel so it runs on the very first pass through
// the node's event loop.
func New() *Scheduler {
	s := &Scheduler{
		Gossip:   time.NewTicker(GossipInterval),
		Request:  time.NewTicker(RequestInterval),
		Receive:  time.NewTicker(ReceiveInterval),
		Save:     time.NewTicker(SaveInterval),
		Mine:     make(chan struct{}, 1),
		displayC: make(chan time.Time, 1),
		stopWarm: make(chan struct{}),
	}
	s.Mine <- struct{}{}

	go func() {
		select {
		case <-time.After(DisplayWarmup):
		case <-s.stopWarm:
			return
		}
		ticker := time.NewTicker(DisplayInterval)
		defer ticker.Stop()
		for {
			select {
			case t := <-ticker.C:
				select {
				case s.displayC <- t:
				default:
				}
			case <-s.stopWarm:
				return
			}
		}
	}()

	return s
}

// Display returns the display-refresh channel; it stays silent until
// DisplayWarmup has elapsed since New was called.
func (s *Scheduler) Display() <-chan time.Time {
	return s.displayC
}

// RescheduleMine re-arms the miner to run again on the next pass through
// the event loop. Safe to call whether or not a prior signal is still
// pending — at most one mining turn is ever queued at a time.
func (s *Scheduler) RescheduleMine() {
	select {
	case s.Mine <- struct{}{}:
	default:
	}
}

// Stop releases every ticker and the warm-up goroutine.
func (s *Scheduler) Stop() {
	s.Gossip.Stop()
	s.Request.Stop()
	s.Receive.Stop()
	s.Save.Stop()
	close(s.stopWarm)
}
