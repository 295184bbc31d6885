package reembed

import (
	"fmt"
	"io"
	"time"
)

// Progress is a snapshot of a migration taken after a batch is stored.
type Progress struct {
	From, To string
	// Batch counts stored batches out of Batches.
	Batch, Batches int
	// Texts counts stored texts out of Total.
	Texts, Total int
	Elapsed      time.Duration
}

// Done reports whether every text has been stored.
func (p Progress) Done() bool {
	return p.Texts >= p.Total
}

// Rate returns the texts stored per second.
func (p Progress) Rate() float64 {
	if secs := p.Elapsed.Seconds(); secs > 0 {
		return float64(p.Texts) / secs
	}
	return 0
}

// String renders the snapshot as one status line.
func (p Progress) String() string {
	pct := 100.0
	if p.Total > 0 {
		pct = float64(p.Texts) / float64(p.Total) * 100
	}
	return fmt.Sprintf("%s -> %s: batch %d/%d, %d/%d texts (%.0f%%), %.1f texts/s",
		p.From, p.To, p.Batch, p.Batches, p.Texts, p.Total, pct, p.Rate())
}

// monitor turns batch completions into Progress snapshots. Every snapshot
// goes to notify; the status line on out is redrawn once at least interval
// texts have been stored since the last redraw, and always for the last
// batch. A monitor is driven by a single goroutine.
type monitor struct {
	out      io.Writer
	notify   func(Progress)
	interval int
	state    Progress
	drawn    int
	start    time.Time
}

func newMonitor(out io.Writer, notify func(Progress), from, to string, total, batchSize, interval int) *monitor {
	batches := 0
	if batchSize > 0 {
		batches = (total + batchSize - 1) / batchSize
	}
	return &monitor{
		out:      out,
		notify:   notify,
		interval: max(interval, 1),
		state:    Progress{From: from, To: to, Batches: batches, Total: total},
		start:    time.Now(),
	}
}

// batchStored records n more stored texts and returns the new snapshot.
func (m *monitor) batchStored(n int) Progress {
	m.state.Batch++
	m.state.Texts = min(m.state.Texts+n, m.state.Total)
	m.state.Elapsed = time.Since(m.start)

	if m.notify != nil {
		m.notify(m.state)
	}
	if m.state.Done() || m.state.Texts-m.drawn >= m.interval {
		fmt.Fprintf(m.out, "\r%s", m.state)
		m.drawn = m.state.Texts
		if m.state.Done() {
			fmt.Fprintln(m.out)
		}
	}
	return m.state
}

// elapsed returns the time since the monitor was created.
func (m *monitor) elapsed() time.Duration {
	return time.Since(m.start)
}
