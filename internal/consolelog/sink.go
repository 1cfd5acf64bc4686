package consolelog

import (
	"sync"
	"time"
)

// Severity tags a console entry. The set mirrors the visual classes the
// console renders: init, command, processing, info, success, error.
type Severity string

const (
	SeverityInit       Severity = "init"
	SeverityCommand    Severity = "command"
	SeverityProcessing Severity = "processing"
	SeverityInfo       Severity = "info"
	SeveritySuccess    Severity = "success"
	SeverityError      Severity = "error"
)

// Entry is one timestamped console line. Ordering is by position in the
// sink, not by timestamp: two entries appended within the same second share
// a timestamp.
type Entry struct {
	Timestamp   string   `json:"timestamp"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	TxHash      string   `json:"tx_hash,omitempty"`
	ExplorerURL string   `json:"explorer_url,omitempty"`
	Simulated   bool     `json:"simulated,omitempty"`
}

// Subscriber receives entries as they are appended.
type Subscriber chan Entry

// Sink is an append-only ordered log. There is no removal: rendering
// truncates visually, the data does not.
type Sink struct {
	mu      sync.Mutex
	entries []Entry
	subs    []Subscriber
	now     func() time.Time
}

func NewSink() *Sink {
	return &Sink{now: time.Now}
}

// SetClock overrides the wall clock, for tests.
func (s *Sink) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Append records an entry, stamping it with the current wall-clock time.
func (s *Sink) Append(message string, severity Severity) Entry {
	return s.AppendEntry(Entry{Message: message, Severity: severity})
}

// AppendTx records an entry carrying a transaction hash and explorer link.
func (s *Sink) AppendTx(message string, severity Severity, txHash, explorerURL string, simulated bool) Entry {
	return s.AppendEntry(Entry{
		Message:     message,
		Severity:    severity,
		TxHash:      txHash,
		ExplorerURL: explorerURL,
		Simulated:   simulated,
	})
}

func (s *Sink) AppendEntry(e Entry) Entry {
	s.mu.Lock()
	if e.Timestamp == "" {
		e.Timestamp = s.now().Format("15:04:05")
	}
	s.entries = append(s.entries, e)
	subs := make([]Subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub <- e:
		default:
			// Slow subscriber; the entry is still in the sink.
		}
	}
	return e
}

// Entries returns a snapshot copy in append order.
func (s *Sink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len reports how many entries have accumulated.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Subscribe registers a buffered channel that receives future entries.
func (s *Sink) Subscribe() Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(Subscriber, 100)
	s.subs = append(s.subs, ch)
	return ch
}
