package arxiv

import "sync"

// Conversion states form a small machine:
// downloading -> converting -> success | error.
const (
	statusDownloading = "downloading"
	statusConverting  = "converting"
	statusSuccess     = "success"
	statusError       = "error"
)

type record struct {
	Status string
	Detail string
}

// tracker keeps per-paper conversion records. Records are process-scoped:
// they are at-most-once-per-process tracking, not durable state, and are
// gone after a restart.
type tracker struct {
	mu      sync.RWMutex
	records map[string]record
}

func newTracker() *tracker {
	return &tracker{records: make(map[string]record)}
}

func (t *tracker) set(paperID, status, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[paperID] = record{Status: status, Detail: detail}
}

func (t *tracker) get(paperID string) (record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[paperID]
	return rec, ok
}
