package eventlog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity 保持する最大エントリ数
const DefaultCapacity = 100

// Ring 直近のエントリを保持するリングバッファ
// 満杯の場合は最も古いエントリを上書きする。
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	start   int
	size    int
	redact  bool
	now     func() time.Time
}

// NewRing 新しいRingを作成。capacityが0以下の場合はDefaultCapacity
func NewRing(capacity int, redact bool) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{
		entries: make([]Entry, capacity),
		redact:  redact,
		now:     time.Now,
	}
}

// Append エントリを追加する
func (r *Ring) Append(e Entry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now()
	}
	if r.redact {
		e = e.Redacted()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	capacity := len(r.entries)
	if r.size < capacity {
		r.entries[(r.start+r.size)%capacity] = e
		r.size++
		return
	}
	r.entries[r.start] = e
	r.start = (r.start + 1) % capacity
}

// List 追加順に全エントリを返す
func (r *Ring) List() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, 0, r.size)
	for i := 0; i < r.size; i++ {
		out = append(out, r.entries[(r.start+i)%len(r.entries)])
	}
	return out
}

// Len 現在のエントリ数を返す
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Capacity 最大エントリ数を返す
func (r *Ring) Capacity() int {
	return len(r.entries)
}
