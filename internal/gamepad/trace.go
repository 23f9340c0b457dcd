package gamepad

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/smallnest/ringbuffer"
)

const traceHeader = 2 // little-endian record length

// ReportTrace keeps the most recent raw reports in a fixed byte budget.
// Records are length-prefixed; the oldest are dropped to make room.
type ReportTrace struct {
	mu       sync.Mutex
	buf      *ringbuffer.RingBuffer
	capacity int
	records  int
}

// NewReportTrace allocates a trace holding at most capacity bytes including headers.
func NewReportTrace(capacity int) *ReportTrace {
	if capacity < traceHeader+1 {
		capacity = traceHeader + 1
	}
	return &ReportTrace{buf: ringbuffer.New(capacity), capacity: capacity}
}

// Record stores a copy of raw, truncated to fit the trace.
func (t *ReportTrace) Record(raw []byte) {
	if limit := t.capacity - traceHeader; len(raw) > limit {
		raw = raw[:limit]
	}
	need := traceHeader + len(raw)

	t.mu.Lock()
	defer t.mu.Unlock()

	for t.buf.Free() < need && t.records > 0 {
		if !t.dropOldest() {
			t.clear()
			break
		}
	}

	rec := make([]byte, need)
	binary.LittleEndian.PutUint16(rec, uint16(len(raw)))
	copy(rec[traceHeader:], raw)
	if n, err := t.buf.Write(rec); err != nil || n != need {
		// A torn record would desynchronize every later read.
		t.clear()
		return
	}
	t.records++
}

// Recent returns copies of the stored reports, oldest first.
func (t *ReportTrace) Recent() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.buf.Length() == 0 {
		return nil
	}
	all := make([]byte, t.buf.Length())
	n, err := t.buf.Read(all)
	if err != nil && !errors.Is(err, ringbuffer.ErrIsEmpty) {
		t.clear()
		return nil
	}
	all = all[:n]

	// Put the bytes back; reading must not consume the trace.
	if _, err := t.buf.Write(all); err != nil {
		t.clear()
		return nil
	}

	out := make([][]byte, 0, t.records)
	for len(all) >= traceHeader {
		size := int(binary.LittleEndian.Uint16(all))
		all = all[traceHeader:]
		if size > len(all) {
			break
		}
		rec := make([]byte, size)
		copy(rec, all[:size])
		out = append(out, rec)
		all = all[size:]
	}
	return out
}

// Len returns the number of stored reports.
func (t *ReportTrace) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.records
}

func (t *ReportTrace) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clear()
}

func (t *ReportTrace) dropOldest() bool {
	var hdr [traceHeader]byte
	if n, err := t.buf.Read(hdr[:]); err != nil || n != traceHeader {
		return false
	}
	size := int(binary.LittleEndian.Uint16(hdr[:]))
	if size > 0 {
		skip := make([]byte, size)
		if n, err := t.buf.Read(skip); err != nil || n != size {
			return false
		}
	}
	t.records--
	return true
}

func (t *ReportTrace) clear() {
	t.buf = ringbuffer.New(t.capacity)
	t.records = 0
}
