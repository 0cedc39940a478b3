package instrument

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/on-the-ground/channel_ive_go/channel"
	"github.com/on-the-ground/channel_ive_go/future"
	"github.com/rickb777/date/v2/timespan"
)

// Record describes one settled emission.
type Record struct {
	ID      string
	Channel string
	Span    timespan.TimeSpan
	Results int
	Err     error
}

// Recorder keeps a Record for every emission that passes through its wrapper.
type Recorder struct {
	mu      sync.Mutex
	records []Record
	now     func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Wrap returns the wrapper feeding this recorder.
func (r *Recorder) Wrap() channel.EmitWrapper {
	return func(name string, next channel.RawEmit) channel.RawEmit {
		return func(ctx context.Context, args any) *future.Future[[]any] {
			id := uuid.New().String()
			start := r.now()
			out := next(ctx, args)
			observe(out, func(res future.Result[[]any]) {
				r.add(Record{
					ID:      id,
					Channel: name,
					Span:    timespan.BetweenTimes(start, r.now()),
					Results: len(res.Value),
					Err:     res.Err,
				})
			})
			return out
		}
	}
}

func (r *Recorder) add(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

// Records returns a copy of the records in the order they were taken.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// Reset drops all records.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}
