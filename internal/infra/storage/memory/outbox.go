package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	appoutbox "bmrengine/internal/app/outbox"
	infraoutbox "bmrengine/internal/infra/outbox"
)

// Outbox buffers events for the relay worker. Sent documents are dropped, so
// the buffer only holds pending and failed events.
type Outbox struct {
	mu    sync.Mutex
	docs  []*infraoutbox.EventDocument
	limit int
	now   func() time.Time
}

// NewOutbox builds a buffer holding at most limit pending events; zero means unbounded.
func NewOutbox(limit int) *Outbox {
	return &Outbox{limit: limit, now: time.Now}
}

var ErrOutboxFull = errors.New("memory: outbox full")

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.limit > 0 && len(o.docs) >= o.limit {
		return ErrOutboxFull
	}
	now := o.now().UTC()
	o.docs = append(o.docs, &infraoutbox.EventDocument{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       infraoutbox.StateNew,
		NextAttempt: now,
	})
	return nil
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now().UTC()
	for _, doc := range o.docs {
		if doc.State != infraoutbox.StateNew && doc.State != infraoutbox.StateFailed {
			continue
		}
		if doc.NextAttempt.After(now) {
			continue
		}
		doc.State = infraoutbox.StateClaimed
		doc.ClaimedBy = workerID
		doc.ClaimedAt = now
		cp := *doc
		return &cp, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, doc := range o.docs {
		if doc.ID == id {
			o.docs = append(o.docs[:i], o.docs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, doc := range o.docs {
		if doc.ID == id {
			doc.State = infraoutbox.StateFailed
			doc.NextAttempt = next
			doc.LastError = errMsg
			doc.Attempts++
			return nil
		}
	}
	return nil
}

// Pending reports how many events wait for delivery.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.docs)
}

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ infraoutbox.Store = (*Outbox)(nil)
)
