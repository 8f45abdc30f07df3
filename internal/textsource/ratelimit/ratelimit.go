package ratelimit

import (
    "context"
    "sync"
    "time"

    "mandiprice/internal/textsource"
)

// MinInterval wraps a source and enforces a minimum time between
// queries. Concurrent calls wait until the interval has elapsed since
// the last query, or return early if the context is canceled.
type MinInterval struct {
    S        textsource.Source
    Interval time.Duration
    mu       sync.Mutex
    last     time.Time
}

func (m *MinInterval) Name() string { return m.S.Name() }

func (m *MinInterval) Query(ctx context.Context, prompt string) (string, error) {
    if m.Interval > 0 {
        // simple gate: ensure at least Interval since last
        m.mu.Lock()
        wait := time.Until(m.last.Add(m.Interval))
        m.mu.Unlock()
        if wait > 0 {
            t := time.NewTimer(wait)
            defer t.Stop()
            select {
            case <-ctx.Done():
                return "", ctx.Err()
            case <-t.C:
            }
        }
    }
    answer, err := m.S.Query(ctx, prompt)
    if m.Interval > 0 {
        m.mu.Lock()
        m.last = time.Now()
        m.mu.Unlock()
    }
    return answer, err
}
