package cache

import (
    "context"
    "sync"
    "time"

    "mandiprice/internal/textsource"
)

// entry stores one cached answer with expiry.
type entry struct {
    expiresAt time.Time
    answer    string
}

// Source caches answers per prompt for a TTL. Two identical queries
// inside the TTL hit the underlying source once.
type Source struct {
    S        textsource.Source
    TTL      time.Duration
    MaxItems int

    mu    sync.RWMutex
    items map[string]entry // key: prompt
}

func (c *Source) Name() string { return c.S.Name() }

// Query returns a cached answer when valid, otherwise asks the
// underlying source and stores its answer. Errors are never cached.
func (c *Source) Query(ctx context.Context, prompt string) (string, error) {
    if c.S == nil || c.TTL <= 0 {
        return c.S.Query(ctx, prompt)
    }

    now := time.Now()
    c.mu.RLock()
    if e, ok := c.items[prompt]; ok && now.Before(e.expiresAt) {
        c.mu.RUnlock()
        return e.answer, nil
    }
    c.mu.RUnlock()

    answer, err := c.S.Query(ctx, prompt)
    if err != nil {
        return "", err
    }

    c.mu.Lock()
    if c.items == nil { c.items = make(map[string]entry) }
    c.items[prompt] = entry{expiresAt: now.Add(c.TTL), answer: answer}
    // best-effort cap cache size: expired first, then arbitrary
    if c.MaxItems > 0 && len(c.items) > c.MaxItems {
        for k, v := range c.items {
            if time.Now().After(v.expiresAt) {
                delete(c.items, k)
            }
            if len(c.items) <= c.MaxItems { break }
        }
        for k := range c.items {
            if len(c.items) <= c.MaxItems { break }
            delete(c.items, k)
        }
    }
    c.mu.Unlock()
    return answer, nil
}
