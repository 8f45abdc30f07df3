package textsource

import "context"

// Source answers a free-text research query with a free-text answer.
// Implementations own their transport, timeout and retry policy; the
// engine treats a returned error like an unavailable answer.
//
//go:generate mockgen -package=fetch_test -destination=../market/fetch/mock_source_test.go -source=textsource.go Source
type Source interface {
    Name() string
    Query(ctx context.Context, prompt string) (string, error)
}
