package vision

import (
    "context"
    "fmt"
    "io"
    "net/http"
    "os"
    "strings"

    "mandiprice/internal/httpx"
)

// Analyzer produces the raw quality-assessment text for a commodity
// image. The answer follows the same "KEY: value"-per-line grammar the
// quality package parses.
type Analyzer interface {
    Name() string
    Analyze(ctx context.Context, image []byte, mimeType string) (string, error)
}

// maxImageBytes caps how much image data is read from disk or network.
const maxImageBytes = 8 << 20

// LoadImage reads an image from a local file path or an http(s) URL and
// sniffs its MIME type.
func LoadImage(ctx context.Context, client *httpx.Client, ref string) ([]byte, string, error) {
    var (
        data []byte
        err  error
    )
    if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
        req, rerr := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
        if rerr != nil {
            return nil, "", fmt.Errorf("image request: %w", rerr)
        }
        resp, derr := client.Do(ctx, req)
        if derr != nil {
            return nil, "", fmt.Errorf("image fetch: %w", derr)
        }
        defer resp.Body.Close()
        if resp.StatusCode < 200 || resp.StatusCode >= 300 {
            return nil, "", fmt.Errorf("image fetch: %s -> %d", ref, resp.StatusCode)
        }
        data, err = io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
    } else {
        data, err = os.ReadFile(ref)
    }
    if err != nil {
        return nil, "", fmt.Errorf("image read: %w", err)
    }
    mime := http.DetectContentType(data)
    if !strings.HasPrefix(mime, "image/") {
        return nil, "", fmt.Errorf("image read: %s is %s, not an image", ref, mime)
    }
    return data, mime, nil
}
