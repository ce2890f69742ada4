package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ContentFetcher достаёт байты content-addressed блоба у узлов-кандидатов.
// Неудачи учитываются по multihash.
type ContentFetcher interface {
	// Fetch перебирает кандидатов, проверяет хеш и пишет блоб под storagePath.
	Fetch(ctx context.Context, multihash, storagePath string, candidates []string) error

	// FailureCount — сколько раз подряд не удалось достать этот multihash.
	FailureCount(multihash string) int
}

// Multihash считает content-address для байтов (sha256, hex).
func Multihash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

type httpFetcher struct {
	client     *http.Client
	storageDir string
	logger     *zap.SugaredLogger

	mu       sync.Mutex
	failures map[string]int
}

func NewContentFetcher(client *http.Client, storageDir string, logger *zap.SugaredLogger) ContentFetcher {
	return &httpFetcher{
		client:     client,
		storageDir: storageDir,
		logger:     logger,
		failures:   map[string]int{},
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, multihash, storagePath string, candidates []string) error {
	var lastErr error
	for _, endpoint := range candidates {
		b, err := f.fetchOne(ctx, endpoint, multihash)
		if err != nil {
			lastErr = err
			continue
		}
		if Multihash(b) != multihash {
			lastErr = fmt.Errorf("hash mismatch from %s for %s", endpoint, multihash)
			continue
		}
		if err := f.save(storagePath, b); err != nil {
			return err
		}
		f.mu.Lock()
		delete(f.failures, multihash)
		f.mu.Unlock()
		return nil
	}

	f.mu.Lock()
	f.failures[multihash]++
	count := f.failures[multihash]
	f.mu.Unlock()

	if lastErr == nil {
		lastErr = fmt.Errorf("no candidate endpoints")
	}
	f.logger.Warnw("content fetch failed", "multihash", multihash, "attempts", count, "error", lastErr)
	return lastErr
}

func (f *httpFetcher) FailureCount(multihash string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures[multihash]
}

func (f *httpFetcher) fetchOne(ctx context.Context, endpoint, multihash string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(endpoint, "/")+"/ipfs/"+url.PathEscape(multihash), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: multihash}
	}
	return io.ReadAll(resp.Body)
}

func (f *httpFetcher) save(storagePath string, b []byte) error {
	full := storagePath
	if !filepath.IsAbs(full) {
		full = filepath.Join(f.storageDir, storagePath)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, b, 0o644)
}
