// Package puzzle supplies daily puzzle descriptors, from a bundled
// directory or from the companion service. The session core is
// indifferent to where a descriptor came from.
package puzzle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"reelplay/internal/models"
)

// ErrNotFound means no puzzle exists for the (variant, date) pair.
var ErrNotFound = errors.New("puzzle not found")

// Provider resolves the puzzle for a variant and local date.
type Provider interface {
	GetPuzzle(ctx context.Context, tag models.Variant, date string) (*models.PuzzleDescriptor, error)
}

// BundleProvider reads descriptors shipped with the app:
// {dir}/{variant}/{date}.json.
type BundleProvider struct {
	dir string
}

// NewBundleProvider returns a provider rooted at dir.
func NewBundleProvider(dir string) *BundleProvider {
	return &BundleProvider{dir: dir}
}

func (p *BundleProvider) GetPuzzle(_ context.Context, tag models.Variant, date string) (*models.PuzzleDescriptor, error) {
	path := filepath.Join(p.dir, string(tag), date+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read bundled puzzle: %w", err)
	}
	var descriptor models.PuzzleDescriptor
	if err := json.Unmarshal(data, &descriptor); err != nil {
		return nil, fmt.Errorf("bundled puzzle %s is malformed: %w", path, err)
	}
	return &descriptor, nil
}

// Doer is the host's fetch primitive.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RemoteProvider fetches descriptors from GET /puzzle.
type RemoteProvider struct {
	baseURL string
	http    Doer
}

// NewRemoteProvider returns a provider against the service base URL.
func NewRemoteProvider(baseURL string, httpClient Doer) *RemoteProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RemoteProvider{baseURL: baseURL, http: httpClient}
}

func (p *RemoteProvider) GetPuzzle(ctx context.Context, tag models.Variant, date string) (*models.PuzzleDescriptor, error) {
	query := url.Values{}
	query.Set("variant", string(tag))
	query.Set("date", date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/puzzle?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("puzzle fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("puzzle fetch returned %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read puzzle response: %w", err)
	}
	var descriptor models.PuzzleDescriptor
	if err := json.Unmarshal(data, &descriptor); err != nil {
		return nil, fmt.Errorf("puzzle response is malformed: %w", err)
	}
	return &descriptor, nil
}

// Chain tries providers in order, falling through on ErrNotFound or a
// transport failure. Typical order: bundle first, then remote.
type Chain []Provider

func (c Chain) GetPuzzle(ctx context.Context, tag models.Variant, date string) (*models.PuzzleDescriptor, error) {
	var lastErr error = ErrNotFound
	for _, provider := range c {
		descriptor, err := provider.GetPuzzle(ctx, tag, date)
		if err == nil {
			return descriptor, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
