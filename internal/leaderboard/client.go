// Package leaderboard submits daily-speed and best-streak scores to the
// companion service and reads ranked entries back. Submissions are
// idempotent per key and fire-and-forget; the remote enforces the
// anti-regression rule, the client just keeps calling.
package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"reelplay/internal/models"
	"reelplay/internal/stats"
)

// Doer is the fetch primitive supplied by the host.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	cacheTTL       = 30 * time.Second
	requestTimeout = 10 * time.Second
)

// Client talks to the leaderboard and stats endpoints. Unauthenticated
// submissions are skipped silently; reads work anonymously.
type Client struct {
	baseURL  string
	http     Doer
	identity func() models.Identity
	log      *logrus.Logger
	now      func() time.Time

	mu       sync.Mutex
	inflight map[string]bool
	pending  map[string]submission
	cache    map[string]cachedBoard
	wg       sync.WaitGroup
}

type submission struct {
	path string
	body any
}

type cachedBoard struct {
	response models.LeaderboardResponse
	fetched  time.Time
}

// New returns a client. identity is the host's auth context; it is
// consulted on every call so login state is never stale.
func New(baseURL string, httpClient Doer, identity func() models.Identity, log *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL:  baseURL,
		http:     httpClient,
		identity: identity,
		log:      log,
		now:      time.Now,
		inflight: make(map[string]bool),
		pending:  make(map[string]submission),
		cache:    make(map[string]cachedBoard),
	}
}

// SubmitDaily queues a daily-speed submission. Only wins on today's
// puzzle count; archive wins and losses are dropped here, and anonymous
// players are skipped without error.
func (c *Client) SubmitDaily(outcome models.GameOutcome, today string) {
	if !outcome.Won || outcome.PuzzleDate != today {
		return
	}
	if c.identity().Anonymous() {
		return
	}
	body := models.DailySubmission{
		GameType:   outcome.Variant,
		PuzzleDate: outcome.PuzzleDate,
		Score:      int((outcome.TimeMs + 500) / 1000),
		Metadata:   &models.EntryMetadata{Mistakes: outcome.Mistakes},
	}
	key := fmt.Sprintf("daily|%s|%s", outcome.Variant, outcome.PuzzleDate)
	c.enqueue(key, submission{path: "/leaderboard/daily", body: body})
}

// SubmitStreak queues a best-streak submission.
func (c *Client) SubmitStreak(tag models.Variant, bestStreak int) {
	if bestStreak <= 0 || c.identity().Anonymous() {
		return
	}
	body := models.StreakSubmission{GameType: tag, Score: bestStreak}
	key := fmt.Sprintf("streak|%s", tag)
	c.enqueue(key, submission{path: "/leaderboard/streak", body: body})
}

// enqueue collapses duplicate submissions for a key to the latest value
// and keeps at most one in flight per key.
func (c *Client) enqueue(key string, sub submission) {
	c.mu.Lock()
	c.pending[key] = sub
	if c.inflight[key] {
		c.mu.Unlock()
		return
	}
	c.inflight[key] = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.drain(key)
}

func (c *Client) drain(key string) {
	defer c.wg.Done()
	for {
		c.mu.Lock()
		sub, ok := c.pending[key]
		if !ok {
			delete(c.inflight, key)
			c.mu.Unlock()
			return
		}
		delete(c.pending, key)
		c.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		var resp models.SubmitResponse
		err := c.post(ctx, sub.path, sub.body, &resp)
		cancel()
		if err != nil {
			// A failed submission is not retried here; the next stats
			// apply resubmits through the same queue.
			c.log.WithError(err).WithField("key", key).Warn("leaderboard submission failed")
			continue
		}
		c.log.WithFields(logrus.Fields{"key": key, "rank": resp.Rank}).Debug("score submitted")
	}
}

// Flush blocks until queued submissions finish. Test and shutdown helper.
func (c *Client) Flush() {
	c.wg.Wait()
}

// FetchDaily reads the daily board for a variant and date. Results are
// cached for 30 seconds.
func (c *Client) FetchDaily(ctx context.Context, tag models.Variant, date string, limit int) (*models.LeaderboardResponse, error) {
	query := url.Values{}
	query.Set("game", string(tag))
	query.Set("date", date)
	query.Set("limit", fmt.Sprint(limit))
	return c.fetchBoard(ctx, "/leaderboard/daily", query)
}

// FetchStreak reads the best-streak board for a variant.
func (c *Client) FetchStreak(ctx context.Context, tag models.Variant, limit int) (*models.LeaderboardResponse, error) {
	query := url.Values{}
	query.Set("game", string(tag))
	query.Set("limit", fmt.Sprint(limit))
	return c.fetchBoard(ctx, "/leaderboard/streak", query)
}

func (c *Client) fetchBoard(ctx context.Context, path string, query url.Values) (*models.LeaderboardResponse, error) {
	cacheKey := path + "?" + query.Encode() + "|" + c.identity().UserID
	c.mu.Lock()
	if cached, ok := c.cache[cacheKey]; ok && c.now().Sub(cached.fetched) < cacheTTL {
		response := cached.response
		c.mu.Unlock()
		return &response, nil
	}
	c.mu.Unlock()

	var response models.LeaderboardResponse
	if err := c.get(ctx, path, query, &response); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[cacheKey] = cachedBoard{response: response, fetched: c.now()}
	c.mu.Unlock()
	return &response, nil
}

// PushStats implements stats.Remote against the row-of-record endpoint.
// Anonymous pushes are skipped without error.
func (c *Client) PushStats(ctx context.Context, record *models.UserStats) error {
	if c.identity().Anonymous() {
		return nil
	}
	body := struct {
		GameType models.Variant    `json:"gameType"`
		Stats    *models.UserStats `json:"stats"`
	}{GameType: record.Variant, Stats: record}
	var resp models.SubmitResponse
	return c.post(ctx, "/stats", body, &resp)
}

// FetchStats pulls the authoritative remote row, or nil when the user
// has none yet.
func (c *Client) FetchStats(ctx context.Context, tag models.Variant) (*models.UserStats, error) {
	if c.identity().Anonymous() {
		return nil, nil
	}
	query := url.Values{}
	query.Set("game", string(tag))
	var response struct {
		Success bool              `json:"success"`
		Stats   *models.UserStats `json:"stats"`
	}
	if err := c.get(ctx, "/stats", query, &response); err != nil {
		return nil, err
	}
	return response.Stats, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, out)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	if id := c.identity(); !id.Anonymous() {
		req.Header.Set("Authorization", "Bearer "+id.AccessToken)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return fmt.Errorf("%s returned %d: %w", req.URL.Path, resp.StatusCode, stats.ErrFatal)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%s returned %d", req.URL.Path, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
