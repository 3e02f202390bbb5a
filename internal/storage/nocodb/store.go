// Package nocodb implements the post store against the NocoDB v2 REST API
package nocodb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/grepr-agent/internal/config"
	"github.com/grepr-agent/internal/models"
	"github.com/grepr-agent/internal/storage"
	"github.com/grepr-agent/pkg/logger"
	"github.com/grepr-agent/pkg/ratelimit"
)

// Store pushes records to a NocoDB table
type Store struct {
	baseURL     string
	apiToken    string
	tableID     string
	pageSize    int
	httpClient  *http.Client
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
}

// New creates a NocoDB store. Configuration is assumed validated by the
// caller (token and table ID present).
func New(cfg config.NocoDBConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Store {
	return &Store{
		baseURL:  cfg.BaseURL,
		apiToken: cfg.APIToken,
		tableID:  cfg.TableID,
		pageSize: cfg.PageSize,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: limiter,
		log:         log.WithComponent("nocodb"),
	}
}

// Name returns the backend name
func (s *Store) Name() string {
	return "nocodb"
}

type recordPage struct {
	List []struct {
		RedditID string `json:"reddit_id"`
	} `json:"list"`
}

// KnownIDs pages through the whole table collecting reddit IDs. Any error
// ends the scan with whatever was gathered so far; the harvest goes on with
// a higher duplicate risk instead of dying here.
func (s *Store) KnownIDs(ctx context.Context) map[string]struct{} {
	known := make(map[string]struct{})

	offset := 0
	for {
		page, err := s.fetchIDPage(ctx, offset)
		if err != nil {
			s.log.Warn().Err(err).Int("known", len(known)).Msg("Failed to list existing records, continuing with partial set")
			return known
		}

		for _, rec := range page.List {
			if rec.RedditID != "" {
				known[rec.RedditID] = struct{}{}
			}
		}

		if len(page.List) < s.pageSize {
			break
		}
		offset += s.pageSize
	}

	s.log.Info().Int("known", len(known)).Msg("Loaded existing record IDs")
	return known
}

func (s *Store) fetchIDPage(ctx context.Context, offset int) (*recordPage, error) {
	if err := s.rateLimiter.Wait(ctx, ratelimit.LimiterNocoDB); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("fields", "reddit_id")
	params.Set("limit", strconv.Itoa(s.pageSize))
	params.Set("offset", strconv.Itoa(offset))

	req, err := http.NewRequestWithContext(ctx, "GET", s.recordsURL()+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("nocodb API error (status %d): %s", resp.StatusCode, string(body))
	}

	var page recordPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &page, nil
}

// Append inserts one record into the table
func (s *Store) Append(ctx context.Context, rec *models.Record) error {
	if err := s.rateLimiter.Wait(ctx, ratelimit.LimiterNocoDB); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.recordsURL(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("nocodb API error (status %d): %s", resp.StatusCode, string(body))
	}

	s.log.Debug().Str("reddit_id", rec.RedditID).Msg("Record appended")
	return nil
}

// Close is a no-op; the store holds no persistent connection
func (s *Store) Close() error {
	return nil
}

func (s *Store) recordsURL() string {
	return fmt.Sprintf("%s/api/v2/tables/%s/records", s.baseURL, s.tableID)
}

func (s *Store) setHeaders(req *http.Request) {
	req.Header.Set("xc-token", s.apiToken)
	req.Header.Set("Content-Type", "application/json")
}

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)
