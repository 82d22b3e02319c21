package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"uriage/internal/core"
)

const defaultTable = "projects"

// SupabaseStore talks to a Supabase (PostgREST) table over REST. It
// implements RemoteStore for the cloud sync phases.
type SupabaseStore struct {
	baseURL    string
	apiKey     string
	table      string
	httpClient *http.Client
}

// NewSupabaseStore creates a client for the given project URL
// (https://<ref>.supabase.co) and service key.
func NewSupabaseStore(baseURL, apiKey, table string) *SupabaseStore {
	if table == "" {
		table = defaultTable
	}
	return &SupabaseStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		table:   table,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (s *SupabaseStore) tableURL() string {
	return s.baseURL + "/rest/v1/" + s.table
}

func (s *SupabaseStore) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// List returns every remote record.
func (s *SupabaseStore) List(ctx context.Context) ([]core.Project, error) {
	req, err := s.newRequest(ctx, http.MethodGet, s.tableURL()+"?select=*&order=id.asc", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list remote records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, remoteError("list", resp)
	}

	var records []remoteRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode remote records: %w", err)
	}

	projects := make([]core.Project, len(records))
	for i, r := range records {
		projects[i] = fromRemote(r)
	}
	return projects, nil
}

// Upsert inserts or updates records keyed by id. PostgREST merges duplicate
// primary keys when asked to, which gives insert-or-update semantics in one
// request.
func (s *SupabaseStore) Upsert(ctx context.Context, projects []core.Project) error {
	if len(projects) == 0 {
		return nil
	}

	records := make([]remoteRecord, len(projects))
	for i, p := range projects {
		records[i] = toRemote(p)
	}
	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode remote records: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPost, s.tableURL(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upsert remote records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return remoteError("upsert", resp)
	}
	return nil
}

// Delete removes the remote records with the given ids.
func (s *SupabaseStore) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	url := s.tableURL() + "?id=in.(" + strings.Join(parts, ",") + ")"

	req, err := s.newRequest(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete remote records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return remoteError("delete", resp)
	}
	return nil
}

func remoteError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("remote %s failed with status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(body)))
}

var _ RemoteStore = (*SupabaseStore)(nil)
