package freee

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// memoryTokenStore keeps tokens in memory for client tests.
type memoryTokenStore struct {
	tok   *oauth2.Token
	saves int
}

func (s *memoryTokenStore) Load() (*oauth2.Token, error) {
	if s.tok == nil {
		return nil, ErrNoToken
	}
	return s.tok, nil
}

func (s *memoryTokenStore) Save(tok *oauth2.Token) error {
	s.tok = tok
	s.saves++
	return nil
}

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server, *memoryTokenStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &oauth2.Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  srv.URL + "/authorize",
			TokenURL: srv.URL + "/token",
		},
	}
	store := &memoryTokenStore{tok: &oauth2.Token{
		AccessToken:  "tok-1",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(time.Hour),
	}}
	return NewClient(srv.URL, cfg, store, 42), srv, store
}

func TestListQuotationsPaginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/iv/quotations", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("company_id"); got != "42" {
			t.Errorf("company_id = %s", got)
		}
		offset := r.URL.Query().Get("offset")
		var page []Quotation
		if offset == "0" {
			for i := 0; i < pageLimit; i++ {
				page = append(page, Quotation{ID: int64(i + 1), Title: "Q"})
			}
		} else {
			page = []Quotation{{ID: int64(pageLimit + 1), Title: "last"}}
		}
		json.NewEncoder(w).Encode(map[string]any{"quotations": page})
	})

	c, _, _ := testClient(t, mux)
	got, err := c.ListQuotations(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != pageLimit+1 {
		t.Fatalf("got %d quotations, want %d", len(got), pageLimit+1)
	}
	if got[len(got)-1].Title != "last" {
		t.Fatalf("pages out of order: %+v", got[len(got)-1])
	}
}

func TestExpiredTokenRefreshedAndRetriedOnce(t *testing.T) {
	var listCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse token form: %v", err)
		}
		if got := r.Form.Get("refresh_token"); got != "refresh-1" {
			t.Errorf("refresh_token = %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "tok-2",
			"refresh_token": "refresh-2",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/iv/quotations", func(w http.ResponseWriter, r *http.Request) {
		listCalls++
		if r.Header.Get("Authorization") != "Bearer tok-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"quotations": []Quotation{{ID: 7}}})
	})

	c, _, store := testClient(t, mux)
	got, err := c.ListQuotations(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != 7 {
		t.Fatalf("unexpected quotations: %+v", got)
	}
	if listCalls != 2 {
		t.Fatalf("list called %d times, want 401 then retry", listCalls)
	}
	if store.saves != 1 || store.tok.RefreshToken != "refresh-2" {
		t.Fatalf("rotated token not persisted: saves=%d tok=%+v", store.saves, store.tok)
	}
}

func TestRefreshFailureSurfaces(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_grant", http.StatusBadRequest)
	})
	mux.HandleFunc("/iv/quotations", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, _, _ := testClient(t, mux)
	if _, err := c.ListQuotations(context.Background()); err == nil {
		t.Fatal("expected refresh failure to surface")
	}
}

func TestConvertQuotationsSequentialWithPartialFailure(t *testing.T) {
	pdfDir := t.TempDir()

	mux := http.NewServeMux()
	mux.HandleFunc("/iv/quotations/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/iv/quotations/")
		if id == "2" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"quotation": Quotation{
			ID:        atoi64(t, id),
			Title:     "Site build",
			PartnerID: 9,
			Lines:     []Line{{Description: "work", Quantity: 1, UnitPrice: 550000, Amount: 550000}},
		}})
	})
	var createdDates []string
	mux.HandleFunc("/iv/invoices", func(w http.ResponseWriter, r *http.Request) {
		var req invoiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode invoice request: %v", err)
		}
		if req.CompanyID != 42 || req.PartnerID != 9 {
			t.Errorf("invoice request = %+v", req)
		}
		createdDates = append(createdDates, req.InvoiceDate)
		json.NewEncoder(w).Encode(map[string]any{"invoice": Invoice{
			ID:          int64(100 + len(createdDates)),
			InvoiceDate: req.InvoiceDate,
		}})
	})
	mux.HandleFunc("/iv/invoices/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "%PDF-1.4 fake")
	})

	c, _, _ := testClient(t, mux)
	results := c.ConvertQuotations(context.Background(), []int64{1, 2, 3}, DateToday, pdfDir)
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Err != "" || results[2].Err != "" {
		t.Fatalf("healthy items failed: %+v", results)
	}
	if results[1].Err == "" || results[1].InvoiceID != 0 {
		t.Fatalf("failed item must carry the error: %+v", results[1])
	}

	// PDFs land under <dir>/<year>/<month>/.
	now := time.Now()
	wantDir := filepath.Join(pdfDir, now.Format("2006"), now.Format("01"))
	data, err := os.ReadFile(filepath.Join(wantDir, fmt.Sprintf("invoice_%d.pdf", results[0].InvoiceID)))
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Fatalf("pdf content = %q", data)
	}
}

func TestInvoiceDateFor(t *testing.T) {
	tests := []struct {
		mode InvoiceDateMode
		now  time.Time
		want string
	}{
		{DateToday, time.Date(2024, time.December, 15, 12, 0, 0, 0, time.UTC), "2024-12-15"},
		{DateLastMonthEnd, time.Date(2024, time.December, 15, 12, 0, 0, 0, time.UTC), "2024-11-30"},
		{DateLastMonthEnd, time.Date(2025, time.January, 2, 12, 0, 0, 0, time.UTC), "2024-12-31"},
		{DateLastMonthEnd, time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC), "2024-02-29"},
		{InvoiceDateMode("bogus"), time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC), "2024-06-01"},
	}
	for _, tt := range tests {
		if got := InvoiceDateFor(tt.mode, tt.now); got != tt.want {
			t.Errorf("InvoiceDateFor(%s, %s) = %s, want %s", tt.mode, tt.now.Format("2006-01-02"), got, tt.want)
		}
	}
}

func atoi64(t *testing.T, s string) int64 {
	t.Helper()
	var v int64
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		t.Fatalf("parse id %q: %v", s, err)
	}
	return v
}
