package crits_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"otx2crits/internal/crits"
	"otx2crits/internal/domain"
	"otx2crits/internal/store"
)

func newTestClient(t *testing.T, url string) *crits.Client {
	t.Helper()
	client, err := crits.NewClient(crits.Config{
		BaseURL:  url,
		Username: "analyst",
		APIKey:   "key",
		Source:   "OTX",
		Verify:   true,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestCreateEventEmbedsTicket(t *testing.T) {
	var ticketBody string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/events/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			if r.URL.Query().Get("api_key") != "key" {
				t.Errorf("missing api_key in query")
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"return_code": 0, "id": "e1"})
		case http.MethodPatch:
			if !strings.HasSuffix(r.URL.Path, "/e1/") {
				t.Errorf("ticket patch hit wrong path %s", r.URL.Path)
			}
			raw, _ := io.ReadAll(r.Body)
			ticketBody = string(raw)
			_ = json.NewEncoder(w).Encode(map[string]any{"return_code": 0})
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	id, err := client.CreateEvent(context.Background(), store.Event{
		Title:       "pulse title",
		Description: "desc",
		Reference:   "ref",
		Buckets:     []string{"apt", "phishing"},
		Ticket:      domain.Ticket{Number: "p1", Date: time.Now()},
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if id != "e1" {
		t.Fatalf("unexpected event id %q", id)
	}
	if !strings.Contains(ticketBody, "ticket_add") || !strings.Contains(ticketBody, `"p1"`) {
		t.Fatalf("ticket payload missing fields: %s", ticketBody)
	}
}

func TestCreateEventFailsWhenTicketFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/events/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]any{"return_code": 0, "id": "e1"})
			return
		}
		http.Error(w, "ticket rejected", http.StatusBadRequest)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.CreateEvent(context.Background(), store.Event{
		Title:  "pulse title",
		Ticket: domain.Ticket{Number: "p1"},
	})
	if err == nil {
		t.Fatalf("expected error when ticket patch is rejected")
	}
	if !errors.Is(err, store.ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestFindOrCreateIndicatorReusesExisting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("reuse path must not create, saw %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"meta":    map[string]any{"total_count": 1},
			"objects": []map[string]any{{"id": "i7"}},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	id, created, err := client.FindOrCreateIndicator(context.Background(), "IPv4 Address", "1.2.3.4")
	if err != nil {
		t.Fatalf("find or create: %v", err)
	}
	if created {
		t.Fatalf("existing indicator must not report created")
	}
	if id != "i7" {
		t.Fatalf("unexpected indicator id %q", id)
	}
}

func TestFindOrCreateIndicatorCreates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(map[string]any{"meta": map[string]any{"total_count": 0}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"return_code": 0, "id": "i8"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	id, created, err := client.FindOrCreateIndicator(context.Background(), "Domain", "example.com")
	if err != nil {
		t.Fatalf("find or create: %v", err)
	}
	if !created || id != "i8" {
		t.Fatalf("expected created i8, got created=%v id=%q", created, id)
	}
}

func TestTicketExists(t *testing.T) {
	var sawFilter string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawFilter = r.URL.Query().Get("c-tickets.ticket_number")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"meta": map[string]any{"total_count": 1}})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	exists, err := client.TicketExists(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ticket exists: %v", err)
	}
	if !exists {
		t.Fatalf("expected ticket to exist")
	}
	if sawFilter != "p1" {
		t.Fatalf("unexpected ticket filter %q", sawFilter)
	}
}

func TestServerErrorMapsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.TicketExists(context.Background(), "p1")
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestLinkEventToIndicator(t *testing.T) {
	var sawBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		sawBody = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"return_code": 0})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.LinkEventToIndicator(context.Background(), "e1", "i1"); err != nil {
		t.Fatalf("link: %v", err)
	}
	for _, want := range []string{"forge_relationship", "Indicator", "i1"} {
		if !strings.Contains(sawBody, want) {
			t.Fatalf("relationship payload missing %q: %s", want, sawBody)
		}
	}
}
