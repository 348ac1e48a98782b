package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClientConfig(endpoint string) Config {
	return Config{
		Endpoint:  endpoint,
		Method:    http.MethodGet,
		PageSize:  2,
		Timeout:   5 * time.Second,
		UserAgent: "Listing Sync test",
	}
}

func recordsResponse(n int) []map[string]any {
	records := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, map[string]any{"ListingId": i})
	}
	return records
}

func TestClient_FetchPageSendsAuthAndPaging(t *testing.T) {
	var gotAuth, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(recordsResponse(2))
	}))
	defer server.Close()

	cfg := testClientConfig(server.URL)
	cfg.Query = " category=plumbing \n &region=west "
	state := newFakeState()
	state.SetOffset(4)

	client := NewClient(cfg, state, server.Client())
	records := client.FetchPage(context.Background(), "tok-123")

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Expected bearer header, got %q", gotAuth)
	}
	if gotQuery != "category=plumbing&region=west&limit=2&offset=4" {
		t.Errorf("Unexpected query string: %q", gotQuery)
	}
}

func TestClient_AdvanceOffsetContinuesOnFullPage(t *testing.T) {
	state := newFakeState()
	state.SetOffset(10)

	client := NewClient(testClientConfig("http://unused"), state, nil)

	next, err := client.AdvanceOffset(2)
	if err != nil {
		t.Fatalf("AdvanceOffset failed: %v", err)
	}
	if next != 12 {
		t.Errorf("Expected offset 12 after full page, got %d", next)
	}

	persisted, _ := state.GetOffset()
	if persisted != 12 {
		t.Errorf("Expected persisted offset 12, got %d", persisted)
	}
}

func TestClient_AdvanceOffsetCompletesOnShortPage(t *testing.T) {
	state := newFakeState()
	state.SetOffset(10)

	client := NewClient(testClientConfig("http://unused"), state, nil)

	next, err := client.AdvanceOffset(1)
	if err != nil {
		t.Fatalf("AdvanceOffset failed: %v", err)
	}
	if next != 0 {
		t.Errorf("Expected offset 0 after short page, got %d", next)
	}
}

func TestClient_AdvanceOffsetCompletesOnEmptyPage(t *testing.T) {
	state := newFakeState()
	state.SetOffset(10)

	client := NewClient(testClientConfig("http://unused"), state, nil)

	next, err := client.AdvanceOffset(0)
	if err != nil {
		t.Fatalf("AdvanceOffset failed: %v", err)
	}
	if next != 0 {
		t.Errorf("Expected offset 0 after empty page, got %d", next)
	}
}

func TestClient_FetchPageErrorStatusDegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), newFakeState(), server.Client())

	records := client.FetchPage(context.Background(), "tok")
	if len(records) != 0 {
		t.Errorf("Expected empty page on error status, got %d records", len(records))
	}
}

func TestClient_FetchPageMalformedBodyDegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), newFakeState(), server.Client())

	records := client.FetchPage(context.Background(), "tok")
	if len(records) != 0 {
		t.Errorf("Expected empty page on malformed body, got %d records", len(records))
	}
}

func TestClient_FetchPageEmptyStringBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`""`))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), newFakeState(), server.Client())

	records := client.FetchPage(context.Background(), "tok")
	if len(records) != 0 {
		t.Errorf("Expected empty page for empty JSON string body, got %d records", len(records))
	}
}

func TestClient_BuildURLWithExistingQuery(t *testing.T) {
	cfg := testClientConfig("http://example.com/listings?v=2")
	client := NewClient(cfg, newFakeState(), nil)

	url := client.buildURL(6)
	want := "http://example.com/listings?v=2&limit=2&offset=6"
	if url != want {
		t.Errorf("Expected %q, got %q", want, url)
	}
}
