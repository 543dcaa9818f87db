package reverb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"reverb-sync/utils"
)

func testClient(baseURL string) *Client {
	c := NewClient("CAD", "CA", "250.00", 5*time.Second, utils.NewLogger())
	c.BaseURL = baseURL
	return c
}

func searchListing(id int, title string) map[string]any {
	return map[string]any{
		"title": title,
		"price": map[string]any{"amount": "1000.00", "currency": "CAD", "display": "C$1,000"},
		"state": map[string]any{"slug": "live", "description": "Live"},
		"_links": map[string]any{
			"web": map[string]any{"href": fmt.Sprintf("https://reverb.com/item/%d-guitar", id)},
		},
	}
}

func TestExtractListingSlug(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://reverb.com/item/123-fender-strat", "123-fender-strat", false},
		{"https://reverb.com/item/123-fender-strat/", "123-fender-strat", false},
		{"https://reverb.com/shop/somebody", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ExtractListingSlug(tt.url)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ExtractListingSlug(%q): expected error", tt.url)
			}
			continue
		}
		if err != nil {
			t.Errorf("ExtractListingSlug(%q): %v", tt.url, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExtractListingSlug(%q) = %q; want %q", tt.url, got, tt.want)
		}
	}
}

func TestExtractDataReturnsErrorMarker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient(server.URL)
	l := c.ExtractData(context.Background(), "https://reverb.com/item/99-gone")

	if !l.IsError() {
		t.Fatal("expected an error-marker listing")
	}
	if l.URL != "https://reverb.com/item/99-gone" {
		t.Errorf("marker keeps the URL: got %q", l.URL)
	}
}

func TestExtractDataBadURLNoRequest(t *testing.T) {
	c := testClient("http://127.0.0.1:0") // must never be contacted
	l := c.ExtractData(context.Background(), "https://reverb.com/shop/not-an-item")

	if !l.IsError() {
		t.Fatal("expected an error-marker listing for a non-item URL")
	}
}

func TestExtractManyPreservesOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Slug is the final path element; echo it back as the title.
		slug := r.URL.Path[len("/listings/"):]
		json.NewEncoder(w).Encode(map[string]any{"title": slug})
	}))
	defer server.Close()

	c := testClient(server.URL)
	urls := []string{
		"https://reverb.com/item/3-c",
		"https://reverb.com/item/1-a",
		"https://reverb.com/item/2-b",
	}

	results := c.ExtractMany(context.Background(), urls, 2)

	if len(results) != len(urls) {
		t.Fatalf("got %d results, want %d", len(results), len(urls))
	}
	for i, want := range []string{"3-c", "1-a", "2-b"} {
		if results[i].Name != want {
			t.Errorf("slot %d: got %q, want %q", i, results[i].Name, want)
		}
	}
}

func TestSearchAggregatesPages(t *testing.T) {
	// Three pages of two listings each, with one listing repeated on
	// pages 1 and 3.
	pages := map[int][]map[string]any{
		1: {searchListing(1, "one"), searchListing(2, "two")},
		2: {searchListing(3, "three"), searchListing(4, "four")},
		3: {searchListing(1, "one-again"), searchListing(5, "five")},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		json.NewEncoder(w).Encode(map[string]any{
			"listings":    pages[page],
			"total_pages": 3,
			"total":       6,
		})
	}))
	defer server.Close()

	c := testClient(server.URL)
	results, err := c.Search(context.Background(), "stratocaster", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// Duplicate of listing 1 on page 3 is dropped; first-seen wins.
	if len(results) != 5 {
		t.Fatalf("got %d results, want 5", len(results))
	}
	wantNames := []string{"one", "two", "three", "four", "five"}
	for i, want := range wantNames {
		if results[i].Name != want {
			t.Errorf("result %d: got %q, want %q", i, results[i].Name, want)
		}
	}
}

func TestSearchFailedPageDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"listings":    []map[string]any{searchListing(page*10, "p"+strconv.Itoa(page))},
			"total_pages": 3,
			"total":       3,
		})
	}))
	defer server.Close()

	c := testClient(server.URL)
	results, err := c.Search(context.Background(), "telecaster", SearchOptions{})
	if err != nil {
		t.Fatalf("a failed inner page must not fail the search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (page 2 dropped)", len(results))
	}
	if results[0].Name != "p1" || results[1].Name != "p3" {
		t.Errorf("page order broken: %q, %q", results[0].Name, results[1].Name)
	}
}

func TestSearchNoResults(t *testing.T) {
	// Zero-result searches come back with total_pages 0.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"listings":    []map[string]any{},
			"total_pages": 0,
			"total":       0,
		})
	}))
	defer server.Close()

	c := testClient(server.URL)
	results, err := c.Search(context.Background(), "nonexistent model", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestSearchMissingTotalPages(t *testing.T) {
	// An envelope without total_pages decodes to 0; page 1's listings
	// must still come through.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"listings": []map[string]any{searchListing(1, "only")},
		})
	}))
	defer server.Close()

	c := testClient(server.URL)
	results, err := c.Search(context.Background(), "stratocaster", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "only" {
		t.Errorf("got %v", results)
	}
}

func TestSearchKeepsListingsWithoutWebLink(t *testing.T) {
	noLink := map[string]any{
		"title": "mystery",
		"state": map[string]any{"slug": "live"},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"listings":    []map[string]any{noLink, noLink},
			"total_pages": 1,
			"total":       2,
		})
	}))
	defer server.Close()

	c := testClient(server.URL)
	results, err := c.Search(context.Background(), "x", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// No URL means no identity, so both survive.
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestSearchFirstPageErrorFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := testClient(server.URL)
	if _, err := c.Search(context.Background(), "jazzmaster", SearchOptions{}); err == nil {
		t.Fatal("expected error when page 1 fails")
	}
}

func TestSearchStateParam(t *testing.T) {
	var gotState []string
	var hasState []bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotState = append(gotState, q.Get("state"))
		_, ok := q["state"]
		hasState = append(hasState, ok)
		json.NewEncoder(w).Encode(map[string]any{"listings": []map[string]any{}, "total_pages": 1})
	}))
	defer server.Close()

	c := testClient(server.URL)

	c.Search(context.Background(), "x", SearchOptions{})
	c.Search(context.Background(), "x", SearchOptions{State: "all"})

	if gotState[0] != "live" {
		t.Errorf("default state: got %q, want live", gotState[0])
	}
	// "all" means no state filter at all.
	if hasState[1] {
		t.Errorf("state=all should omit the parameter, got %q", gotState[1])
	}
}

func TestFetchCategoriesDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := testClient(server.URL)
	if cats := c.FetchCategories(context.Background()); cats != nil {
		t.Errorf("expected nil on error, got %v", cats)
	}
}
