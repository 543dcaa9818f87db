package reverb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"reverb-sync/models"
	"reverb-sync/utils"
)

const (
	defaultBaseURL = "https://api.reverb.com/api"
	maxPerPage     = 50
)

// itemSlugRegexp extracts the listing slug from a Reverb item URL
// (https://reverb.com/item/<id>-<slug>).
var itemSlugRegexp = regexp.MustCompile(`/item/(.+)$`)

// Client fetches listing data from the Reverb public API. Prices are
// requested in the configured display currency; shipping rates are
// resolved for the configured region.
type Client struct {
	BaseURL    string
	Normalizer Normalizer

	httpClient *http.Client
	logger     *utils.Logger
}

// NewClient creates a Client with the given display currency, target
// shipping region and fallback shipping amount (decimal string).
func NewClient(currency, shippingRegion, defaultShipping string, timeout time.Duration, logger *utils.Logger) *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		Normalizer: Normalizer{
			Currency:        currency,
			ShippingRegion:  shippingRegion,
			DefaultShipping: defaultShipping,
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ExtractListingSlug extracts the listing slug from a Reverb item URL.
func ExtractListingSlug(rawURL string) (string, error) {
	m := itemSlugRegexp.FindStringSubmatch(strings.TrimRight(rawURL, "/"))
	if m == nil {
		return "", fmt.Errorf("reverb: invalid listing URL: %s", rawURL)
	}
	return m[1], nil
}

// ExtractData fetches one listing by its public URL and normalises it.
// Transport and API errors are returned as an error-marker listing, not
// as a Go error: a single bad URL must never abort a batch.
func (c *Client) ExtractData(ctx context.Context, listingURL string) *models.Listing {
	slug, err := ExtractListingSlug(listingURL)
	if err != nil {
		return models.ErrorListing(listingURL, err.Error())
	}

	raw, err := c.getJSON(ctx, c.BaseURL+"/listings/"+url.PathEscape(slug), nil)
	if err != nil {
		return models.ErrorListing(listingURL, fmt.Sprintf("API error: %v", err))
	}

	return c.Normalizer.Normalize(raw, listingURL)
}

// ExtractMany fetches multiple listings concurrently, bounded by
// maxConcurrent in-flight requests. Results come back in the same order
// as urls; failed fetches are error markers in their slot.
func (c *Client) ExtractMany(ctx context.Context, urls []string, maxConcurrent int) []*models.Listing {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	results := make([]*models.Listing, len(urls))
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for i, u := range urls {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, listingURL string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = c.ExtractData(ctx, listingURL)
		}(i, u)
	}
	wg.Wait()

	return results
}

// SearchOptions narrows a listings search.
type SearchOptions struct {
	Category string // product-type slug, "" = all categories
	ShipsTo  string // ISO country code filter, "" = no filter
	State    string // "live", "sold", "ended" or "all"; "" = live
	PerPage  int    // results per page, capped at 50
	MaxPages int    // 0 = fetch all pages
}

// searchPage mirrors the search endpoint's response envelope.
type searchPage struct {
	Listings   []models.RawListing `json:"listings"`
	TotalPages int                 `json:"total_pages"`
	Total      int                 `json:"total"`
}

// Search queries the listings endpoint and returns normalised results
// deduplicated by URL in first-seen order.
//
// Page 1 is fetched serially to learn the page count; all remaining
// pages are fetched concurrently. A failed page degrades to an empty
// page; pagination is best-effort and downstream callers see fewer
// results rather than none.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) ([]*models.Listing, error) {
	perPage := opts.PerPage
	if perPage <= 0 || perPage > maxPerPage {
		perPage = maxPerPage
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))
	state := opts.State
	if state == "" {
		state = "live"
	}
	if state != "all" {
		params.Set("state", state)
	}
	if opts.ShipsTo != "" {
		params.Set("ships_to", opts.ShipsTo)
	}
	if opts.Category != "" {
		params.Set("product_type", opts.Category)
	}

	first, err := c.fetchSearchPage(ctx, params, 1)
	if err != nil {
		return nil, fmt.Errorf("reverb: search %q page 1: %w", query, err)
	}

	c.logger.Info("[reverb] Search %q — %d result(s), %d page(s)", query, first.Total, first.TotalPages)

	effectiveMax := first.TotalPages
	// Zero-result searches report total_pages 0; page 1 still exists.
	if effectiveMax < 1 {
		effectiveMax = 1
	}
	if opts.MaxPages > 0 && opts.MaxPages < effectiveMax {
		effectiveMax = opts.MaxPages
	}

	pages := make([]*searchPage, effectiveMax)
	pages[0] = first

	if effectiveMax > 1 {
		var wg sync.WaitGroup
		for p := 2; p <= effectiveMax; p++ {
			wg.Add(1)
			go func(page int) {
				defer wg.Done()
				body, err := c.fetchSearchPage(ctx, params, page)
				if err != nil {
					c.logger.Error("[reverb] API error on page %d: %v", page, err)
					return
				}
				pages[page-1] = body
			}(p)
		}
		wg.Wait()
	}

	seen := utils.NewURLSet()
	var out []*models.Listing
	for _, page := range pages {
		if page == nil {
			continue
		}
		for _, raw := range page.Listings {
			// Listings without a web link skip dedup: there is no
			// identity to dedup on, and dropping them would hide
			// payloads the report should surface.
			webURL := rawString(rawMap(rawMap(raw, "_links"), "web"), "href")
			if webURL != "" && !seen.Add(webURL) {
				continue
			}
			out = append(out, c.Normalizer.Normalize(raw, webURL))
		}
	}

	return out, nil
}

func (c *Client) fetchSearchPage(ctx context.Context, params url.Values, page int) (*searchPage, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))

	body, err := c.get(ctx, c.BaseURL+"/listings?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var parsed searchPage
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, err)
	}
	return &parsed, nil
}

// FetchCategories fetches Reverb's flat category list. Errors degrade
// to an empty list with a log line.
func (c *Client) FetchCategories(ctx context.Context) []models.Category {
	body, err := c.get(ctx, c.BaseURL+"/categories/flat")
	if err != nil {
		c.logger.Error("[reverb] Failed to fetch categories: %v", err)
		return nil
	}

	var parsed struct {
		Categories []models.Category `json:"categories"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Error("[reverb] Failed to decode categories: %v", err)
		return nil
	}

	c.logger.Info("[reverb] Fetched %d categories from Reverb", len(parsed.Categories))
	return parsed.Categories
}

func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values) (models.RawListing, error) {
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	var parsed models.RawListing
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return parsed, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/hal+json")
	req.Header.Set("Accept-Version", "3.0")
	req.Header.Set("Content-Type", "application/hal+json")
	req.Header.Set("X-Display-Currency", c.Normalizer.Currency)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
