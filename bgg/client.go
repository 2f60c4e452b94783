package bgg

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	searchTimeout    = 15 * time.Second
	detailTimeout    = 20 * time.Second
	thingAttempts    = 4
	thingRetryDelay  = 2 * time.Second
	maxSearchResults = 30
	clientUserAgent  = "Cardboard/1.0 (board game collection manager)"
)

var (
	// ErrNotFound means BoardGameGeek has no thing with the requested ID.
	ErrNotFound = errors.New("bgg: game not found")
	// ErrStillProcessing means BoardGameGeek kept answering 202 Accepted; the
	// request was queued upstream and the caller should retry later.
	ErrStillProcessing = errors.New("bgg: request accepted but still processing")
	// ErrUpstream covers transport failures, error statuses, and unparseable
	// responses from BoardGameGeek.
	ErrUpstream = errors.New("bgg: upstream error")
)

// SearchResult is one row of a BoardGameGeek search response.
type SearchResult struct {
	BGGID         int64  `json:"bgg_id"`
	Name          string `json:"name"`
	YearPublished *int   `json:"year_published"`
}

// GameDetails is the import payload assembled from a BoardGameGeek thing
// lookup with statistics.
type GameDetails struct {
	BGGID         int64    `json:"bgg_id"`
	Name          string   `json:"name"`
	Description   *string  `json:"description"`
	YearPublished *int     `json:"year_published"`
	MinPlayers    *int     `json:"min_players"`
	MaxPlayers    *int     `json:"max_players"`
	MinPlaytime   *int     `json:"min_playtime"`
	MaxPlaytime   *int     `json:"max_playtime"`
	Difficulty    *float64 `json:"difficulty"`
	ImageURL      *string  `json:"image_url"`
	ThumbnailURL  *string  `json:"thumbnail_url"`
	Categories    []string `json:"categories"`
	Mechanics     []string `json:"mechanics"`
	Designers     []string `json:"designers"`
	Publishers    []string `json:"publishers"`
}

// Client talks to the BoardGameGeek XMLAPI2.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	retryDelay time.Duration
}

// NewClient creates a BoardGameGeek client against the given API base URL,
// e.g. https://boardgamegeek.com/xmlapi2
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		userAgent:  clientUserAgent,
		retryDelay: thingRetryDelay,
	}
}

type valueAttr struct {
	Value string `xml:"value,attr"`
}

type itemName struct {
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
}

type itemLink struct {
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
}

type searchResponse struct {
	Items []searchItem `xml:"item"`
}

type searchItem struct {
	ID    int64      `xml:"id,attr"`
	Names []itemName `xml:"name"`
	Year  *valueAttr `xml:"yearpublished"`
}

type thingResponse struct {
	Items []thingItem `xml:"item"`
}

type thingItem struct {
	ID          int64      `xml:"id,attr"`
	Thumbnail   string     `xml:"thumbnail"`
	Image       string     `xml:"image"`
	Names       []itemName `xml:"name"`
	Description string     `xml:"description"`
	Year        *valueAttr `xml:"yearpublished"`
	MinPlayers  *valueAttr `xml:"minplayers"`
	MaxPlayers  *valueAttr `xml:"maxplayers"`
	MinPlaytime *valueAttr `xml:"minplaytime"`
	MaxPlaytime *valueAttr `xml:"maxplaytime"`
	Links       []itemLink `xml:"link"`
	Statistics  *struct {
		Ratings struct {
			AverageWeight valueAttr `xml:"averageweight"`
		} `xml:"ratings"`
	} `xml:"statistics"`
}

// Search queries BoardGameGeek for base games and expansions matching the
// query. Results are ordered newest first with unknown years at the end and
// capped at 30 rows.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	reqURL := fmt.Sprintf("%s/search?query=%s&type=boardgame,boardgameexpansion", c.baseURL, url.QueryEscape(query))
	status, body, err := c.getWithTimeout(ctx, reqURL, searchTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if status >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: search returned status %d", ErrUpstream, status)
	}

	var parsed searchResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	results := make([]SearchResult, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.ID == 0 || len(item.Names) == 0 {
			continue
		}
		results = append(results, SearchResult{
			BGGID:         item.ID,
			Name:          primaryName(item.Names),
			YearPublished: yearOf(item.Year),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		yi, yj := results[i].YearPublished, results[j].YearPublished
		if yi == nil {
			return false
		}
		if yj == nil {
			return true
		}
		return *yi > *yj
	})
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	return results, nil
}

// GetGame fetches full details for one BoardGameGeek ID. BGG answers 202
// while it builds the response server side, so the lookup retries a few
// times before giving up with ErrStillProcessing.
func (c *Client) GetGame(ctx context.Context, bggID int64) (*GameDetails, error) {
	reqURL := fmt.Sprintf("%s/thing?id=%d&stats=1", c.baseURL, bggID)

	for attempt := 0; attempt < thingAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		status, body, err := c.getWithTimeout(ctx, reqURL, detailTimeout)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		if status == http.StatusAccepted {
			continue
		}
		if status >= http.StatusBadRequest {
			return nil, fmt.Errorf("%w: thing returned status %d", ErrUpstream, status)
		}

		var parsed thingResponse
		if err := xml.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		if len(parsed.Items) == 0 {
			return nil, ErrNotFound
		}
		return buildDetails(parsed.Items[0]), nil
	}
	return nil, ErrStillProcessing
}

func (c *Client) getWithTimeout(ctx context.Context, rawURL string, timeout time.Duration) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.get(ctx, rawURL)
}

func (c *Client) get(ctx context.Context, rawURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func buildDetails(item thingItem) *GameDetails {
	details := &GameDetails{
		BGGID:      item.ID,
		Name:       primaryName(item.Names),
		Categories: []string{},
		Mechanics:  []string{},
		Designers:  []string{},
		Publishers: []string{},
	}

	if desc := cleanDescription(item.Description); desc != "" {
		details.Description = &desc
	}
	details.YearPublished = yearOf(item.Year)
	details.MinPlayers = positiveInt(item.MinPlayers)
	details.MaxPlayers = positiveInt(item.MaxPlayers)
	details.MinPlaytime = positiveInt(item.MinPlaytime)
	details.MaxPlaytime = positiveInt(item.MaxPlaytime)

	if img := normalizeImageURL(item.Image); img != "" {
		details.ImageURL = &img
	}
	if thumb := normalizeImageURL(item.Thumbnail); thumb != "" {
		details.ThumbnailURL = &thumb
	}

	for _, link := range item.Links {
		switch link.Type {
		case "boardgamecategory":
			details.Categories = append(details.Categories, link.Value)
		case "boardgamemechanic":
			details.Mechanics = append(details.Mechanics, link.Value)
		case "boardgamedesigner":
			details.Designers = append(details.Designers, link.Value)
		case "boardgamepublisher":
			details.Publishers = append(details.Publishers, link.Value)
		}
	}

	if item.Statistics != nil {
		if weight, err := strconv.ParseFloat(item.Statistics.Ratings.AverageWeight.Value, 64); err == nil && weight > 0 {
			rounded := math.Round(weight*100) / 100
			details.Difficulty = &rounded
		}
	}
	return details
}

// primaryName picks the primary name, falling back to the first listed one.
// BGG items always carry at least one name, but don't trust that.
func primaryName(names []itemName) string {
	for _, n := range names {
		if n.Type == "primary" {
			return n.Value
		}
	}
	if len(names) > 0 {
		return names[0].Value
	}
	return "Unknown"
}

func yearOf(attr *valueAttr) *int {
	if attr == nil {
		return nil
	}
	year, err := strconv.Atoi(attr.Value)
	if err != nil || year == 0 {
		return nil
	}
	return &year
}

func positiveInt(attr *valueAttr) *int {
	if attr == nil {
		return nil
	}
	v, err := strconv.Atoi(attr.Value)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// normalizeImageURL upgrades protocol-relative image URLs, which BGG still
// serves, to https.
func normalizeImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	return raw
}

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// cleanDescription undoes the HTML entity encoding BGG applies on top of the
// XML encoding and strips markup tags. The entity replacements run in order,
// so doubly encoded entities unescape fully.
func cleanDescription(raw string) string {
	replacements := []struct{ old, new string }{
		{"&#10;", "\n"},
		{"&mdash;", "—"},
		{"&ndash;", "–"},
		{"&amp;", "&"},
		{"&quot;", `"`},
		{"&lt;", "<"},
		{"&gt;", ">"},
	}
	for _, r := range replacements {
		raw = strings.ReplaceAll(raw, r.old, r.new)
	}
	raw = htmlTagPattern.ReplaceAllString(raw, "")
	return strings.TrimSpace(raw)
}
