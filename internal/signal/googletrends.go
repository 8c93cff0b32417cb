package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GoogleTrendsClient implements Provider against the unofficial Google
// Trends endpoints. Lookups are a two-step exchange: an explore request
// yields a widget token, and the widget-data request yields the interest
// timeline for up to five keywords.
type GoogleTrendsClient struct {
	baseURL   string
	client    *http.Client
	userAgent string
}

// NewGoogleTrendsClient creates a client for the given base URL
// (https://trends.google.com in production).
func NewGoogleTrendsClient(baseURL string, timeout time.Duration) *GoogleTrendsClient {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &GoogleTrendsClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
		userAgent: "Currents Trend Reader/1.0",
	}
}

// BatchLookup returns the mean interest over the timeframe for each keyword
// the index has data for. At most five keywords are looked up per call.
func (g *GoogleTrendsClient) BatchLookup(ctx context.Context, keywords []string, timeframe string) (map[string]float64, error) {
	if len(keywords) == 0 {
		return map[string]float64{}, nil
	}
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	if timeframe == "" {
		timeframe = "now 7-d"
	}

	widget, err := g.explore(ctx, keywords, timeframe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve trends widget: %w", err)
	}

	timeline, err := g.widgetData(ctx, widget)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interest timeline: %w", err)
	}

	return averageByKeyword(keywords, timeline), nil
}

// exploreWidget is the token-bearing widget descriptor from the explore
// response.
type exploreWidget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

type exploreResponse struct {
	Widgets []exploreWidget `json:"widgets"`
}

func (g *GoogleTrendsClient) explore(ctx context.Context, keywords []string, timeframe string) (*exploreWidget, error) {
	type comparisonItem struct {
		Keyword string `json:"keyword"`
		Geo     string `json:"geo"`
		Time    string `json:"time"`
	}
	items := make([]comparisonItem, 0, len(keywords))
	for _, kw := range keywords {
		items = append(items, comparisonItem{Keyword: kw, Geo: "", Time: timeframe})
	}
	reqPayload, err := json.Marshal(map[string]interface{}{
		"comparisonItem": items,
		"category":       0,
		"property":       "",
	})
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("hl", "en-US")
	query.Set("tz", "360")
	query.Set("req", string(reqPayload))

	var parsed exploreResponse
	if err := g.getJSON(ctx, "/trends/api/explore", query, &parsed); err != nil {
		return nil, err
	}

	for i := range parsed.Widgets {
		if parsed.Widgets[i].ID == "TIMESERIES" {
			return &parsed.Widgets[i], nil
		}
	}
	return nil, fmt.Errorf("no timeseries widget in explore response")
}

// timelinePoint is one sample of the interest-over-time widget data.
type timelinePoint struct {
	Value   []float64 `json:"value"`
	HasData []bool    `json:"hasData"`
}

type widgetDataResponse struct {
	Default struct {
		TimelineData []timelinePoint `json:"timelineData"`
	} `json:"default"`
}

func (g *GoogleTrendsClient) widgetData(ctx context.Context, widget *exploreWidget) ([]timelinePoint, error) {
	query := url.Values{}
	query.Set("hl", "en-US")
	query.Set("tz", "360")
	query.Set("req", string(widget.Request))
	query.Set("token", widget.Token)

	var parsed widgetDataResponse
	if err := g.getJSON(ctx, "/trends/api/widgetdata/multiline", query, &parsed); err != nil {
		return nil, err
	}
	return parsed.Default.TimelineData, nil
}

// getJSON performs a GET and decodes the response, stripping the )]}'
// anti-XSSI prefix the trends endpoints prepend to their JSON bodies.
func (g *GoogleTrendsClient) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("trends endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if idx := strings.IndexAny(string(body), "{["); idx > 0 {
		body = body[idx:]
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// averageByKeyword computes the mean interest per keyword across the
// timeline. Keywords without any data points map to no entry, matching the
// provider contract.
func averageByKeyword(keywords []string, timeline []timelinePoint) map[string]float64 {
	scores := make(map[string]float64, len(keywords))
	if len(timeline) == 0 {
		return scores
	}

	for i, kw := range keywords {
		var sum float64
		var n int
		for _, point := range timeline {
			if i >= len(point.Value) {
				continue
			}
			if i < len(point.HasData) && !point.HasData[i] {
				continue
			}
			sum += point.Value[i]
			n++
		}
		if n > 0 {
			scores[kw] = round2(sum / float64(n))
		}
	}
	return scores
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
