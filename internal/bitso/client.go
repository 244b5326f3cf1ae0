package bitso

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"shib-price-bot/internal/types"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const DefaultBaseURL = "https://api.bitso.com"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shib_bot",
			Subsystem: "bitso",
			Name:      "requests_total",
			Help:      "Ticker requests sent to Bitso by book and outcome",
		},
		[]string{"book", "outcome"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shib_bot",
			Subsystem: "bitso",
			Name:      "request_duration_seconds",
			Help:      "Latency of Bitso ticker requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"book"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
}

// Config of the Bitso ticker client
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Retry      RetryPolicy
	HTTPClient *http.Client
}

// Client reads public tickers from the Bitso REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
}

// NewClient creates a ticker client. A zero Timeout falls back to 10s.
func NewClient(c Config) *Client {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		retry:      c.Retry,
	}
}

type tickerResponse struct {
	Success bool           `json:"success"`
	Payload *tickerPayload `json:"payload"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type tickerPayload struct {
	Book      string  `json:"book"`
	Last      numeric `json:"last"`
	High      numeric `json:"high"`
	Low       numeric `json:"low"`
	Change24  numeric `json:"change_24"`
	Volume    numeric `json:"volume"`
	CreatedAt string  `json:"created_at"`
}

// numeric keeps the raw text of a field Bitso may send as string or number.
type numeric struct {
	raw string
	set bool
}

func (n *numeric) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*n = numeric{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	*n = numeric{raw: strings.TrimSpace(s), set: true}
	return nil
}

func (n numeric) required(field string) (decimal.Decimal, error) {
	if !n.set || n.raw == "" {
		return decimal.Zero, errors.Wrapf(types.ErrDataShape, "field %s missing", field)
	}
	return n.parse(field)
}

func (n numeric) optional(field string) (decimal.Decimal, error) {
	if !n.set || n.raw == "" {
		return decimal.Zero, nil
	}
	return n.parse(field)
}

func (n numeric) parse(field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(n.raw)
	if err != nil {
		return decimal.Zero, errors.Wrapf(types.ErrDataShape, "field %s=%q is not numeric", field, n.raw)
	}
	return d, nil
}

// Ticker fetches the ticker of the given book, retrying transient failures
// according to the client's RetryPolicy.
func (c *Client) Ticker(ctx context.Context, book string) (types.Ticker, error) {
	var ticker types.Ticker
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		ticker, err = c.fetchTicker(ctx, book)
		return err
	})
	return ticker, err
}

func (c *Client) fetchTicker(ctx context.Context, book string) (t types.Ticker, err error) {
	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(book).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(book, outcome(err)).Inc()
	}()

	endpoint := fmt.Sprintf("%s/v3/ticker/?book=%s", c.baseURL, url.QueryEscape(book))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return t, errors.Wrap(err, "could not build ticker request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return t, errors.Wrapf(types.ErrUpstream, "GET %s: %v", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return t, errors.Wrapf(types.ErrUpstream, "GET %s: status %d", endpoint, resp.StatusCode)
	}

	var body tickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return t, errors.Wrapf(types.ErrUpstream, "decode %s: %v", book, err)
	}

	if !body.Success || body.Payload == nil {
		reason := "success=false"
		if body.Error != nil {
			reason = fmt.Sprintf("%s %s", body.Error.Code, body.Error.Message)
		}
		return t, errors.Wrapf(types.ErrUpstream, "book %s: %s", book, reason)
	}

	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debugf("bitso payload for %s: %s", book, spew.Sdump(body.Payload))
	}

	t, err = body.Payload.toTicker(book)
	if err != nil {
		return t, errors.Wrapf(err, "book %s", book)
	}
	return t, nil
}

func (p *tickerPayload) toTicker(book string) (types.Ticker, error) {
	t := types.Ticker{Book: p.Book, CreatedAt: p.CreatedAt}
	if t.Book == "" {
		t.Book = book
	}

	var err error
	if t.Last, err = p.Last.required("last"); err != nil {
		return types.Ticker{}, err
	}
	if t.High, err = p.High.required("high"); err != nil {
		return types.Ticker{}, err
	}
	if t.Low, err = p.Low.required("low"); err != nil {
		return types.Ticker{}, err
	}
	if t.Change24, err = p.Change24.optional("change_24"); err != nil {
		return types.Ticker{}, err
	}
	if t.Volume, err = p.Volume.optional("volume"); err != nil {
		return types.Ticker{}, err
	}
	return t, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, types.ErrDataShape):
		return "bad_payload"
	default:
		return "unavailable"
	}
}
