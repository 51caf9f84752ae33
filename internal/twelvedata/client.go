package twelvedata

import (
	"net/http"
	"net/url"
)

const (
	baseURL = "https://api.twelvedata.com"

	defaultInterval   = "1day"
	defaultStartDate  = "2026-01-01"
	defaultOutputSize = 120
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=twelvedata_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the Twelve Data time-series API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP httpClient.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// query contains additional query parameters to be sent with each request.
	query url.Values
	// interval is the bar interval requested for every series.
	interval string
	// startDate is the first date covered by every series request.
	startDate string
	// outputSize caps the number of points returned per symbol.
	outputSize int
}

// ClientOption is a configuration option for the Twelve Data client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithInterval sets the bar interval requested for every series.
func WithInterval(interval string) ClientOption {
	return func(c *Client) {
		if interval != "" {
			c.interval = interval
		}
	}
}

// WithStartDate sets the first date covered by every series request.
func WithStartDate(startDate string) ClientOption {
	return func(c *Client) {
		if startDate != "" {
			c.startDate = startDate
		}
	}
}

// WithOutputSize caps the number of points returned per symbol.
func WithOutputSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.outputSize = n
		}
	}
}

// NewClient creates a new Twelve Data client.
func NewClient(key string, options ...ClientOption) (*Client, error) {
	var client = &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
		interval:   defaultInterval,
		startDate:  defaultStartDate,
		outputSize: defaultOutputSize,
	}
	if key != "" {
		// Twelve Data accepts the credential as a query parameter.
		// https://twelvedata.com/docs#authentication
		client.query.Add("apikey", key)
	}
	client.query.Add("format", "JSON")
	for _, option := range options {
		option(client)
	}
	return client, nil
}
