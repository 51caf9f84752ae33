package twelvedata_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	twelvedata "stockleague/internal/twelvedata"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	// Assert: a valid key should return a client.
	client, err := twelvedata.NewClient("test")
	require.NoErrorf(t, err, "unexpected error: %v", err)
	require.NotNilf(t, client, "unexpected nil client")
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: stub the Do method with an empty successful payload
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			buffer := &bytes.Buffer{}
			require.NoError(t, json.NewEncoder(buffer).Encode(map[string]any{"status": "ok", "values": []any{}}))

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(buffer),
			}, nil
		}).
		Times(1)

	// Arrange: create a new client with a custom HTTP client.
	client, err := twelvedata.NewClient("test", twelvedata.WithHTTPClient(httpClient))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call FetchSeries with the custom HTTP client.
	client.FetchSeries(context.Background(), "GOOG", "2026-02-01")
}

func TestWithBaseURL(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Arrange: define a base url
	baseURL := "http://localhost:8080"

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Truef(t, strings.HasPrefix(req.URL.String(), baseURL), "expected url to start with base url, received: %s", req.URL.String())

			buffer := &bytes.Buffer{}
			require.NoError(t, json.NewEncoder(buffer).Encode(map[string]any{"status": "ok", "values": []any{}}))

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(buffer),
			}, nil
		}).
		Times(1)

	// Arrange: create a new client.
	client, err := twelvedata.NewClient("test", twelvedata.WithHTTPClient(httpClient), twelvedata.WithBaseURL(baseURL))
	require.NoError(t, err)
	require.NotNil(t, client)

	// Act: call FetchSeries with the overridden base URL.
	client.FetchSeries(context.Background(), "GOOG", "2026-02-01")
}

func TestRequestParameters(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller and http client
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: the request carries the full Twelve Data parameter set.
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			require.Equal(t, "NVDA", q.Get("symbol"))
			require.Equal(t, "1day", q.Get("interval"))
			require.Equal(t, "2026-01-01", q.Get("start_date"))
			require.Equal(t, "2026-02-15", q.Get("end_date"))
			require.Equal(t, "90", q.Get("outputsize"))
			require.Equal(t, "JSON", q.Get("format"))
			require.Equal(t, "test", q.Get("apikey"))

			buffer := &bytes.Buffer{}
			require.NoError(t, json.NewEncoder(buffer).Encode(map[string]any{"status": "ok", "values": []any{}}))

			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(buffer),
			}, nil
		}).
		Times(1)

	// Arrange: create a client with a reduced output size.
	client, err := twelvedata.NewClient("test", twelvedata.WithHTTPClient(httpClient), twelvedata.WithOutputSize(90))
	require.NoError(t, err)

	// Act: fetch one symbol.
	client.FetchSeries(context.Background(), "NVDA", "2026-02-15")
}
