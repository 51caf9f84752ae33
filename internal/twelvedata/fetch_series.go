package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"

	"stockleague/internal/series"
)

// NoDataMessage is the upstream message substring that marks a benign
// "nothing trades in this range" response rather than a fault.
const NoDataMessage = "No data is available on the specified dates"

// Failure describes why one symbol could not be fetched. Code and Status
// are zero when the upstream did not supply them.
type Failure struct {
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
	Status  int    `json:"status,omitempty"`
}

// Result is the outcome of fetching one symbol: either an ordered daily
// series or a Failure, never both. FetchSeries reports every failure mode
// through Result so one bad symbol cannot abort a batch.
type Result struct {
	Symbol string
	Points []series.Point
	Err    *Failure
}

// OK reports whether the result carries a usable series.
func (r Result) OK() bool { return r.Err == nil }

type apiResponse struct {
	Status  string       `json:"status"`
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Values  []series.Raw `json:"values"`
}

// FetchSeries retrieves the daily close series for one symbol from the
// configured start date through endDate (YYYY-MM-DD). Outcomes are
// classified in priority order: transport or parse failures, non-success
// HTTP statuses, an explicit error payload, an empty result set, and
// finally a normalized series.
func (c *Client) FetchSeries(ctx context.Context, symbol, endDate string) Result {
	query := maps.Clone(c.query)
	query.Add("symbol", symbol)
	query.Add("interval", c.interval)
	query.Add("start_date", c.startDate)
	query.Add("end_date", endDate)
	query.Add("outputsize", fmt.Sprintf("%d", c.outputSize))

	url := fmt.Sprintf("%s/time_series?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return transportFailure(symbol, fmt.Errorf("creating request: %w", err))
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return transportFailure(symbol, fmt.Errorf("performing request: %w", err))
	}
	defer res.Body.Close()

	var api apiResponse
	if err := json.NewDecoder(res.Body).Decode(&api); err != nil {
		return transportFailure(symbol, fmt.Errorf("decoding response: %w", err))
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := api.Message
		if msg == "" {
			msg = fmt.Sprintf("unexpected status code: %d", res.StatusCode)
		}
		return Result{Symbol: symbol, Err: &Failure{Message: msg, Code: api.Code, Status: res.StatusCode}}
	}

	if api.Status == "error" {
		msg := api.Message
		if msg == "" {
			msg = "Request failed"
		}
		return Result{Symbol: symbol, Err: &Failure{Message: msg, Code: api.Code, Status: res.StatusCode}}
	}

	points := series.Normalize(api.Values)
	if len(points) == 0 {
		return Result{Symbol: symbol, Err: &Failure{Message: "No data returned"}}
	}
	return Result{Symbol: symbol, Points: points}
}

func transportFailure(symbol string, err error) Result {
	return Result{Symbol: symbol, Err: &Failure{Message: err.Error(), Status: http.StatusInternalServerError}}
}
