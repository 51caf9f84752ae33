package series

import (
    "math"
    "sort"
    "strconv"
    "strings"
)

// Point is one daily closing price. Date is day precision, YYYY-MM-DD.
type Point struct {
    Date  string  `json:"date"`
    Close float64 `json:"close"`
}

// Raw is a provider record before normalization. Field completeness is not
// guaranteed; Normalize drops whatever it cannot use.
type Raw struct {
    Datetime string `json:"datetime"`
    Date     string `json:"date"`
    Close    string `json:"close"`
}

// Normalize shapes raw provider records into an ordered daily series.
// Records without a date or without a finite close price are dropped, date
// strings are truncated to day precision, and the output is sorted
// ascending by date (lexicographic order on zero-padded ISO dates is
// chronological order). When two records carry the same date, the last one
// in input order wins.
func Normalize(in []Raw) []Point {
    byDate := make(map[string]float64, len(in))
    order := make([]string, 0, len(in))
    for _, r := range in {
        d := strings.TrimSpace(r.Datetime)
        if d == "" { d = strings.TrimSpace(r.Date) }
        if d == "" { continue }
        if len(d) > 10 { d = d[:10] }
        c, err := strconv.ParseFloat(strings.TrimSpace(r.Close), 64)
        if err != nil || math.IsNaN(c) || math.IsInf(c, 0) { continue }
        if _, ok := byDate[d]; !ok { order = append(order, d) }
        byDate[d] = c
    }
    out := make([]Point, 0, len(order))
    for _, d := range order {
        out = append(out, Point{Date: d, Close: byDate[d]})
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
    return out
}
