package httpx

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"
)

func TestDo_SetsDefaultHeaders(t *testing.T) {
    var gotUA, gotAccept string
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        gotUA = r.Header.Get("User-Agent")
        gotAccept = r.Header.Get("Accept")
        w.WriteHeader(http.StatusOK)
    }))
    defer srv.Close()

    c := New(5 * time.Second)
    c.Headers = map[string]string{"Accept": "application/json"}

    req, err := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
    if err != nil {
        t.Fatalf("new request: %v", err)
    }
    res, err := c.Do(req)
    if err != nil {
        t.Fatalf("do: %v", err)
    }
    res.Body.Close()

    if gotUA != "stockleague/1.0" {
        t.Fatalf("want default User-Agent, got %q", gotUA)
    }
    if gotAccept != "application/json" {
        t.Fatalf("want default Accept header, got %q", gotAccept)
    }
}

func TestDo_DoesNotOverrideExistingHeaders(t *testing.T) {
    var gotUA string
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        gotUA = r.Header.Get("User-Agent")
        w.WriteHeader(http.StatusOK)
    }))
    defer srv.Close()

    c := New(5 * time.Second)

    req, err := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
    if err != nil {
        t.Fatalf("new request: %v", err)
    }
    req.Header.Set("User-Agent", "custom/2.0")
    res, err := c.Do(req)
    if err != nil {
        t.Fatalf("do: %v", err)
    }
    res.Body.Close()

    if gotUA != "custom/2.0" {
        t.Fatalf("caller header must win, got %q", gotUA)
    }
}
