package agelookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bsc-token-sniper/internal/freshness"
	"bsc-token-sniper/internal/retry"
)

func TestFirstTxTimestamp_ParsesOldestTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("action"); got != "txlist" {
			t.Errorf("expected action=txlist, got %q", got)
		}
		if got := r.URL.Query().Get("sort"); got != "asc" {
			t.Errorf("expected sort=asc, got %q", got)
		}
		w.Write([]byte(`{"status":"1","message":"OK","result":[{"timeStamp":"1717243200"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key")
	ts, err := client.FirstTxTimestamp(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Unix(1717243200, 0).UTC()
	if !ts.Equal(want) {
		t.Errorf("expected %v, got %v", want, ts)
	}
}

func TestFirstTxTimestamp_EmptyHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"0","message":"No transactions found","result":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.FirstTxTimestamp(context.Background(), "0xabc")
	if !errors.Is(err, freshness.ErrNoHistory) {
		t.Errorf("expected ErrNoHistory, got %v", err)
	}
}

func TestFirstTxTimestamp_ErrorStringResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.FirstTxTimestamp(context.Background(), "0xabc")
	if !errors.Is(err, freshness.ErrNoHistory) {
		t.Errorf("expected ErrNoHistory for non-array result, got %v", err)
	}
}

func TestFirstTxTimestamp_RetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status":"1","message":"OK","result":[{"timeStamp":"1717243200"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", WithRetryPolicy(retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}))
	if _, err := client.FirstTxTimestamp(context.Background(), "0xabc"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}
