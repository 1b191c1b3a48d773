package whttp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchPageFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/apply", http.StatusFound)
	})
	mux.HandleFunc("/apply", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title> Apply
			now </title></head><body><input name="email"></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := NewClient("", 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	res, err := Send(context.Background(), &Req{URL: srv.URL + "/old"}, client)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.Title != "Apply now" {
		t.Fatalf("unexpected title %q", res.Title)
	}
	if res.FinalURL != srv.URL+"/apply" {
		t.Fatalf("unexpected final url %q", res.FinalURL)
	}

	page, err := FetchPage(context.Background(), srv.URL+"/old", client)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(page.Controls()) != 1 {
		t.Fatalf("expected one control, got %d", len(page.Controls()))
	}
}

func TestFetchPageStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client, _ := NewClient("", 0, 0)
	if _, err := FetchPage(context.Background(), srv.URL, client); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestNewClientRejectsBadProxy(t *testing.T) {
	if _, err := NewClient("://bad", 1, 0); err == nil {
		t.Fatalf("expected proxy error")
	}
}
