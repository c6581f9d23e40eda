package scripture_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klambros/orthoglossa/internal/scripture"
)

// passageServer fakes the pericope service. handler receives the decoded
// request body and returns the verses to respond with.
func passageServer(t *testing.T, handler func(book, lang, where string) any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req struct {
			BookName  string `json:"bookName"`
			Lang      string `json:"lang"`
			WhereExpr string `json:"whereExpr"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := handler(req.BookName, req.Lang, req.WhereExpr)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type testVerse struct {
	Verse int    `json:"verse"`
	Text  string `json:"text"`
}

func TestClient_Fetch(t *testing.T) {
	t.Parallel()

	srv := passageServer(t, func(book, lang, where string) any {
		if book != "john" {
			t.Errorf("bookName = %q, want %q", book, "john")
		}
		if lang != "en" {
			t.Errorf("lang = %q, want %q", lang, "en")
		}
		if want := "chapter=1 AND verse>=2 AND verse<=3"; where != want {
			t.Errorf("whereExpr = %q, want %q", where, want)
		}
		return []testVerse{
			{Verse: 2, Text: "The same was in the beginning with God."},
			{Verse: 3, Text: "All things were made by him."},
		}
	})

	c := scripture.NewClient(scripture.WithEndpoint(srv.URL))
	ref, ok := scripture.Parse("John 1:2-3")
	if !ok {
		t.Fatal("Parse failed")
	}

	text, err := c.Fetch(context.Background(), ref, "en")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := "The same was in the beginning with God. All things were made by him."
	if text != want {
		t.Errorf("Fetch = %q, want %q", text, want)
	}
}

func TestClient_Fetch_NoResult(t *testing.T) {
	t.Parallel()

	srv := passageServer(t, func(book, lang, where string) any {
		return []testVerse{}
	})

	c := scripture.NewClient(scripture.WithEndpoint(srv.URL))
	ref, _ := scripture.Parse("John 99:1")

	_, err := c.Fetch(context.Background(), ref, "en")
	if !errors.Is(err, scripture.ErrNoResult) {
		t.Errorf("Fetch error = %v, want ErrNoResult", err)
	}
}

func TestClient_Fetch_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c := scripture.NewClient(scripture.WithEndpoint(srv.URL))
	ref, _ := scripture.Parse("John 3:16")

	_, err := c.Fetch(context.Background(), ref, "en")
	if err == nil {
		t.Fatal("Fetch succeeded, want error on HTTP 500")
	}
	if errors.Is(err, scripture.ErrNoResult) {
		t.Error("HTTP 500 must not be reported as ErrNoResult")
	}
}

func TestClient_Fetch_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv := passageServer(t, func(book, lang, where string) any {
		return []testVerse{{Verse: 1, Text: "unreachable"}}
	})

	c := scripture.NewClient(scripture.WithEndpoint(srv.URL))
	ref, _ := scripture.Parse("John 3:16")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Fetch(ctx, ref, "en"); err == nil {
		t.Fatal("Fetch succeeded with cancelled context, want error")
	}
}
