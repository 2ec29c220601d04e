package commentary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"` + content + `"}}]}`))
	}))
}

func TestGenerate(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "Madonna: fined in 1990 for unpaid taxes.")
	defer srv.Close()

	client, err := New(&Config{Token: "test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() err = %v; want nil", err)
	}
	got, err := client.Generate(context.Background(), "Madonna")
	if err != nil {
		t.Fatalf("Generate() err = %v; want nil", err)
	}
	if !strings.Contains(got, "Madonna") {
		t.Errorf("Generate() = %q; want artist mentioned", got)
	}
}

func TestGenerateBlank(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "  ")
	defer srv.Close()

	client, err := New(&Config{Token: "test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() err = %v; want nil", err)
	}
	if _, err := client.Generate(context.Background(), "Madonna"); err == nil {
		t.Fatal("Generate() err = nil; want error for blank completion")
	}
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := New(&Config{Token: "test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New() err = %v; want nil", err)
	}
	if _, err := client.Generate(context.Background(), "Madonna"); err == nil {
		t.Fatal("Generate() err = nil; want error")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(&Config{}); err == nil {
		t.Error("New() without token err = nil; want error")
	}
	if _, err := New(&Config{Token: "t", Prompt: "no placeholder"}); err == nil {
		t.Error("New() with bad prompt err = nil; want error")
	}
}

func TestFallback(t *testing.T) {
	got := Fallback("Madonna")
	if !strings.Contains(got, "Madonna") {
		t.Errorf("Fallback() = %q; want artist mentioned", got)
	}
}
