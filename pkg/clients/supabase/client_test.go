package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{URL: srv.URL + "/", AnonKey: "anon", Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClient_RequiresConfig(t *testing.T) {
	if _, err := NewClient(Config{URL: "", AnonKey: "k"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("missing url: err = %v, want ErrNotConfigured", err)
	}
	if _, err := NewClient(Config{URL: "https://x.supabase.co"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("missing key: err = %v, want ErrNotConfigured", err)
	}
}

func TestConnect_RetriesExactlyOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := Connect(context.Background(), Config{URL: srv.URL, AnonKey: "anon"}, 10*time.Millisecond, nil)
	if !errors.Is(err, ErrClientNotInitialized) {
		t.Fatalf("Connect() error = %v, want ErrClientNotInitialized", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("health checks = %d, want 2", got)
	}
}

func TestConnect_SucceedsOnRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := Connect(context.Background(), Config{URL: srv.URL, AnonKey: "anon"}, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if client == nil {
		t.Fatal("Connect() returned nil client")
	}
}

func TestQuery_ExecuteBuildsPostgrestRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/barns" {
			t.Errorf("path = %q, want /rest/v1/barns", r.URL.Path)
		}
		q := r.URL.Query()
		if got := q.Get("select"); got != "*,profiles(name,email)" {
			t.Errorf("select = %q", got)
		}
		if got := q.Get("name"); got != "ilike.*coop*" {
			t.Errorf("name filter = %q", got)
		}
		if got := q.Get("status"); got != "in.(alert,warning)" {
			t.Errorf("status filter = %q", got)
		}
		if got := q.Get("order"); got != "created_at.desc" {
			t.Errorf("order = %q", got)
		}
		if q.Get("offset") != "5" || q.Get("limit") != "5" {
			t.Errorf("range = offset %q limit %q, want 5/5", q.Get("offset"), q.Get("limit"))
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("Authorization = %q, want user token", got)
		}
		if got := r.Header.Get("apikey"); got != "anon" {
			t.Errorf("apikey = %q, want anon", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":"b1","name":"Coop 1"}]`)
	})

	var rows []map[string]any
	ctx := WithAccessToken(context.Background(), "user-token")
	err := client.From("barns").
		Select("*,profiles(name,email)").
		ILike("name", "%coop%").
		In("status", "alert", "warning").
		Order("created_at", false).
		Range(5, 9).
		Execute(ctx, &rows)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(rows) != 1 || rows[0]["id"] != "b1" {
		t.Errorf("rows = %v", rows)
	}
}

func TestQuery_SingleNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/vnd.pgrst.object+json" {
			t.Errorf("Accept = %q", got)
		}
		w.WriteHeader(http.StatusNotAcceptable)
		_, _ = io.WriteString(w, `{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned","details":"The result contains 0 rows"}`)
	})

	var row map[string]any
	err := client.From("barns").Eq("id", "missing").Single(context.Background(), &row)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Single() error = %v, want ErrNotFound", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotAcceptable {
		t.Errorf("error = %#v, want APIError with status 406", err)
	}
}

func TestQuery_Count(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		if got := r.Header.Get("Prefer"); got != "count=exact" {
			t.Errorf("Prefer = %q", got)
		}
		w.Header().Set("Content-Range", "*/12")
		w.WriteHeader(http.StatusOK)
	})

	n, err := client.From("barns").Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 12 {
		t.Errorf("Count() = %d, want 12", n)
	}
}

func TestQuery_InsertSendsArrayAndReturnsRepresentation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Prefer"); got != "return=representation" {
			t.Errorf("Prefer = %q", got)
		}
		var body []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(body) != 1 || body[0]["name"] != "Coop A" {
			t.Errorf("body = %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[{"id":"new-id","name":"Coop A"}]`)
	})

	var rows []map[string]any
	if err := client.From("barns").Insert(context.Background(), map[string]any{"name": "Coop A"}, &rows); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if len(rows) != 1 || rows[0]["id"] != "new-id" {
		t.Errorf("rows = %v", rows)
	}
}

func TestAuth_SignInAndErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			if r.URL.Query().Get("grant_type") != "password" {
				t.Errorf("grant_type = %q", r.URL.Query().Get("grant_type"))
			}
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "secret" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)
				return
			}
			_, _ = io.WriteString(w, `{"access_token":"tok","expires_in":3600,"refresh_token":"ref","user":{"id":"u1","email":"a@b.c"}}`)
		case "/auth/v1/user":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"code":401,"error_code":"bad_jwt","msg":"invalid JWT"}`)
				return
			}
			_, _ = io.WriteString(w, `{"id":"u1","email":"a@b.c"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	session, err := client.SignInWithPassword(ctx, "a@b.c", "secret")
	if err != nil {
		t.Fatalf("SignInWithPassword() error = %v", err)
	}
	if session.AccessToken != "tok" || session.User.ID != "u1" {
		t.Errorf("session = %+v", session)
	}

	_, err = client.SignInWithPassword(ctx, "a@b.c", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("wrong password error = %v, want APIError", err)
	}
	if apiErr.Code != "invalid_grant" || apiErr.Message != "Invalid login credentials" {
		t.Errorf("apiErr = %+v", apiErr)
	}

	user, err := client.GetUser(ctx, "tok")
	if err != nil || user.ID != "u1" {
		t.Fatalf("GetUser() = %+v, %v", user, err)
	}

	_, err = client.GetUser(ctx, "expired")
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("GetUser(expired) error = %v, want 401", err)
	}
	if !errors.As(err, &apiErr) || apiErr.Code != "bad_jwt" {
		t.Errorf("apiErr = %+v, want code bad_jwt", apiErr)
	}
}

func TestParseContentRange(t *testing.T) {
	tests := []struct {
		header  string
		want    int
		wantErr bool
	}{
		{"0-4/12", 12, false},
		{"*/0", 0, false},
		{"0-4/*", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseContentRange(tt.header)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseContentRange(%q) = %d, %v", tt.header, got, err)
		}
	}
}
