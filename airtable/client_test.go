package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) RecordClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("AIRTABLE_API_KEY", "key-test")
	t.Setenv("AIRTABLE_BASE_ID", "appBase")
	t.Setenv("AIRTABLE_API_BASE_URL", srv.URL)
	t.Setenv("AIRTABLE_RATE_LIMIT_PER_SEC", "1000")

	client, err := NewClient()
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestClientCreate(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]interface{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(Record{ID: "recNEW"})
	}))

	id, err := client.Create(context.Background(), "Users", map[string]interface{}{"Email": "a@b.c"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != "recNEW" {
		t.Fatalf("expected recNEW, got %q", id)
	}
	if gotAuth != "Bearer key-test" {
		t.Fatalf("Authorization: got %q", gotAuth)
	}
	if gotPath != "/appBase/Users" {
		t.Fatalf("path: got %q", gotPath)
	}
	fields, _ := gotBody["fields"].(map[string]interface{})
	if fields["Email"] != "a@b.c" {
		t.Fatalf("fields payload: got %v", gotBody)
	}
}

func TestClientUpdateNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	err := client.Update(context.Background(), "Users", "recGONE", map[string]interface{}{})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if IsTransient(err) {
		t.Fatal("not-found must not classify as transient")
	}
}

func TestClientServerErrorIsTransient(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))

	_, err := client.Create(context.Background(), "Orders", map[string]interface{}{})
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	var te *TransientError
	if !errors.As(err, &te) || te.Status != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 in error, got %v", err)
	}
	if errors.Is(err, ErrRecordNotFound) {
		t.Fatal("transient must not classify as not-found")
	}
}

func TestClientListPagination(t *testing.T) {
	calls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch r.URL.Query().Get("offset") {
		case "":
			json.NewEncoder(w).Encode(listResponse{
				Records: []Record{{ID: "rec1"}, {ID: "rec2"}},
				Offset:  "page2",
			})
		case "page2":
			json.NewEncoder(w).Encode(listResponse{
				Records: []Record{{ID: "rec3"}},
			})
		default:
			t.Errorf("unexpected offset %q", r.URL.Query().Get("offset"))
		}
	}))

	records, err := client.List(context.Background(), "Shop Items")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 pages fetched, got %d", calls)
	}
	if len(records) != 3 || records[2].ID != "rec3" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestClientRequiresCredentials(t *testing.T) {
	t.Setenv("AIRTABLE_API_KEY", "")
	t.Setenv("AIRTABLE_BASE_ID", "appBase")
	if _, err := NewClient(); err == nil {
		t.Fatal("expected error without api key")
	}

	t.Setenv("AIRTABLE_API_KEY", "key")
	t.Setenv("AIRTABLE_BASE_ID", "")
	if _, err := NewClient(); err == nil {
		t.Fatal("expected error without base id")
	}
}
