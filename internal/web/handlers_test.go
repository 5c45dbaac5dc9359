package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/cabewaldrop/claude-db/internal/catalog"
	"github.com/cabewaldrop/claude-db/internal/sql/executor"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	db := catalog.NewDatabase(t.TempDir())
	t.Cleanup(func() { db.Close() })
	return NewServer(0, executor.New(db))
}

func TestHandlerHealthEndpoint(t *testing.T) {
	srv := setupTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("Failed to GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Errorf("expected 'ok', got: %s", body)
	}
}

func TestTableListEmpty(t *testing.T) {
	srv := setupTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/tables")
	if err != nil {
		t.Fatalf("Failed to GET /tables: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "No tables yet") {
		t.Errorf("expected empty-state message, got: %s", body)
	}
}

func TestTableListAndData(t *testing.T) {
	srv := setupTestServer(t)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	// Create a table via the ad hoc query endpoint.
	form := url.Values{"sql": {"CREATE TABLE users (id INT, name TEXT)"}}
	resp, err := http.PostForm(ts.URL+"/query", form)
	if err != nil {
		t.Fatalf("Failed to POST /query: %v", err)
	}
	resp.Body.Close()

	form = url.Values{"sql": {"INSERT INTO users (id, name) VALUES (1, 'ada')"}}
	resp, err = http.PostForm(ts.URL+"/query", form)
	if err != nil {
		t.Fatalf("Failed to POST /query: %v", err)
	}
	resp.Body.Close()

	listResp, err := http.Get(ts.URL + "/tables")
	if err != nil {
		t.Fatalf("Failed to GET /tables: %v", err)
	}
	defer listResp.Body.Close()
	body, _ := io.ReadAll(listResp.Body)
	if !strings.Contains(string(body), "users") {
		t.Errorf("expected 'users' in table list, got: %s", body)
	}

	dataResp, err := http.Get(ts.URL + "/tables/users")
	if err != nil {
		t.Fatalf("Failed to GET /tables/users: %v", err)
	}
	defer dataResp.Body.Close()
	body, _ = io.ReadAll(dataResp.Body)
	if !strings.Contains(string(body), "ada") {
		t.Errorf("expected 'ada' in table data, got: %s", body)
	}
}

func TestTableDataNotFound(t *testing.T) {
	srv := setupTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/tables/nonexistent")
	if err != nil {
		t.Fatalf("Failed to GET /tables/nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.StatusCode)
	}
}

func TestQueryFormRenders(t *testing.T) {
	srv := setupTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/query")
	if err != nil {
		t.Fatalf("Failed to GET /query: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<form") {
		t.Error("expected a query form in the response")
	}
}

func TestQuerySubmitError(t *testing.T) {
	srv := setupTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	form := url.Values{"sql": {"SELECT * FROM nope"}}
	resp, err := http.PostForm(ts.URL+"/query", form)
	if err != nil {
		t.Fatalf("Failed to POST /query: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "SHOW TABLES") {
		t.Errorf("expected a NoSuchTable hint in the response, got: %s", body)
	}
}
