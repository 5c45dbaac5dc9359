// Package web provides the HTTP server for the database web UI.
//
// This file contains the JSON API endpoints for programmatic access.

package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cabewaldrop/claude-db/internal/sql/lexer"
	"github.com/cabewaldrop/claude-db/internal/sql/parser"
	"github.com/cabewaldrop/claude-db/internal/types"
)

// ============================================================================
// API Response Types
// ============================================================================

// APIResponse wraps all API responses with success/error info.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// TableListResponse contains the list of tables.
type TableListResponse struct {
	Tables []string `json:"tables"`
}

// ColumnInfo describes a single column in a table.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableSchemaResponse describes a table's structure.
type TableSchemaResponse struct {
	Name     string       `json:"name"`
	Columns  []ColumnInfo `json:"columns"`
	RowCount int          `json:"row_count"`
}

// RowsResponse contains paginated row data.
type RowsResponse struct {
	Columns    []string                 `json:"columns"`
	Rows       []map[string]interface{} `json:"rows"`
	TotalCount int                      `json:"total_count"`
	Offset     int                      `json:"offset"`
	Limit      int                      `json:"limit"`
	HasMore    bool                     `json:"has_more"`
}

// QueryRequest is the body for query execution.
type QueryRequest struct {
	SQL string `json:"sql"`
}

// QueryResponse contains query results.
type QueryResponse struct {
	Columns  []string                 `json:"columns,omitempty"`
	Rows     []map[string]interface{} `json:"rows,omitempty"`
	RowCount int                      `json:"row_count"`
	Message  string                   `json:"message,omitempty"`
}

// ============================================================================
// Helper Functions
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{Success: false, Error: message})
}

// valueToInterface converts a types.Value to a JSON-serializable interface{}.
func valueToInterface(v types.Value) interface{} {
	switch v.Type {
	case types.TypeInt:
		return v.Int
	case types.TypeText:
		return v.Text
	case types.TypeBoolean:
		return v.Bool
	default:
		return v.String()
	}
}

func rowToMap(row types.Row, columns []string) map[string]interface{} {
	m := make(map[string]interface{}, len(columns))
	for _, col := range columns {
		m[col] = valueToInterface(row[col])
	}
	return m
}

// ============================================================================
// API Handlers
// ============================================================================

// handleAPITables returns a list of all tables.
// GET /api/tables
func (s *Server) handleAPITables(w http.ResponseWriter, r *http.Request) {
	if s.executor == nil {
		writeError(w, http.StatusServiceUnavailable, "database not initialized")
		return
	}

	names, err := s.executor.DB().ShowTables()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeSuccess(w, TableListResponse{Tables: names})
}

// handleAPITableSchema returns the schema for a specific table.
// GET /api/tables/{name}
func (s *Server) handleAPITableSchema(w http.ResponseWriter, r *http.Request) {
	if s.executor == nil {
		writeError(w, http.StatusServiceUnavailable, "database not initialized")
		return
	}

	tableName := chi.URLParam(r, "name")
	cols, err := s.executor.DB().ShowColumns(tableName)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("table %q not found: %v", tableName, err))
		return
	}

	columns := make([]ColumnInfo, len(cols))
	for i, col := range cols {
		columns[i] = ColumnInfo{Name: col.Name, Type: col.Type.String()}
	}

	tbl, err := s.executor.DB().GetTable(tableName)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("table %q not found: %v", tableName, err))
		return
	}
	defer tbl.Close()
	handles, err := tbl.Select()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeSuccess(w, TableSchemaResponse{Name: tableName, Columns: columns, RowCount: len(handles)})
}

// handleAPITableRows returns paginated rows from a table.
// GET /api/tables/{name}/rows?limit=50&offset=0
func (s *Server) handleAPITableRows(w http.ResponseWriter, r *http.Request) {
	if s.executor == nil {
		writeError(w, http.StatusServiceUnavailable, "database not initialized")
		return
	}

	tableName := chi.URLParam(r, "name")
	tbl, err := s.executor.DB().GetTable(tableName)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("table %q not found: %v", tableName, err))
		return
	}
	defer tbl.Close()

	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	handles, err := tbl.Select()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	totalCount := len(handles)

	start := offset
	if start > totalCount {
		start = totalCount
	}
	end := start + limit
	hasMore := end < totalCount
	if end > totalCount {
		end = totalCount
	}

	columns := tbl.Schema().ColumnNames()
	rows := make([]map[string]interface{}, 0, end-start)
	for _, handle := range handles[start:end] {
		row, err := tbl.Project(handle, nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		rows = append(rows, rowToMap(row, columns))
	}

	writeSuccess(w, RowsResponse{
		Columns:    columns,
		Rows:       rows,
		TotalCount: totalCount,
		Offset:     offset,
		Limit:      limit,
		HasMore:    hasMore,
	})
}

// handleAPIQuery executes an arbitrary SQL statement.
// POST /api/query
func (s *Server) handleAPIQuery(w http.ResponseWriter, r *http.Request) {
	if s.executor == nil {
		writeError(w, http.StatusServiceUnavailable, "database not initialized")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SQL == "" {
		writeError(w, http.StatusBadRequest, "sql field is required")
		return
	}

	l := lexer.New(req.SQL)
	p := parser.New(l)
	stmt, err := p.Parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parse error: %v", err))
		return
	}

	result, err := s.executor.Execute(stmt)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("execution error: %v", err))
		return
	}

	resp := QueryResponse{RowCount: len(result.Rows), Message: result.Message}
	if len(result.ColumnNames) > 0 {
		resp.Columns = result.ColumnNames
		resp.Rows = make([]map[string]interface{}, len(result.Rows))
		for i, row := range result.Rows {
			resp.Rows[i] = rowToMap(row, result.ColumnNames)
		}
	}

	writeSuccess(w, resp)
}
