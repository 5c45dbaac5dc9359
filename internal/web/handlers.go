package web

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cabewaldrop/claude-db/internal/sql/lexer"
	"github.com/cabewaldrop/claude-db/internal/sql/parser"
)

// handleIndex serves the landing page of the web UI.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>claude-db</title>
    <link rel="stylesheet" href="/static/style.css">
</head>
<body>
    <h1>claude-db</h1>
    <p><a href="/tables">Browse tables</a></p>
    <p><a href="/query">Run a query</a></p>
    <p><a href="/health">Health check</a></p>
</body>
</html>`))
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

var tableListTemplate = template.Must(template.New("tableList").Parse(`<!DOCTYPE html>
<html>
<head><title>Tables - claude-db</title><link rel="stylesheet" href="/static/style.css"></head>
<body>
    <h1><a href="/">claude-db</a> / Tables</h1>
    {{if .Error}}
        <p class="error">{{.Error}}</p>
    {{else if not .Tables}}
        <p class="empty">No tables yet.</p>
    {{else}}
        <ul>{{range .Tables}}<li><a href="/tables/{{.}}">{{.}}</a></li>{{end}}</ul>
    {{end}}
</body>
</html>`))

// handleTableList serves an HTML page listing every table in the catalog.
func (s *Server) handleTableList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if s.executor == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		tableListTemplate.Execute(w, map[string]any{"Error": "database not initialized"})
		return
	}

	names, err := s.executor.DB().ShowTables()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		tableListTemplate.Execute(w, map[string]any{"Error": err.Error()})
		return
	}

	w.WriteHeader(http.StatusOK)
	tableListTemplate.Execute(w, map[string]any{"Tables": names})
}

// tableDataPage holds data for rendering the table data template.
type tableDataPage struct {
	TableName string
	Columns   []string
	Rows      [][]string
	Limit     int
	Offset    int
	OffsetEnd int
	HasPrev   bool
	HasNext   bool
	PrevURL   string
	NextURL   string
	Empty     bool
	Error     string
}

var tableDataTemplate = template.Must(template.New("tableData").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.TableName}} - claude-db</title>
    <link rel="stylesheet" href="/static/style.css">
</head>
<body>
    <h1><a href="/">claude-db</a> / {{.TableName}}</h1>
    {{if .Error}}
        <p class="error">{{.Error}}</p>
    {{else if .Empty}}
        <p class="empty">This table is empty.</p>
    {{else}}
        <div class="nav">
            {{if .HasPrev}}<a href="{{.PrevURL}}">&larr; Previous</a>{{else}}<a class="disabled">&larr; Previous</a>{{end}}
            {{if .HasNext}}<a href="{{.NextURL}}">Next &rarr;</a>{{else}}<a class="disabled">Next &rarr;</a>{{end}}
            <span>Showing rows {{.Offset}} - {{.OffsetEnd}} (limit {{.Limit}})</span>
        </div>
        <table>
            <thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
            <tbody>{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody>
        </table>
    {{end}}
</body>
</html>`))

// handleTableData serves a paginated view of a table's rows. Pagination is applied
// in Go over the handle list returned by Select, since SELECT has no LIMIT/OFFSET
// clause of its own.
func (s *Server) handleTableData(w http.ResponseWriter, r *http.Request) {
	tableName := chi.URLParam(r, "name")

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

	page := tableDataPage{TableName: tableName, Limit: limit, Offset: offset}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if s.executor == nil {
		page.Error = "database not initialized"
		w.WriteHeader(http.StatusServiceUnavailable)
		tableDataTemplate.Execute(w, page)
		return
	}

	tbl, err := s.executor.DB().GetTable(tableName)
	if err != nil {
		page.Error = fmt.Sprintf("table %q not found: %v", tableName, err)
		w.WriteHeader(http.StatusNotFound)
		tableDataTemplate.Execute(w, page)
		return
	}
	defer tbl.Close()

	handles, err := tbl.Select()
	if err != nil {
		page.Error = err.Error()
		w.WriteHeader(http.StatusInternalServerError)
		tableDataTemplate.Execute(w, page)
		return
	}

	start := offset
	if start > len(handles) {
		start = len(handles)
	}
	end := start + limit
	hasMore := end < len(handles)
	if end > len(handles) {
		end = len(handles)
	}

	columns := tbl.Schema().ColumnNames()
	page.Columns = columns
	for _, handle := range handles[start:end] {
		row, err := tbl.Project(handle, nil)
		if err != nil {
			page.Error = err.Error()
			w.WriteHeader(http.StatusInternalServerError)
			tableDataTemplate.Execute(w, page)
			return
		}
		strRow := make([]string, len(columns))
		for i, col := range columns {
			strRow[i] = row[col].String()
		}
		page.Rows = append(page.Rows, strRow)
	}

	page.Empty = len(page.Rows) == 0
	page.OffsetEnd = offset + len(page.Rows)
	page.HasPrev = offset > 0
	page.HasNext = hasMore
	if page.HasPrev {
		prevOffset := offset - limit
		if prevOffset < 0 {
			prevOffset = 0
		}
		page.PrevURL = fmt.Sprintf("/tables/%s?limit=%d&offset=%d", tableName, limit, prevOffset)
	}
	if page.HasNext {
		page.NextURL = fmt.Sprintf("/tables/%s?limit=%d&offset=%d", tableName, limit, offset+limit)
	}

	w.WriteHeader(http.StatusOK)
	tableDataTemplate.Execute(w, page)
}

var queryFormTemplate = template.Must(template.New("queryForm").Parse(`<!DOCTYPE html>
<html>
<head><title>Query - claude-db</title><link rel="stylesheet" href="/static/style.css"></head>
<body>
    <h1><a href="/">claude-db</a> / Query</h1>
    <form method="post" action="/query">
        <textarea name="sql" rows="4" cols="80">{{.SQL}}</textarea><br>
        <button type="submit">Run</button>
    </form>
    {{if .Error}}<p class="error">{{.Error}}{{if .Hint}}<br><em>{{.Hint}}</em>{{end}}</p>{{end}}
    {{if .Result}}<pre>{{.Result}}</pre>{{end}}
</body>
</html>`))

// handleQueryForm serves the ad hoc SQL query form.
func (s *Server) handleQueryForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	queryFormTemplate.Execute(w, map[string]any{})
}

// handleQuerySubmit executes the SQL submitted from the query form and renders
// either the result table or a typed-error-derived hint.
func (s *Server) handleQuerySubmit(w http.ResponseWriter, r *http.Request) {
	sql := r.FormValue("sql")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if s.executor == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		queryFormTemplate.Execute(w, map[string]any{"SQL": sql, "Error": "database not initialized"})
		return
	}

	l := lexer.New(sql)
	p := parser.New(l)
	stmt, err := p.Parse()
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		queryFormTemplate.Execute(w, map[string]any{"SQL": sql, "Error": err.Error()})
		return
	}

	result, err := s.executor.Execute(stmt)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		queryFormTemplate.Execute(w, map[string]any{"SQL": sql, "Error": err.Error(), "Hint": GetErrorHint(err)})
		return
	}

	w.WriteHeader(http.StatusOK)
	queryFormTemplate.Execute(w, map[string]any{"SQL": sql, "Result": result.String()})
}
