// Package plan implements evaluation plans: a small pipelined tree of table scan,
// select, and project nodes that the executor assembles for a SELECT statement and
// then evaluates against the storage layer.
package plan

import (
	"github.com/cabewaldrop/claude-db/internal/errs"
	"github.com/cabewaldrop/claude-db/internal/storage"
	"github.com/cabewaldrop/claude-db/internal/table"
	"github.com/cabewaldrop/claude-db/internal/types"
)

// Kind tags which of the four node shapes a Plan is.
type Kind int

const (
	TableScan Kind = iota
	Select
	Project
	ProjectAll
)

// Plan is one node of an evaluation plan. Only the fields relevant to its Kind are
// populated: relation for everything but TableScan, projection for Project,
// conjunction for Select, table for TableScan.
type Plan struct {
	kind        Kind
	relation    *Plan
	projection  []string
	conjunction types.Row
	table       *table.HeapTable
}

// NewTableScan builds a plan that scans every row of t.
func NewTableScan(t *table.HeapTable) *Plan {
	return &Plan{kind: TableScan, table: t}
}

// NewSelect builds a plan that filters relation's rows by an equality conjunction.
func NewSelect(conjunction types.Row, relation *Plan) *Plan {
	return &Plan{kind: Select, relation: relation, conjunction: conjunction}
}

// NewProject builds a plan that narrows relation's rows to the given columns.
func NewProject(columns []string, relation *Plan) *Plan {
	return &Plan{kind: Project, relation: relation, projection: columns}
}

// NewProjectAll builds a plan that returns relation's rows unprojected.
func NewProjectAll(relation *Plan) *Plan {
	return &Plan{kind: ProjectAll, relation: relation}
}

// Optimize returns the best equivalent plan. There is no cost-based rewriting yet, so
// this is the identity function.
func (p *Plan) Optimize() *Plan {
	return p
}

// Evaluate runs the plan and returns the resulting rows. Only a plan rooted at
// Project or ProjectAll can be evaluated; anything else is InvalidPlan.
func (p *Plan) Evaluate() ([]types.Row, error) {
	if p.kind != Project && p.kind != ProjectAll {
		return nil, errs.InvalidPlan("evaluation plan does not end with a projection")
	}
	tbl, handles, err := p.relation.pipeline()
	if err != nil {
		return nil, err
	}
	rows := make([]types.Row, 0, len(handles))
	for _, handle := range handles {
		var row types.Row
		if p.kind == ProjectAll {
			row, err = tbl.Project(handle, nil)
		} else {
			row, err = tbl.Project(handle, p.projection)
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// pipeline evaluates everything below a projection, returning the relation the
// surviving handles belong to and the handles themselves. It pushes a Select's
// conjunction straight into a HeapTable.SelectWhere when the child is a bare
// TableScan, and otherwise filters the parent's already-computed handle list.
func (p *Plan) pipeline() (*table.HeapTable, []storage.Handle, error) {
	switch p.kind {
	case TableScan:
		handles, err := p.table.Select()
		return p.table, handles, err
	case Select:
		if p.relation.kind == TableScan {
			handles, err := p.relation.table.SelectWhere(p.conjunction)
			return p.relation.table, handles, err
		}
		tbl, handles, err := p.relation.pipeline()
		if err != nil {
			return nil, nil, err
		}
		filtered, err := tbl.SelectAmong(handles, p.conjunction)
		if err != nil {
			return nil, nil, err
		}
		return tbl, filtered, nil
	default:
		return nil, nil, errs.NotImplemented("evaluation plan pipeline for a node other than Select or TableScan")
	}
}
