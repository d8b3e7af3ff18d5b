// Package plan holds the serialized form of a query plan as exchanged between
// the planner, the HTTP API and the executor.
package plan

import (
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
)

type NodeType string

const SlotRefNode NodeType = "SLOT_REF"

// NoLimit disables the row limit of a plan.
const NoLimit int64 = -1

type SlotRef struct {
	SlotID  int32 `json:"slot_id"`
	TupleID int32 `json:"tuple_id"`
}

// ExprNode is one node of a flattened expression tree. Children follow their
// parent in pre-order.
type ExprNode struct {
	NodeType    NodeType `json:"node_type"`
	NumChildren int      `json:"num_children"`
	Type        string   `json:"type,omitempty"`
	SlotRef     *SlotRef `json:"slot_ref,omitempty"`
}

type Expr struct {
	Nodes []ExprNode `json:"nodes"`
}

type SlotDesc struct {
	ID           int32  `json:"id"`
	Parent       int32  `json:"parent"`
	Type         string `json:"type"`
	ColName      string `json:"col_name"`
	Nullable     bool   `json:"nullable"`
	ColPos       int    `json:"col_pos"`
	Materialized bool   `json:"materialized"`
}

type TupleDesc struct {
	ID        int32  `json:"id"`
	TableName string `json:"table_name,omitempty"`
}

type DescriptorTable struct {
	Tuples []TupleDesc `json:"tuples"`
	Slots  []SlotDesc  `json:"slots"`
}

// OrderByElem sorts the result by the output of one projection.
type OrderByElem struct {
	ProjectionIndex int  `json:"projection_index"`
	Ascending       bool `json:"ascending"`
}

type QueryPlan struct {
	DescTbl     DescriptorTable `json:"desc_tbl"`
	ScanTupleID int32           `json:"scan_tuple_id"`
	Projections []Expr          `json:"projections"`
	OrderBy     []OrderByElem   `json:"order_by,omitempty"`
	Limit       int64           `json:"limit"`
}

// ScanTable returns the table name of the scan tuple.
func (p *QueryPlan) ScanTable() (string, error) {
	for _, t := range p.DescTbl.Tuples {
		if t.ID == p.ScanTupleID {
			if t.TableName == "" {
				return "", errors.Newf("scan tuple %d has no table", t.ID)
			}
			return t.TableName, nil
		}
	}
	return "", errors.Newf("scan tuple %d is not in the descriptor table", p.ScanTupleID)
}

// Decode reads a plan, rejecting unknown fields and trailing data.
func Decode(r io.Reader) (*QueryPlan, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var p QueryPlan
	if err := dec.Decode(&p); err != nil {
		return nil, errors.Wrap(err, "decoding query plan")
	}
	if dec.More() {
		return nil, errors.New("decoding query plan: unexpected data after plan")
	}
	if p.Limit < NoLimit {
		return nil, errors.Newf("invalid plan limit %d", p.Limit)
	}
	for i, o := range p.OrderBy {
		if o.ProjectionIndex < 0 || o.ProjectionIndex >= len(p.Projections) {
			return nil, errors.Newf("order by %d references projection %d of %d", i, o.ProjectionIndex, len(p.Projections))
		}
	}
	return &p, nil
}

func (p *QueryPlan) Encode(w io.Writer) error {
	return errors.Wrap(json.NewEncoder(w).Encode(p), "encoding query plan")
}
