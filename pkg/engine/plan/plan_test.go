package plan

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name: "valid",
			input: `{"desc_tbl":{"tuples":[{"id":0,"table_name":"t"}],"slots":[{"id":3,"parent":0,"type":"INT64","col_name":"a","nullable":false,"col_pos":0,"materialized":true}]},
				"scan_tuple_id":0,"projections":[{"nodes":[{"node_type":"SLOT_REF","num_children":0,"slot_ref":{"slot_id":3,"tuple_id":0}}]}],"limit":-1}`,
		},
		{
			name:    "unknown field",
			input:   `{"desc_tbl":{},"scan_tuple_id":0,"projections":[],"limit":-1,"extra":1}`,
			wantErr: true,
		},
		{
			name:    "trailing data",
			input:   `{"limit":-1} {}`,
			wantErr: true,
		},
		{
			name:    "bad limit",
			input:   `{"limit":-2}`,
			wantErr: true,
		},
		{
			name:    "order by out of range",
			input:   `{"projections":[{"nodes":[]}],"order_by":[{"projection_index":1,"ascending":true}],"limit":-1}`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Decode(strings.NewReader(tc.input))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, p.Projections, 1)
			assert.Equal(t, SlotRefNode, p.Projections[0].Nodes[0].NodeType)
			assert.Equal(t, int32(3), p.Projections[0].Nodes[0].SlotRef.SlotID)
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	p := &QueryPlan{
		DescTbl: DescriptorTable{
			Tuples: []TupleDesc{{ID: 1, TableName: "users"}},
			Slots:  []SlotDesc{{ID: 5, Parent: 1, Type: "VARCHAR", ColName: "name", Nullable: true, Materialized: true}},
		},
		ScanTupleID: 1,
		Projections: []Expr{{Nodes: []ExprNode{{NodeType: SlotRefNode, SlotRef: &SlotRef{SlotID: 5, TupleID: 1}}}}},
		Limit:       NoLimit,
	}

	var buf bytes.Buffer
	require.NoError(t, p.Encode(&buf))
	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, p, decoded)

	table, err := decoded.ScanTable()
	require.NoError(t, err)
	assert.Equal(t, "users", table)
}
