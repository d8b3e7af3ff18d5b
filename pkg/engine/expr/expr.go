package expr

import (
	"vexec/pkg/descriptors"
	"vexec/pkg/engine/plan"
	"vexec/pkg/engine/runtime"
	"vexec/pkg/engine/types"
)

// Expr is a node of an expression tree. Execute reports the position of the
// node's result column in the block; nodes never copy block data.
type Expr interface {
	// Prepare binds the node to a row layout. It runs once per fragment
	// before any Execute.
	Prepare(state *runtime.State, rowDesc *descriptors.RowDescriptor, ctx *ExprContext) error
	Execute(ctx *ExprContext, block *types.Block) (int, error)
	ExprName() string
	DataType() types.DataType
	NodeType() plan.NodeType
	Children() []Expr
	AddChild(child Expr)
	String() string
}

type exprBase struct {
	nodeType plan.NodeType
	dataType types.DataType
	children []Expr
}

func (e *exprBase) NodeType() plan.NodeType  { return e.nodeType }
func (e *exprBase) DataType() types.DataType { return e.dataType }
func (e *exprBase) Children() []Expr         { return e.children }
func (e *exprBase) AddChild(child Expr)      { e.children = append(e.children, child) }

// CollectSlotIDs returns the distinct slots referenced by the trees, in the
// order they are first seen. No-op references are skipped.
func CollectSlotIDs(ctxs []*ExprContext) []descriptors.SlotID {
	seen := make(map[descriptors.SlotID]struct{})
	var ids []descriptors.SlotID
	var walk func(e Expr)
	walk = func(e Expr) {
		if ref, ok := e.(*SlotRef); ok && !ref.IsNoop() {
			if _, dup := seen[ref.SlotID()]; !dup {
				seen[ref.SlotID()] = struct{}{}
				ids = append(ids, ref.SlotID())
			}
		}
		for _, c := range e.Children() {
			walk(c)
		}
	}
	for _, c := range ctxs {
		walk(c.Root())
	}
	return ids
}
