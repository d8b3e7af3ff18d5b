package expr

import (
	"github.com/cockroachdb/errors"

	"vexec/pkg/descriptors"
	"vexec/pkg/engine/plan"
	"vexec/pkg/engine/runtime"
)

// CreateExprTree rebuilds a tree from its pre-order node list. Every call
// returns a fresh, unprepared tree.
func CreateExprTree(texpr plan.Expr) (*ExprContext, error) {
	if len(texpr.Nodes) == 0 {
		return nil, errors.New("empty expression")
	}
	idx := 0
	root, err := createTreeFromNodes(texpr.Nodes, &idx)
	if err != nil {
		return nil, err
	}
	if idx != len(texpr.Nodes) {
		return nil, errors.Newf("expression has %d trailing nodes", len(texpr.Nodes)-idx)
	}
	source := plan.Expr{Nodes: append([]plan.ExprNode(nil), texpr.Nodes...)}
	return &ExprContext{root: root, source: &source}, nil
}

func createTreeFromNodes(nodes []plan.ExprNode, idx *int) (Expr, error) {
	if *idx >= len(nodes) {
		return nil, errors.Newf("expression ended early: expected node %d, have %d", *idx, len(nodes))
	}
	node := nodes[*idx]
	*idx++

	if node.NumChildren < 0 {
		return nil, errors.Newf("node %d has negative child count", *idx-1)
	}
	e, err := newExprFromNode(node)
	if err != nil {
		return nil, err
	}
	for i := 0; i < node.NumChildren; i++ {
		child, err := createTreeFromNodes(nodes, idx)
		if err != nil {
			return nil, err
		}
		e.AddChild(child)
	}
	return e, nil
}

func newExprFromNode(node plan.ExprNode) (Expr, error) {
	switch node.NodeType {
	case plan.SlotRefNode:
		return NewSlotRefFromNode(node)
	default:
		return nil, errors.Newf("unsupported expression node type %q", node.NodeType)
	}
}

func CreateExprTrees(texprs []plan.Expr) ([]*ExprContext, error) {
	ctxs := make([]*ExprContext, 0, len(texprs))
	for i, texpr := range texprs {
		ctx, err := CreateExprTree(texpr)
		if err != nil {
			return nil, errors.Wrapf(err, "expression %d", i)
		}
		ctxs = append(ctxs, ctx)
	}
	return ctxs, nil
}

// CloneAll gives a fragment its own unprepared copy of every tree.
func CloneAll(ctxs []*ExprContext) ([]*ExprContext, error) {
	clones := make([]*ExprContext, len(ctxs))
	for i, ctx := range ctxs {
		clone, err := ctx.Clone()
		if err != nil {
			return nil, errors.Wrapf(err, "expression %d", i)
		}
		clones[i] = clone
	}
	return clones, nil
}

// PrepareAll stops at the first failing context.
func PrepareAll(ctxs []*ExprContext, state *runtime.State, rowDesc *descriptors.RowDescriptor) error {
	for _, ctx := range ctxs {
		if err := ctx.Prepare(state, rowDesc); err != nil {
			return err
		}
	}
	return nil
}
