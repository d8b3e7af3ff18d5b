package expr

import (
	"github.com/cockroachdb/errors"

	"vexec/pkg/descriptors"
	"vexec/pkg/engine/plan"
	"vexec/pkg/engine/runtime"
	"vexec/pkg/engine/types"
)

// ExprContext owns one expression tree and the serialized nodes it was built
// from, so that every fragment can get an independent copy.
type ExprContext struct {
	root     Expr
	source   *plan.Expr
	prepared bool
}

// NewExprContext wraps a tree built in code. Such a context cannot be cloned.
func NewExprContext(root Expr) *ExprContext {
	return &ExprContext{root: root}
}

func (c *ExprContext) Root() Expr { return c.root }

func (c *ExprContext) Prepare(state *runtime.State, rowDesc *descriptors.RowDescriptor) error {
	if err := c.root.Prepare(state, rowDesc, c); err != nil {
		return err
	}
	c.prepared = true
	return nil
}

func (c *ExprContext) Execute(block *types.Block) (int, error) {
	return c.root.Execute(c, block)
}

func (c *ExprContext) IsPrepared() bool { return c.prepared }

// Clone rebuilds an unprepared tree from the serialized nodes.
func (c *ExprContext) Clone() (*ExprContext, error) {
	if c.source == nil {
		return nil, errors.AssertionFailedf("expression context for %s has no serialized source", c.root)
	}
	return CreateExprTree(*c.source)
}

func (c *ExprContext) String() string { return c.root.String() }
