package expr

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"vexec/pkg/descriptors"
	"vexec/pkg/engine/execerror"
	"vexec/pkg/engine/plan"
	"vexec/pkg/engine/runtime"
	"vexec/pkg/engine/types"
	"vexec/pkg/metrics"
)

type bindingState uint8

const (
	unresolved bindingState = iota
	noop
	bound
)

// binding is where a SlotRef points. columnID is meaningful only when bound.
type binding struct {
	state    bindingState
	columnID int
}

// SlotRef is the leaf that refers to an already materialized column. It
// translates the plan-level slot id into the column position of the current
// row layout during Prepare and reports that position on every Execute.
//
// A SlotRef is owned by one fragment. After Prepare, Execute only reads
// immutable fields.
type SlotRef struct {
	exprBase

	slotID            descriptors.SlotID
	binding           binding
	nullable          bool
	nullableWrapped   bool
	name              string
	boundToRowContext bool

	// declaredType is the type carried by the serialized node, if any. It
	// must agree with the slot descriptor; the descriptor stays authoritative.
	declaredType types.DataType
}

var _ Expr = (*SlotRef)(nil)

// NewSlotRefFromNode builds an unresolved SlotRef from a serialized node.
// Type and nullability are only known after Prepare.
func NewSlotRefFromNode(node plan.ExprNode) (*SlotRef, error) {
	if node.NodeType != plan.SlotRefNode {
		return nil, errors.Newf("expected %s node, got %q", plan.SlotRefNode, node.NodeType)
	}
	if node.SlotRef == nil {
		return nil, errors.Newf("%s node without slot payload", plan.SlotRefNode)
	}
	e := &SlotRef{
		exprBase: exprBase{nodeType: plan.SlotRefNode},
		slotID:   descriptors.SlotID(node.SlotRef.SlotID),
	}
	if node.Type != "" {
		typ, err := types.ParseDataType(node.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "slot ref %d", e.slotID)
		}
		e.declaredType = typ
	}
	return e, nil
}

// NewSlotRefFromDescriptor builds a SlotRef for an expression synthesized
// inside the engine. It is tied to the row context that owns desc.
func NewSlotRefFromDescriptor(desc *descriptors.SlotDescriptor) *SlotRef {
	return &SlotRef{
		exprBase:          exprBase{nodeType: plan.SlotRefNode, dataType: desc.Type},
		slotID:            desc.ID,
		boundToRowContext: true,
	}
}

func (e *SlotRef) Prepare(state *runtime.State, rowDesc *descriptors.RowDescriptor, _ *ExprContext) error {
	if len(e.children) != 0 {
		execerror.InternalError(errors.AssertionFailedf(
			"slot ref %d is a leaf but has %d children", e.slotID, len(e.children)))
	}

	if e.slotID == descriptors.InvalidSlotID {
		e.binding = binding{state: noop, columnID: -1}
		metrics.SlotResolutions.WithLabelValues(metrics.OutcomeNoop).Inc()
		return nil
	}

	slotDesc, ok := state.DescTbl().SlotDescriptor(e.slotID)
	if !ok {
		metrics.SlotResolutions.WithLabelValues(metrics.OutcomeError).Inc()
		return &ResolutionError{SlotID: e.slotID}
	}
	columnID := rowDesc.GetColumnID(e.slotID)
	if columnID < 0 {
		metrics.SlotResolutions.WithLabelValues(metrics.OutcomeError).Inc()
		return &ResolutionError{SlotID: e.slotID, Reason: "slot is not materialized in the row layout"}
	}

	slotType := slotDesc.Type
	if slotDesc.IsNullable() {
		slotType = types.MakeNullable(slotType)
	}
	if e.declaredType != nil && !e.declaredType.Equal(slotType) {
		metrics.SlotResolutions.WithLabelValues(metrics.OutcomeError).Inc()
		return &ResolutionError{
			SlotID: e.slotID,
			Reason: fmt.Sprintf("node type %s does not match slot type %s", e.declaredType.Name(), slotType.Name()),
		}
	}

	if e.binding.state == bound && e.binding.columnID != columnID {
		execerror.InternalError(errors.AssertionFailedf(
			"slot ref %d re-prepared to column %d, was bound to column %d", e.slotID, columnID, e.binding.columnID))
	}

	e.binding = binding{state: bound, columnID: columnID}
	e.nullable = slotDesc.IsNullable()
	e.name = slotDesc.ColName
	if !e.nullableWrapped {
		e.dataType = slotDesc.Type
	}
	if e.nullable && !e.nullableWrapped {
		e.dataType = types.MakeNullable(e.dataType)
		e.nullableWrapped = true
	}

	metrics.SlotResolutions.WithLabelValues(metrics.OutcomeBound).Inc()
	state.Logger().Debug("slot resolved", "slot_id", e.slotID, "column_id", columnID, "nullable", e.nullable)
	return nil
}

// Execute returns the column id bound in Prepare, or -1 for a no-op
// reference. The block is only used to check the id is in range.
func (e *SlotRef) Execute(_ *ExprContext, block *types.Block) (int, error) {
	switch e.binding.state {
	case noop:
		return -1, nil
	case bound:
		if n := block.NumColumns(); e.binding.columnID >= n {
			execerror.InternalError(errors.AssertionFailedf(
				"slot ref %d bound to column %d, block has %d columns", e.slotID, e.binding.columnID, n))
		}
		return e.binding.columnID, nil
	default:
		execerror.InternalError(errors.AssertionFailedf("slot ref %d executed before prepare", e.slotID))
		return -1, nil
	}
}

// ExprName returns the column name captured at resolution, "" for a no-op
// reference.
func (e *SlotRef) ExprName() string {
	if e.binding.state == unresolved {
		execerror.InternalError(errors.AssertionFailedf("name of slot ref %d requested before prepare", e.slotID))
	}
	return e.name
}

func (e *SlotRef) SlotID() descriptors.SlotID { return e.slotID }

// ColumnID is -1 unless the reference is bound.
func (e *SlotRef) ColumnID() int {
	if e.binding.state != bound {
		return -1
	}
	return e.binding.columnID
}

func (e *SlotRef) IsNullable() bool          { return e.nullable }
func (e *SlotRef) IsNoop() bool              { return e.slotID == descriptors.InvalidSlotID }
func (e *SlotRef) IsResolved() bool          { return e.binding.state != unresolved }
func (e *SlotRef) IsBoundToRowContext() bool { return e.boundToRowContext }

func (e *SlotRef) String() string {
	typeName := "<unknown>"
	if e.dataType != nil {
		typeName = e.dataType.Name()
	}
	return fmt.Sprintf("SlotRef(slot_id=%d, column_id=%d, type=%s, name=%q)", e.slotID, e.ColumnID(), typeName, e.name)
}
