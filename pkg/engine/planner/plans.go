package planner

import (
	"vexec/pkg/engine/plan"
	"vexec/pkg/metadata"
)

type PlanType int

const (
	PlanTypeCopy PlanType = iota
	PlanTypeSelect
)

type QueryPlan interface {
	Type() PlanType
}

type CopyPlan struct {
	TableName         string
	CsvFilePath       string
	ColumnsMapping    []string
	CsvContainsHeader bool
	Metastore         *metadata.Metastore
}

func (p *CopyPlan) Type() PlanType {
	return PlanTypeCopy
}

// SelectPlan pairs a serialized plan with the table snapshot it reads. The
// snapshot must be released once the plan is executed or abandoned.
type SelectPlan struct {
	Plan     *plan.QueryPlan
	Snapshot *metadata.MetastoreSnapshot
}

func (p *SelectPlan) Type() PlanType {
	return PlanTypeSelect
}

func (p *SelectPlan) Release() {
	p.Snapshot.Release()
}
