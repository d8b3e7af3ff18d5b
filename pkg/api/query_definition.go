package api

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

type QueryDefinition interface {
	IsQuery() bool
}

func (s SelectQuery) IsQuery() bool { return true }
func (c CopyQuery) IsQuery() bool   { return true }

// QueryQueryDefinition holds either a SelectQuery or a CopyQuery, told apart
// by the fields present in the JSON object.
type QueryQueryDefinition struct {
	Definition QueryDefinition
}

func (q *QueryQueryDefinition) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	_, hasSource := raw["sourceFilepath"]
	_, hasDest := raw["destinationTableName"]
	_, hasColumns := raw["columnClauses"]
	isCopy := hasSource || hasDest

	switch {
	case isCopy && hasColumns:
		return errors.New("ambiguous query definition: contains both COPY and SELECT fields")
	case isCopy:
		var copyQ CopyQuery
		if err := decodeStrict(data, &copyQ); err != nil {
			return errors.Wrap(err, "invalid COPY query")
		}
		q.Definition = copyQ
	case hasColumns:
		var selectQ SelectQuery
		if err := decodeStrict(data, &selectQ); err != nil {
			return errors.Wrap(err, "invalid SELECT query")
		}
		q.Definition = selectQ
	default:
		return errors.New("query definition matches neither COPY (sourceFilepath) nor SELECT (columnClauses)")
	}
	return nil
}

func (q QueryQueryDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Definition)
}

func AssertQueryQueryDefinitionRequired(obj QueryQueryDefinition) error {
	switch q := obj.Definition.(type) {
	case nil:
		return errors.New("query definition is empty")
	case SelectQuery:
		return AssertSelectQueryRequired(q)
	case CopyQuery:
		return AssertCopyQueryRequired(q)
	default:
		return errors.Newf("unknown query definition type %T", q)
	}
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
