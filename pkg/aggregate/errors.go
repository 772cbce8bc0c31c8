package aggregate

import (
	"errors"
	"fmt"
)

// ErrUnknownField is matched by every AggregationError.
var ErrUnknownField = errors.New("unknown aggregation field")

// AggregationError reports a grouping key, metric or option that the
// relation cannot serve. It is scoped to a single call.
type AggregationError struct {
	Relation string
	Field    string
	Want     FieldKind // expected kind, empty when any kind is accepted
	Have     FieldKind // actual kind, empty when the field does not exist
	Op       string
}

func (e *AggregationError) Error() string {
	switch {
	case e.Have != "" && e.Want != "":
		return fmt.Sprintf("aggregate %s: %s field %q is %s, want %s", e.Op, e.Relation, e.Field, e.Have, e.Want)
	case e.Relation == "":
		return fmt.Sprintf("aggregate %s: invalid value %q", e.Op, e.Field)
	default:
		return fmt.Sprintf("aggregate %s: %s has no field %q", e.Op, e.Relation, e.Field)
	}
}

func (e *AggregationError) Is(target error) bool {
	return target == ErrUnknownField
}
