package bookmarker

import "fmt"

// Operator is a comparison operator used while building the bookmark predicate.
type Operator string

// Valid reports whether o is a strict scan operator. The equality of a
// disjunct prefix is not.
func (o Operator) Valid() bool {
	return o == OperatorLT || o == OperatorGT
}

// ForOrdering maps a scan operator back to the direction of the rows it
// selects.
func (o Operator) ForOrdering() Direction {
	switch o {
	case OperatorGT:
		return DirectionASC
	case OperatorLT:
		return DirectionDESC
	default:
		panic(fmt.Errorf("cannot map operator '%s' to ordering", o))
	}
}

const (
	OperatorGT Operator = ">"
	OperatorLT Operator = "<"

	// operatorEq is private because it is used ONLY for the equality prefix
	// of a disjunct.
	operatorEq Operator = "="
)
