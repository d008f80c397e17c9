// Package constraint models the predicate trees a scan filters with:
// typed leaf comparisons combined by AND/OR/XOR interior nodes.
package constraint

import (
	"fmt"

	"memscan/scantype"
)

// Kind identifies a leaf predicate
type Kind uint8

const (
	Unchanged Kind = iota
	Changed
	Increased
	Decreased
	IncreasedBy
	DecreasedBy
	Eq
	NeQ
	Gt
	Ge
	Lt
	Le
)

var kindNames = [...]string{
	"unchanged", "changed", "increased", "decreased",
	"increasedby", "decreasedby",
	"eq", "neq", "gt", "ge", "lt", "le",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind parses a leaf kind name as used in the wire format
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown constraint kind %q", scantype.ErrInvalidArguments, s)
}

// Relative reports whether the kind reads the previous generation as
// well as the current one
func (k Kind) Relative() bool {
	switch k {
	case Unchanged, Changed, Increased, Decreased, IncreasedBy, DecreasedBy:
		return true
	}
	return false
}

// RequiresValue reports whether the kind carries an immediate
func (k Kind) RequiresValue() bool {
	switch k {
	case Eq, NeQ, Gt, Ge, Lt, Le, IncreasedBy, DecreasedBy:
		return true
	}
	return false
}

// ordered reports whether the kind needs ordered (numeric) comparison.
// Eq, NeQ, Unchanged and Changed also work on byte arrays.
func (k Kind) ordered() bool {
	switch k {
	case Gt, Ge, Lt, Le, Increased, Decreased, IncreasedBy, DecreasedBy:
		return true
	}
	return false
}

// Op is a boolean combinator for interior tree nodes
type Op uint8

const (
	AND Op = iota
	OR
	XOR
)

var opNames = [...]string{"and", "or", "xor"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// ParseOp parses an interior node operator name
func ParseOp(s string) (Op, error) {
	for i, name := range opNames {
		if name == s {
			return Op(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown operator %q", scantype.ErrInvalidArguments, s)
}

// Constraint is a node of a predicate tree: either a Scan leaf or an
// Operation combining two subtrees
type Constraint interface {
	// Relative reports whether any leaf under this node needs the
	// previous byte generation
	Relative() bool

	// Validate checks the node against the scan's declared type. It
	// runs once before any memory is read; kernels built afterwards
	// assume a validated tree.
	Validate(t scantype.Type) error
}

// Scan is a leaf predicate evaluated pointwise per element
type Scan struct {
	Kind     Kind
	Value    scantype.Value
	HasValue bool
}

// NewScan builds a leaf with no immediate (Unchanged, Changed,
// Increased, Decreased)
func NewScan(kind Kind) *Scan {
	return &Scan{Kind: kind}
}

// NewScanValue builds a leaf carrying an immediate
func NewScanValue(kind Kind, v scantype.Value) *Scan {
	return &Scan{Kind: kind, Value: v, HasValue: true}
}

func (s *Scan) Relative() bool { return s.Kind.Relative() }

func (s *Scan) Validate(t scantype.Type) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if s.Kind.ordered() && !t.Kind.IsNumeric() {
		return fmt.Errorf("%w: %s on %s", scantype.ErrUnsupportedType, s.Kind, t)
	}
	if s.Kind.RequiresValue() != s.HasValue {
		if s.HasValue {
			return fmt.Errorf("%w: %s takes no value", scantype.ErrInvalidArguments, s.Kind)
		}
		return fmt.Errorf("%w: %s requires a value", scantype.ErrInvalidArguments, s.Kind)
	}
	if s.HasValue {
		return s.Value.Compatible(t)
	}
	return nil
}

func (s *Scan) String() string {
	if s.HasValue {
		return fmt.Sprintf("%s(%s)", s.Kind, s.Value)
	}
	return s.Kind.String()
}

// Operation combines two subtrees with a boolean operator
type Operation struct {
	Op    Op
	Left  Constraint
	Right Constraint
}

// NewOperation builds an interior node
func NewOperation(op Op, left, right Constraint) *Operation {
	return &Operation{Op: op, Left: left, Right: right}
}

func (o *Operation) Relative() bool {
	return o.Left.Relative() || o.Right.Relative()
}

func (o *Operation) Validate(t scantype.Type) error {
	if o.Left == nil || o.Right == nil {
		return fmt.Errorf("%w: %s node missing operand", scantype.ErrInvalidArguments, o.Op)
	}
	if err := o.Left.Validate(t); err != nil {
		return err
	}
	return o.Right.Validate(t)
}

func (o *Operation) String() string {
	return fmt.Sprintf("%s(%v, %v)", o.Op, o.Left, o.Right)
}

// All folds a constraint list into an AND intersection. Returns nil
// for an empty list.
func All(cs ...Constraint) Constraint {
	var root Constraint
	for _, c := range cs {
		if c == nil {
			continue
		}
		if root == nil {
			root = c
			continue
		}
		root = NewOperation(AND, root, c)
	}
	return root
}
