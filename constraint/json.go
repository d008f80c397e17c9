package constraint

import (
	"bytes"
	"encoding/json"
	"fmt"

	"memscan/scantype"
)

// Wire format, for CLI and RPC consumers:
//
//	Constraint := {"op":"and"|"or"|"xor", "left":Constraint, "right":Constraint}
//	            | {"kind":<name>, "value":<literal?>}
//
// Numeric literals are JSON numbers or strings; byte array literals
// are hex strings. The literal is parsed against the scan type, which
// travels in the scan request rather than the tree.

type wireNode struct {
	Op    string          `json:"op,omitempty"`
	Left  json.RawMessage `json:"left,omitempty"`
	Right json.RawMessage `json:"right,omitempty"`

	Kind  string          `json:"kind,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// ParseJSON decodes a constraint tree from its wire format, resolving
// value literals against the given scan type
func ParseJSON(data []byte, t scantype.Type) (Constraint, error) {
	var node wireNode
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", scantype.ErrInvalidArguments, err)
	}

	if node.Op != "" {
		op, err := ParseOp(node.Op)
		if err != nil {
			return nil, err
		}
		if node.Left == nil || node.Right == nil {
			return nil, fmt.Errorf("%w: %q node missing left/right", scantype.ErrInvalidArguments, node.Op)
		}
		left, err := ParseJSON(node.Left, t)
		if err != nil {
			return nil, err
		}
		right, err := ParseJSON(node.Right, t)
		if err != nil {
			return nil, err
		}
		return NewOperation(op, left, right), nil
	}

	if node.Kind == "" {
		return nil, fmt.Errorf("%w: constraint node has neither op nor kind", scantype.ErrInvalidArguments)
	}
	kind, err := ParseKind(node.Kind)
	if err != nil {
		return nil, err
	}
	if node.Value == nil {
		return NewScan(kind), nil
	}
	value, err := parseLiteral(node.Value, t)
	if err != nil {
		return nil, err
	}
	return NewScanValue(kind, value), nil
}

func parseLiteral(raw json.RawMessage, t scantype.Type) (scantype.Value, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return scantype.ParseValue(t, s)
	}
	var num json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&num); err != nil {
		return scantype.Value{}, fmt.Errorf("%w: bad literal %s", scantype.ErrInvalidArguments, raw)
	}
	return scantype.ParseValue(t, num.String())
}

// MarshalJSON emits the leaf in wire format
func (s *Scan) MarshalJSON() ([]byte, error) {
	if !s.HasValue {
		return json.Marshal(struct {
			Kind string `json:"kind"`
		}{s.Kind.String()})
	}
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Value string `json:"value"`
	}{s.Kind.String(), s.Value.String()})
}

// MarshalJSON emits the interior node in wire format
func (o *Operation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string     `json:"op"`
		Left  Constraint `json:"left"`
		Right Constraint `json:"right"`
	}{o.Op.String(), o.Left, o.Right})
}
