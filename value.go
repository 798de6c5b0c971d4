package treedb

import (
	"encoding/json"
	"fmt"
)

type Op int

const (
	OpNone   Op = 0
	OpSet    Op = 1
	OpDelete Op = 2
)

func (v Op) String() string {
	switch v {
	case OpNone:
		return "none"
	case OpSet:
		return "set"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("invalid op %d", int(v))
	}
}

// Value is a single write in a batch: either a deletion marker that removes
// the path and everything below it, or a payload to store at the path.
//
// Set(nil) stores a null payload and is not a deletion.
type Value struct {
	op      Op
	payload any
}

func Set(payload any) Value {
	return Value{op: OpSet, payload: payload}
}

func Delete() Value {
	return Value{op: OpDelete}
}

func (v Value) Op() Op {
	return v.op
}

func (v Value) IsDelete() bool {
	return v.op == OpDelete
}

// Payload returns the value to store. Always nil for deletion markers.
func (v Value) Payload() any {
	return v.payload
}

func (v Value) String() string {
	switch v.op {
	case OpDelete:
		return "<delete>"
	case OpSet:
		raw, err := json.Marshal(v.payload)
		if err != nil {
			return fmt.Sprintf("%v", v.payload)
		}
		return string(raw)
	default:
		return "<none>"
	}
}
