// Package value defines the dynamically-typed runtime values the VM
// operates on: a small tagged union covering decimals, booleans, strings,
// lists, function references, and the opaque domain handle kinds a host
// program may hand back across the host-function boundary.
package value

import (
	"fmt"
	"strings"
)

// Kind identifies which alternative of Value is populated.
type Kind byte

const (
	// Decimal is a 64-bit float, the engine's only numeric kind.
	Decimal Kind = iota
	// Null is the absence of a value.
	Null
	// Bool is a boolean.
	Bool
	// String is an owned, heap-allocated string.
	String
	// Function is an index into the translator's internal function table.
	Function
	// List is an owned, heap-allocated ordered sequence of Values.
	List
	// Player is an opaque handle into host-managed player state.
	Player
	// Inventory is an opaque handle into host-managed inventory state.
	Inventory
	// Card is an opaque handle identifying a single card.
	Card
)

func (k Kind) String() string {
	switch k {
	case Decimal:
		return "Decimal"
	case Null:
		return "Null"
	case Bool:
		return "Bool"
	case String:
		return "String"
	case Function:
		return "Function"
	case List:
		return "List"
	case Player:
		return "Player"
	case Inventory:
		return "Inventory"
	case Card:
		return "Card"
	default:
		return "Unknown"
	}
}

// Owned reports whether values of this kind carry heap storage that must
// be cloned on Push and released exactly once when overwritten or popped.
func (k Kind) Owned() bool {
	return k == String || k == List
}

// Value is the engine's single dynamic value representation. Exactly one
// field is meaningful, selected by Kind; inline kinds (Decimal, Bool,
// Null, Function, and the opaque handle kinds) copy by value with no
// further action needed. Owned kinds (String, List) must be cloned with
// Clone before being pushed onto a new stack slot, and must be released
// with Release exactly once when that slot is overwritten or popped.
type Value struct {
	Kind Kind

	decimal float64
	boolean bool
	str     string
	list    []Value
	handle  uint64 // Function table index, or Player/Inventory/Card handle id
}

// NullValue is the singleton null value.
var NullValue = Value{Kind: Null}

// NewDecimal constructs a Decimal value.
func NewDecimal(v float64) Value { return Value{Kind: Decimal, decimal: v} }

// NewBool constructs a Bool value.
func NewBool(v bool) Value { return Value{Kind: Bool, boolean: v} }

// NewString constructs an owned String value.
func NewString(v string) Value { return Value{Kind: String, str: v} }

// NewList constructs an owned List value from already-owned elements.
func NewList(elems []Value) Value { return Value{Kind: List, list: elems} }

// NewFunction constructs a Function value referring to the function table
// entry at idx.
func NewFunction(idx uint64) Value { return Value{Kind: Function, handle: idx} }

// NewPlayer constructs an opaque Player handle.
func NewPlayer(id uint64) Value { return Value{Kind: Player, handle: id} }

// NewInventory constructs an opaque Inventory handle.
func NewInventory(id uint64) Value { return Value{Kind: Inventory, handle: id} }

// NewCard constructs an opaque Card handle.
func NewCard(id uint64) Value { return Value{Kind: Card, handle: id} }

// AsDecimal returns the numeric value, coercing Bool (1.0/0.0) and
// numeric String the way the reference engine's get_decimal does.
func (v Value) AsDecimal() (float64, bool) {
	switch v.Kind {
	case Decimal:
		return v.decimal, true
	case Bool:
		if v.boolean {
			return 1.0, true
		}
		return 0.0, true
	case String:
		var f float64
		if _, err := fmt.Sscanf(v.str, "%g", &f); err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsBool returns the boolean value. Only Bool values are boolean.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != Bool {
		return false, false
	}
	return v.boolean, true
}

// AsString returns the string contents. Only String values carry one.
func (v Value) AsString() (string, bool) {
	if v.Kind != String {
		return "", false
	}
	return v.str, true
}

// AsList returns the element slice. Only List values carry one.
func (v Value) AsList() ([]Value, bool) {
	if v.Kind != List {
		return nil, false
	}
	return v.list, true
}

// AsFunctionIndex returns the function table index. Only Function values
// carry one.
func (v Value) AsFunctionIndex() (uint64, bool) {
	if v.Kind != Function {
		return 0, false
	}
	return v.handle, true
}

// AsHandle returns the opaque handle id for Player/Inventory/Card kinds.
func (v Value) AsHandle() (uint64, bool) {
	switch v.Kind {
	case Player, Inventory, Card:
		return v.handle, true
	default:
		return 0, false
	}
}

// Clone deep-copies an owned value. Inline values are returned unchanged;
// cloning them is always safe since there is no shared storage to alias.
func (v Value) Clone() Value {
	switch v.Kind {
	case String:
		return NewString(v.str)
	case List:
		cloned := make([]Value, len(v.list))
		for i, e := range v.list {
			cloned[i] = e.Clone()
		}
		return NewList(cloned)
	default:
		return v
	}
}

// Release drops any storage owned by v. Inline kinds are no-ops; the Go
// garbage collector reclaims the backing arrays for String/List once
// their last reference is dropped, so Release exists to make the
// ownership discipline explicit at call sites rather than to free memory
// by hand.
func (v Value) Release() {}

// Equal reports value equality for same-kind operands. Differently-kinded
// operands are never equal, matching Compare's same-type requirement.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case Decimal:
		return v.decimal == other.decimal
	case Bool:
		return v.boolean == other.boolean
	case Null:
		return true
	case String:
		return v.str == other.str
	case Function:
		return v.handle == other.handle
	case Player, Inventory, Card:
		return v.handle == other.handle
	case List:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare orders two same-kind values. String ordering is lexicographic
// byte order; Decimal uses standard float ordering; Bool treats false <
// true; Null values are always equal to one another. Comparing operands
// of different kinds, or of a kind with no defined ordering (Function,
// List, Player, Inventory, Card), reports ok=false.
func (v Value) Compare(other Value) (cmp int, ok bool) {
	if v.Kind != other.Kind {
		return 0, false
	}
	switch v.Kind {
	case Decimal:
		switch {
		case v.decimal < other.decimal:
			return -1, true
		case v.decimal > other.decimal:
			return 1, true
		default:
			return 0, true
		}
	case String:
		return strings.Compare(v.str, other.str), true
	case Bool:
		switch {
		case v.boolean == other.boolean:
			return 0, true
		case !v.boolean && other.boolean:
			return -1, true
		default:
			return 1, true
		}
	case Null:
		return 0, true
	default:
		return 0, false
	}
}

// String renders a Value for diagnostics and the println host function.
func (v Value) String() string {
	switch v.Kind {
	case Decimal:
		return fmt.Sprintf("%g", v.decimal)
	case Bool:
		return fmt.Sprintf("%t", v.boolean)
	case Null:
		return "null"
	case String:
		return v.str
	case Function:
		return fmt.Sprintf("<fn %d>", v.handle)
	case List:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Player, Inventory, Card:
		return fmt.Sprintf("<%s %d>", v.Kind, v.handle)
	default:
		return "<invalid>"
	}
}
