package editor

import (
	"errors"
	"strconv"
)

// Enabler is an interface that defines a single Enabled() method, which is used
// by the UI to check if UI Action/Bool/Int etc. is enabled or not.
type Enabler interface {
	Enabled() bool
}

var ErrNoAction = errors.New("no action")

// Action

type (
	// Action describes a user action that can be performed on the model, which
	// can be initiated by calling the Do() method. It is usually initiated by a
	// button press or a menu item. Action advertises whether it is enabled, so
	// UI can e.g. gray out buttons when the underlying action is not allowed.
	// Enabled is advisory: Do always runs the underlying Doer, which validates
	// its own preconditions and returns an error (and raises an alert) when it
	// rejects the action.
	Action struct {
		doer Doer
	}

	// Doer is an interface that defines a single Do() method, which is called
	// when an action is performed.
	Doer interface {
		Do() error
	}
)

func MakeAction(doer Doer) Action { return Action{doer: doer} }

func (a Action) Do() error {
	if a.doer == nil {
		return ErrNoAction
	}
	return a.doer.Do()
}

func (a Action) Enabled() bool {
	if a.doer == nil {
		return false // no doer, not allowed
	}
	e, ok := a.doer.(Enabler)
	if !ok {
		return true // not enabler, always allowed
	}
	return e.Enabled()
}

// Bool

type (
	Bool struct {
		value BoolValue
	}

	BoolValue interface {
		Value() bool
		SetValue(bool)
	}
)

func MakeBool(value BoolValue) Bool { return Bool{value: value} }
func (v Bool) Toggle()              { v.SetValue(!v.Value()) }

func (v Bool) SetValue(value bool) (changed bool) {
	if !v.Enabled() || v.Value() == value {
		return false
	}
	v.value.SetValue(value)
	return true
}

func (v Bool) Value() bool {
	if v.value == nil {
		return false
	}
	return v.value.Value()
}

func (v Bool) Enabled() bool {
	if v.value == nil {
		return false
	}
	e, ok := v.value.(Enabler)
	if !ok {
		return true
	}
	return e.Enabled()
}

// Int

type (
	// Int represents an integer value in the model e.g. tempo, bar count, etc.
	// It is a wrapper around an IntValue interface that provides methods to
	// manipulate the value, but Int guard that all changes are within the
	// range of the underlying IntValue implementation and that SetValue is
	// not called when the value is unchanged.
	Int struct {
		value IntValue
	}

	IntValue interface {
		Value() int
		SetValue(int) (changed bool)
		Range() RangeInclusive
	}
)

func MakeInt(value IntValue) Int { return Int{value} }

func (v Int) Add(delta int) (changed bool) {
	return v.SetValue(v.Value() + delta)
}

func (v Int) SetValue(value int) (changed bool) {
	if v.value == nil {
		return false
	}
	r := v.Range()
	value = r.Clamp(value)
	if value == v.Value() || value < r.Min || value > r.Max {
		return false
	}
	return v.value.SetValue(value)
}

func (v Int) Range() RangeInclusive {
	if v.value == nil {
		return RangeInclusive{0, 0}
	}
	return v.value.Range()
}

func (v Int) Value() int {
	if v.value == nil {
		return 0
	}
	return v.value.Value()
}

func (v Int) String() string {
	return strconv.Itoa(v.Value())
}

// String

type (
	String struct {
		value StringValue
	}

	StringValue interface {
		Value() string
		SetValue(string) (changed bool)
	}
)

func MakeString(value StringValue) String { return String{value: value} }

func (v String) SetValue(value string) (changed bool) {
	if v.value == nil || v.value.Value() == value {
		return false
	}
	return v.value.SetValue(value)
}

func (v String) Value() string {
	if v.value == nil {
		return ""
	}
	return v.value.Value()
}

type RangeInclusive struct{ Min, Max int }

func (r RangeInclusive) Clamp(value int) int { return max(min(value, r.Max), r.Min) }
