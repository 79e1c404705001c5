package node

import (
	"strings"

	"github.com/joshuapare/upkflags/upk"
)

// FunctionKind is how a function presents itself.
type FunctionKind int

const (
	KindFunction FunctionKind = iota
	KindEvent
	KindOperator
	KindDelegate
)

func (k FunctionKind) String() string {
	switch k {
	case KindEvent:
		return "Event"
	case KindOperator:
		return "Operator"
	case KindDelegate:
		return "Delegate"
	}
	return "Function"
}

// ClassifyFunction derives the kind from the current function flags.
// Delegate wins over Operator, which wins over Event.
func ClassifyFunction(flags uint64) FunctionKind {
	switch {
	case flags&FuncDelegate != 0:
		return KindDelegate
	case flags&FuncOperator != 0:
		return KindOperator
	case flags&FuncEvent != 0:
		return KindEvent
	}
	return KindFunction
}

// PropertyKind is the role a property plays.
type PropertyKind int

const (
	KindVariable PropertyKind = iota
	KindParameter
	KindLocal
	KindReturn
	KindTemplate
)

func (k PropertyKind) String() string {
	switch k {
	case KindParameter:
		return "Parameter"
	case KindLocal:
		return "Local"
	case KindReturn:
		return "Return"
	case KindTemplate:
		return "Template"
	}
	return "Variable"
}

// ClassifyProperty derives the role from the current property flags and
// the property's outer object.
func ClassifyProperty(flags uint64, outer *upk.Object) PropertyKind {
	switch {
	case flags&PropReturnParm != 0:
		return KindReturn
	case flags&PropParm != 0:
		return KindParameter
	case outer != nil && strings.EqualFold(outer.ClassName, "Function"):
		return KindLocal
	case outer != nil && strings.EqualFold(outer.ClassName, "ArrayProperty"):
		return KindTemplate
	}
	return KindVariable
}
