// Package params owns the per-parameter type codec for the BLDS wire
// protocol. Every known parameter name maps to exactly one value kind; the
// mapping is fixed and total over the two namespaces, so an unknown name is
// a caller error caught before any I/O happens.
package params

import (
	"errors"
	"fmt"
	"sort"
)

// Namespace selects which parameter vocabulary a name is resolved against.
type Namespace uint8

const (
	// Server covers parameters of the BLDS itself and its recording.
	Server Namespace = iota + 1
	// Source covers parameters of the managed data source.
	Source
)

func (ns Namespace) String() string {
	switch ns {
	case Server:
		return "server"
	case Source:
		return "source"
	default:
		return fmt.Sprintf("namespace(%d)", uint8(ns))
	}
}

// Kind is the wire encoding of one parameter value.
type Kind uint8

const (
	KindFloat32 Kind = iota + 1
	KindUint32
	KindBool
	KindString
	KindFloat64Array
	KindConfigArray
)

func (k Kind) String() string {
	switch k {
	case KindFloat32:
		return "float32"
	case KindUint32:
		return "uint32"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindFloat64Array:
		return "float64-array"
	case KindConfigArray:
		return "config-array"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var ErrShortValue = errors.New("params: value shorter than its declared kind")

// UnknownParameterError indicates a name outside the fixed vocabulary for
// its namespace, or outside the accepted encode set for set commands. It is
// raised before anything touches the wire.
type UnknownParameterError struct {
	Namespace Namespace
	Name      string
}

func (e UnknownParameterError) Error() string {
	return fmt.Sprintf("params: unknown %s parameter %q", e.Namespace, e.Name)
}

var serverKinds = map[string]Kind{
	"save-file":          KindString,
	"save-directory":     KindString,
	"source-type":        KindString,
	"source-location":    KindString,
	"start-time":         KindString,
	"recording-length":   KindUint32,
	"read-interval":      KindUint32,
	"recording-position": KindFloat32,
	"recording-exists":   KindBool,
	"source-exists":      KindBool,
}

var sourceKinds = map[string]Kind{
	"gain":              KindFloat32,
	"adc-range":         KindFloat32,
	"sample-rate":       KindFloat32,
	"trigger":           KindString,
	"connect-time":      KindString,
	"start-time":        KindString,
	"source-type":       KindString,
	"device-type":       KindString,
	"state":             KindString,
	"location":          KindString,
	"has-analog-output": KindBool,
	"nchannels":         KindUint32,
	"plug":              KindUint32,
	"chip-id":           KindUint32,
	"read-interval":     KindUint32,
	"analog-output":     KindFloat64Array,
	"configuration":     KindConfigArray,
}

// The server only accepts writes to a subset of each vocabulary.
var serverWritable = map[string]struct{}{
	"save-file":        {},
	"save-directory":   {},
	"recording-length": {},
	"read-interval":    {},
}

var sourceWritable = map[string]struct{}{
	"trigger":       {},
	"adc-range":     {},
	"analog-output": {},
	"configuration": {},
	"plug":          {},
}

// KindOf resolves a parameter name to its wire kind.
func KindOf(ns Namespace, name string) (Kind, error) {
	table := serverKinds
	if ns == Source {
		table = sourceKinds
	}
	k, ok := table[name]
	if !ok {
		return 0, UnknownParameterError{Namespace: ns, Name: name}
	}
	return k, nil
}

// Writable reports whether name may be sent in a set/set-source command.
func Writable(ns Namespace, name string) bool {
	if ns == Source {
		_, ok := sourceWritable[name]
		return ok
	}
	_, ok := serverWritable[name]
	return ok
}

// Names returns the sorted vocabulary of a namespace.
func Names(ns Namespace) []string {
	table := serverKinds
	if ns == Source {
		table = sourceKinds
	}
	out := make([]string, 0, len(table))
	for name := range table {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
