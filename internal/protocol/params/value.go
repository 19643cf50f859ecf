package params

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// ConfigRecordSize is the wire size of one electrode configuration record:
// uint32 index, uint32 xpos, uint16 x, uint32 ypos, uint16 y, uint8 label.
const ConfigRecordSize = 17

// ConfigRecord is one fixed-layout record of a hidens electrode
// configuration array.
type ConfigRecord struct {
	Index uint32
	Xpos  uint32
	X     uint16
	Ypos  uint32
	Y     uint16
	Label uint8
}

// Value is one decoded parameter value. Kind selects which slot is set.
type Value struct {
	Kind    Kind
	Float32 float32
	Uint32  uint32
	Bool    bool
	String  string
	Floats  []float64
	Config  []ConfigRecord
}

func Float32Value(v float32) Value { return Value{Kind: KindFloat32, Float32: v} }
func Uint32Value(v uint32) Value   { return Value{Kind: KindUint32, Uint32: v} }
func BoolValue(v bool) Value       { return Value{Kind: KindBool, Bool: v} }
func StringValue(v string) Value   { return Value{Kind: KindString, String: v} }

func Float64ArrayValue(v []float64) Value {
	out := make([]float64, len(v))
	copy(out, v)
	return Value{Kind: KindFloat64Array, Floats: out}
}

func ConfigArrayValue(v []ConfigRecord) Value {
	out := make([]ConfigRecord, len(v))
	copy(out, v)
	return Value{Kind: KindConfigArray, Config: out}
}

func (v Value) Format() string {
	switch v.Kind {
	case KindFloat32:
		return fmt.Sprintf("%g", v.Float32)
	case KindUint32:
		return fmt.Sprintf("%d", v.Uint32)
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindString:
		return v.String
	case KindFloat64Array:
		parts := make([]string, len(v.Floats))
		for i, f := range v.Floats {
			parts[i] = fmt.Sprintf("%g", f)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindConfigArray:
		return fmt.Sprintf("configuration(%d records)", len(v.Config))
	default:
		return fmt.Sprintf("value(%s)", v.Kind)
	}
}

// Encode serializes value for a set/set-source command. Only names in the
// writable subset of the namespace are accepted; everything else fails
// before any network I/O.
func Encode(ns Namespace, name string, value Value) ([]byte, error) {
	if !Writable(ns, name) {
		return nil, UnknownParameterError{Namespace: ns, Name: name}
	}
	kind, err := KindOf(ns, name)
	if err != nil {
		return nil, err
	}
	if value.Kind != kind {
		return nil, fmt.Errorf("params: %s parameter %q wants %s, got %s",
			ns, name, kind, value.Kind)
	}
	return encodeValue(value), nil
}

func encodeValue(value Value) []byte {
	switch value.Kind {
	case KindFloat32:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, math.Float32bits(value.Float32))
		return buf
	case KindUint32:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, value.Uint32)
		return buf
	case KindBool:
		if value.Bool {
			return []byte{1}
		}
		return []byte{0}
	case KindString:
		return []byte(value.String)
	case KindFloat64Array:
		buf := make([]byte, 4+8*len(value.Floats))
		binary.LittleEndian.PutUint32(buf[0:4], uint32(len(value.Floats)))
		for i, f := range value.Floats {
			binary.LittleEndian.PutUint64(buf[4+8*i:], math.Float64bits(f))
		}
		return buf
	case KindConfigArray:
		buf := make([]byte, 4+ConfigRecordSize*len(value.Config))
		binary.LittleEndian.PutUint32(buf[0:4], uint32(len(value.Config)))
		for i, rec := range value.Config {
			off := 4 + ConfigRecordSize*i
			binary.LittleEndian.PutUint32(buf[off:], rec.Index)
			binary.LittleEndian.PutUint32(buf[off+4:], rec.Xpos)
			binary.LittleEndian.PutUint16(buf[off+8:], rec.X)
			binary.LittleEndian.PutUint32(buf[off+10:], rec.Ypos)
			binary.LittleEndian.PutUint16(buf[off+14:], rec.Y)
			buf[off+16] = rec.Label
		}
		return buf
	default:
		return nil
	}
}

// Decode deserializes a get/get-source reply payload for the named
// parameter. Scalars read their fixed width from the front of buf; arrays
// read a uint32 element count and then exactly that many elements.
func Decode(ns Namespace, name string, buf []byte) (Value, error) {
	kind, err := KindOf(ns, name)
	if err != nil {
		return Value{}, err
	}
	switch kind {
	case KindFloat32:
		if len(buf) < 4 {
			return Value{}, ErrShortValue
		}
		return Float32Value(math.Float32frombits(binary.LittleEndian.Uint32(buf[:4]))), nil
	case KindUint32:
		if len(buf) < 4 {
			return Value{}, ErrShortValue
		}
		return Uint32Value(binary.LittleEndian.Uint32(buf[:4])), nil
	case KindBool:
		if len(buf) < 1 {
			return Value{}, ErrShortValue
		}
		return BoolValue(buf[0] != 0), nil
	case KindString:
		return StringValue(string(buf)), nil
	case KindFloat64Array:
		if len(buf) < 4 {
			return Value{}, ErrShortValue
		}
		count := int(binary.LittleEndian.Uint32(buf[:4]))
		body := buf[4:]
		if len(body) < 8*count {
			return Value{}, ErrShortValue
		}
		floats := make([]float64, count)
		for i := range floats {
			floats[i] = math.Float64frombits(binary.LittleEndian.Uint64(body[8*i:]))
		}
		return Value{Kind: KindFloat64Array, Floats: floats}, nil
	case KindConfigArray:
		if len(buf) < 4 {
			return Value{}, ErrShortValue
		}
		count := int(binary.LittleEndian.Uint32(buf[:4]))
		body := buf[4:]
		if len(body) < ConfigRecordSize*count {
			return Value{}, ErrShortValue
		}
		records := make([]ConfigRecord, count)
		for i := range records {
			off := ConfigRecordSize * i
			records[i] = ConfigRecord{
				Index: binary.LittleEndian.Uint32(body[off:]),
				Xpos:  binary.LittleEndian.Uint32(body[off+4:]),
				X:     binary.LittleEndian.Uint16(body[off+8:]),
				Ypos:  binary.LittleEndian.Uint32(body[off+10:]),
				Y:     binary.LittleEndian.Uint16(body[off+14:]),
				Label: body[off+16],
			}
		}
		return Value{Kind: KindConfigArray, Config: records}, nil
	default:
		return Value{}, UnknownParameterError{Namespace: ns, Name: name}
	}
}
