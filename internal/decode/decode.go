// internal/decode/decode.go
package decode

import (
	"encoding/binary"
	"errors"
	"math"
)

// DataType is the interpretation applied to a register window.
type DataType string

const (
	Float32 DataType = "float32"
	Int32   DataType = "int32"
	Uint16  DataType = "uint16"
	Bool    DataType = "bool"
)

// ByteOrder is the byte arrangement applied before interpretation.
type ByteOrder string

const (
	Normal  ByteOrder = "normal"
	Swapped ByteOrder = "swapped"
	Reverse ByteOrder = "reverse"
)

// ErrShortInput is returned when a 32-bit type is given fewer than two registers.
var ErrShortInput = errors.New("decode: not enough registers for type")

// Known reports whether t is a supported data type.
func (t DataType) Known() bool {
	switch t {
	case Float32, Int32, Uint16, Bool:
		return true
	}
	return false
}

// Registers is the register count a type occupies by default.
func (t DataType) Registers() uint16 {
	switch t {
	case Float32, Int32:
		return 2
	}
	return 1
}

// Known reports whether o is a supported byte order.
func (o ByteOrder) Known() bool {
	switch o {
	case Normal, Swapped, Reverse:
		return true
	}
	return false
}

// Decode converts raw register words into a numeric value.
//
// Bytes are laid out big-endian per register (hi, lo), reordered according
// to o, then read as t. uint16 and bool look only at the first raw word and
// ignore the byte order. bool yields 1 or 0. An unknown type yields NaN.
func Decode(words []uint16, t DataType, o ByteOrder) (float64, error) {
	switch t {
	case Uint16:
		if len(words) == 0 {
			return 0, ErrShortInput
		}
		return float64(words[0]), nil

	case Bool:
		if len(words) == 0 {
			return 0, ErrShortInput
		}
		if words[0] != 0 {
			return 1, nil
		}
		return 0, nil

	case Float32, Int32:
		if len(words) < 2 {
			return 0, ErrShortInput
		}
		b := reorder(bytesOf(words), o)
		u := binary.BigEndian.Uint32(b[:4])
		if t == Float32 {
			return float64(math.Float32frombits(u)), nil
		}
		return float64(int32(u)), nil
	}

	return math.NaN(), nil
}

// Words unpacks a big-endian register payload.
func Words(raw []byte) []uint16 {
	n := len(raw) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
	}
	return out
}

func bytesOf(words []uint16) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		out[2*i] = byte(w >> 8)
		out[2*i+1] = byte(w)
	}
	return out
}

// reorder applies the byte order. Swapped exchanges the two 16-bit halves
// and only applies to a 4-byte window; anything else passes through.
func reorder(b []byte, o ByteOrder) []byte {
	switch o {
	case Swapped:
		if len(b) == 4 {
			return []byte{b[2], b[3], b[0], b[1]}
		}
	case Reverse:
		out := make([]byte, len(b))
		for i := range b {
			out[i] = b[len(b)-1-i]
		}
		return out
	}
	return b
}
