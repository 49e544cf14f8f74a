// Package borsh implements a schema driven Borsh codec.
//
// A Schema maps struct names to ordered field lists. Each field carries a Type
// from a closed set of kinds: fixed width integers, floats, booleans, strings,
// byte vectors, public keys, fixed arrays, vectors, options and nested
// structs. Values are encoded in declared field order with no padding.
//
// Decoded values use the following Go types:
//
//	U8..U64, I8..I64      uint8..uint64, int8..int64
//	U128..U512, I128..I512 *big.Int
//	F32, F64              float32, float64
//	Bool                  bool
//	String                string
//	Bytes, FixedBytes(n)  []byte
//	PublicKey             solana.PublicKey
//	PubkeyAsString        string (base58)
//	Array(t, n), Vec(t)   []interface{}
//	Option(t)             nil or the value of t
//	Struct(name)          *Object
package borsh

import (
	"fmt"
)

// Kind identifies how a Type is encoded.
type Kind uint8

const (
	KindU8 Kind = iota + 1
	KindU16
	KindU32
	KindU64
	KindU128
	KindU256
	KindU512
	KindI8
	KindI16
	KindI32
	KindI64
	KindI128
	KindI256
	KindI512
	KindF32
	KindF64
	KindBool
	KindString
	KindBytes
	KindFixedBytes
	KindPublicKey
	KindPubkeyAsString
	KindArray
	KindVec
	KindOption
	KindStruct
)

var kindNames = map[Kind]string{
	KindU8:             "u8",
	KindU16:            "u16",
	KindU32:            "u32",
	KindU64:            "u64",
	KindU128:           "u128",
	KindU256:           "u256",
	KindU512:           "u512",
	KindI8:             "i8",
	KindI16:            "i16",
	KindI32:            "i32",
	KindI64:            "i64",
	KindI128:           "i128",
	KindI256:           "i256",
	KindI512:           "i512",
	KindF32:            "f32",
	KindF64:            "f64",
	KindBool:           "bool",
	KindString:         "string",
	KindBytes:          "bytes",
	KindFixedBytes:     "fixedBytes",
	KindPublicKey:      "pubkey",
	KindPubkeyAsString: "pubkeyAsString",
	KindArray:          "array",
	KindVec:            "vec",
	KindOption:         "option",
	KindStruct:         "struct",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// integer returns the width in bytes and the signedness of an integer kind.
func (k Kind) integer() (width int, signed bool, ok bool) {
	switch k {
	case KindU8:
		return 1, false, true
	case KindU16:
		return 2, false, true
	case KindU32:
		return 4, false, true
	case KindU64:
		return 8, false, true
	case KindU128:
		return 16, false, true
	case KindU256:
		return 32, false, true
	case KindU512:
		return 64, false, true
	case KindI8:
		return 1, true, true
	case KindI16:
		return 2, true, true
	case KindI32:
		return 4, true, true
	case KindI64:
		return 8, true, true
	case KindI128:
		return 16, true, true
	case KindI256:
		return 32, true, true
	case KindI512:
		return 64, true, true
	default:
		return 0, false, false
	}
}

// Type describes the encoding of a single field.
type Type struct {
	Kind Kind

	// Elem is the element type of arrays, vectors and options.
	Elem *Type

	// Len is the element count of arrays and the size of fixed byte arrays.
	Len int

	// Name is the schema entry of a nested struct.
	Name string
}

var (
	U8             = Type{Kind: KindU8}
	U16            = Type{Kind: KindU16}
	U32            = Type{Kind: KindU32}
	U64            = Type{Kind: KindU64}
	U128           = Type{Kind: KindU128}
	U256           = Type{Kind: KindU256}
	U512           = Type{Kind: KindU512}
	I8             = Type{Kind: KindI8}
	I16            = Type{Kind: KindI16}
	I32            = Type{Kind: KindI32}
	I64            = Type{Kind: KindI64}
	I128           = Type{Kind: KindI128}
	I256           = Type{Kind: KindI256}
	I512           = Type{Kind: KindI512}
	F32            = Type{Kind: KindF32}
	F64            = Type{Kind: KindF64}
	Bool           = Type{Kind: KindBool}
	String         = Type{Kind: KindString}
	Bytes          = Type{Kind: KindBytes}
	PublicKey      = Type{Kind: KindPublicKey}
	PubkeyAsString = Type{Kind: KindPubkeyAsString}
)

// FixedBytes is a byte array of exactly n bytes, encoded without a length prefix.
func FixedBytes(n int) Type {
	return Type{Kind: KindFixedBytes, Len: n}
}

// Array is a sequence of exactly n elements, encoded without a length prefix.
func Array(elem Type, n int) Type {
	return Type{Kind: KindArray, Elem: &elem, Len: n}
}

// Vec is a sequence prefixed by its u32 element count.
func Vec(elem Type) Type {
	return Type{Kind: KindVec, Elem: &elem}
}

// Option is a one byte presence tag, followed by the value if present.
func Option(elem Type) Type {
	return Type{Kind: KindOption, Elem: &elem}
}

// Struct references the schema entry name.
func Struct(name string) Type {
	return Type{Kind: KindStruct, Name: name}
}

func (t Type) String() string {
	switch t.Kind {
	case KindFixedBytes:
		return fmt.Sprintf("[u8; %d]", t.Len)
	case KindArray:
		return fmt.Sprintf("[%s; %d]", t.Elem, t.Len)
	case KindVec:
		return fmt.Sprintf("vec<%s>", t.Elem)
	case KindOption:
		return fmt.Sprintf("option<%s>", t.Elem)
	case KindStruct:
		return t.Name
	default:
		return t.Kind.String()
	}
}
