package borsh

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

var (
	// ErrSchema is returned for unknown struct names, unsupported kinds and
	// values whose Go type does not match their declared Type.
	ErrSchema = errors.New("borsh: schema error")

	// ErrTruncatedBuffer is returned when the input ends in the middle of a field.
	ErrTruncatedBuffer = errors.New("borsh: truncated buffer")

	// ErrLengthMismatch is returned when a value does not have the length of
	// its fixed size declaration.
	ErrLengthMismatch = errors.New("borsh: length mismatch")
)

// Field is a named, typed struct member.
type Field struct {
	Name string
	Type Type
}

// Schema maps struct names to their ordered fields.
type Schema map[string][]Field

// Validate checks that every nested struct reference resolves and that every
// fixed size declaration is non-negative.
func (s Schema) Validate() error {
	for name, fields := range s {
		for _, f := range fields {
			if err := s.validateType(f.Type); err != nil {
				return errors.Wrapf(err, "%s.%s", name, f.Name)
			}
		}
	}
	return nil
}

func (s Schema) validateType(t Type) error {
	switch t.Kind {
	case KindArray, KindVec, KindOption:
		if t.Elem == nil {
			return errors.Wrapf(ErrSchema, "%s without element type", t.Kind)
		}
		if t.Len < 0 {
			return errors.Wrapf(ErrSchema, "negative length %d", t.Len)
		}
		return s.validateType(*t.Elem)
	case KindFixedBytes:
		if t.Len < 0 {
			return errors.Wrapf(ErrSchema, "negative length %d", t.Len)
		}
		return nil
	case KindStruct:
		if _, ok := s[t.Name]; !ok {
			return errors.Wrapf(ErrSchema, "%s is missing in schema", t.Name)
		}
		return nil
	default:
		if _, ok := kindNames[t.Kind]; !ok {
			return errors.Wrapf(ErrSchema, "unsupported %s", t.Kind)
		}
		return nil
	}
}

func (s Schema) fields(name string) ([]Field, error) {
	fields, ok := s[name]
	if !ok {
		return nil, errors.Wrapf(ErrSchema, "%s is missing in schema", name)
	}
	return fields, nil
}

// FieldValue is a named value of an Object.
type FieldValue struct {
	Name  string
	Value interface{}
}

// Object is a struct value, with fields in schema order.
type Object struct {
	Type   string
	Fields []FieldValue
}

// NewObject returns an Object of the schema entry name.
func NewObject(name string, fields ...FieldValue) *Object {
	return &Object{Type: name, Fields: fields}
}

// Get returns the value of the named field.
func (o *Object) Get(name string) (interface{}, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces or appends the value of the named field.
func (o *Object) Set(name string, value interface{}) *Object {
	for i := range o.Fields {
		if o.Fields[i].Name == name {
			o.Fields[i].Value = value
			return o
		}
	}
	o.Fields = append(o.Fields, FieldValue{Name: name, Value: value})
	return o
}

func get[T any](o *Object, name string) (T, error) {
	var zero T

	v, ok := o.Get(name)
	if !ok {
		return zero, errors.Wrapf(ErrSchema, "%s has no field %s", o.Type, name)
	}

	typed, ok := v.(T)
	if !ok {
		return zero, errors.Wrapf(ErrSchema, "%s.%s is %T, not %T", o.Type, name, v, zero)
	}
	return typed, nil
}

func (o *Object) Uint8(name string) (uint8, error)   { return get[uint8](o, name) }
func (o *Object) Uint16(name string) (uint16, error) { return get[uint16](o, name) }
func (o *Object) Uint32(name string) (uint32, error) { return get[uint32](o, name) }
func (o *Object) Uint64(name string) (uint64, error) { return get[uint64](o, name) }
func (o *Object) Int64(name string) (int64, error)   { return get[int64](o, name) }
func (o *Object) Big(name string) (*big.Int, error)  { return get[*big.Int](o, name) }
func (o *Object) Bool(name string) (bool, error)     { return get[bool](o, name) }
func (o *Object) String(name string) (string, error) { return get[string](o, name) }
func (o *Object) Bytes(name string) ([]byte, error)  { return get[[]byte](o, name) }

func (o *Object) PublicKey(name string) (solana.PublicKey, error) {
	return get[solana.PublicKey](o, name)
}

func (o *Object) Object(name string) (*Object, error) {
	return get[*Object](o, name)
}

func (o *Object) Slice(name string) ([]interface{}, error) {
	return get[[]interface{}](o, name)
}

// IsNone reports whether the named option field is absent.
func (o *Object) IsNone(name string) bool {
	v, ok := o.Get(name)
	return !ok || v == nil
}

// View reads typed fields of an Object, keeping the first failure. It lets
// decoders convert an Object into a concrete type without checking every
// access.
type View struct {
	o   *Object
	err error
}

func (o *Object) View() *View {
	return &View{o: o}
}

// Err returns the first failed access, if any.
func (v *View) Err() error {
	return v.err
}

func viewGet[T any](v *View, name string) T {
	var zero T
	if v.err != nil {
		return zero
	}

	val, err := get[T](v.o, name)
	if err != nil {
		v.err = err
	}
	return val
}

func (v *View) Uint8(name string) uint8                { return viewGet[uint8](v, name) }
func (v *View) Uint16(name string) uint16              { return viewGet[uint16](v, name) }
func (v *View) Uint32(name string) uint32              { return viewGet[uint32](v, name) }
func (v *View) Uint64(name string) uint64              { return viewGet[uint64](v, name) }
func (v *View) Bool(name string) bool                  { return viewGet[bool](v, name) }
func (v *View) String(name string) string              { return viewGet[string](v, name) }
func (v *View) Bytes(name string) []byte               { return viewGet[[]byte](v, name) }
func (v *View) PublicKey(name string) solana.PublicKey { return viewGet[solana.PublicKey](v, name) }
func (v *View) Object(name string) *Object             { return viewGet[*Object](v, name) }
func (v *View) Slice(name string) []interface{}        { return viewGet[[]interface{}](v, name) }

// Optional returns the value of an option field, or nil if it is absent.
func (v *View) Optional(name string) interface{} {
	if v.err != nil {
		return nil
	}

	val, ok := v.o.Get(name)
	if !ok {
		v.err = errors.Wrapf(ErrSchema, "%s has no field %s", v.o.Type, name)
		return nil
	}
	return val
}
