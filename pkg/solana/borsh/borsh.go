package borsh

import (
	"math/big"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/binary"
)

// Serialize encodes the object using its schema entry.
func Serialize(schema Schema, o *Object) ([]byte, error) {
	w := NewWriter()
	if err := SerializeTo(w, schema, o); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// SerializeTo encodes the object into w.
func SerializeTo(w *Writer, schema Schema, o *Object) error {
	if o == nil {
		return errors.Wrap(ErrSchema, "nil object")
	}

	fields, err := schema.fields(o.Type)
	if err != nil {
		return err
	}

	for _, f := range fields {
		v, ok := o.Get(f.Name)
		if !ok && f.Type.Kind != KindOption {
			return errors.Wrapf(ErrSchema, "%s is missing field %s", o.Type, f.Name)
		}

		if err := writeValue(w, schema, f.Type, v); err != nil {
			return errors.Wrapf(err, "%s.%s", o.Type, f.Name)
		}
	}

	return nil
}

// Deserialize decodes an object of the schema entry name from the start of b.
// Bytes after the object are ignored, since account data is commonly padded
// beyond its encoded contents.
func Deserialize(schema Schema, name string, b []byte) (*Object, error) {
	return DeserializeFrom(NewReader(b), schema, name)
}

// DeserializeFrom decodes an object of the schema entry name from r.
func DeserializeFrom(r *Reader, schema Schema, name string) (*Object, error) {
	fields, err := schema.fields(name)
	if err != nil {
		return nil, err
	}

	o := &Object{
		Type:   name,
		Fields: make([]FieldValue, 0, len(fields)),
	}
	for _, f := range fields {
		v, err := readValue(r, schema, f.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "%s.%s", name, f.Name)
		}
		o.Fields = append(o.Fields, FieldValue{Name: f.Name, Value: v})
	}

	return o, nil
}

func writeValue(w *Writer, schema Schema, t Type, v interface{}) error {
	if width, signed, ok := t.Kind.integer(); ok {
		n, err := toNumber(v, width, signed)
		if err != nil {
			return err
		}
		return w.WriteNumber(n)
	}

	switch t.Kind {
	case KindF32:
		f, ok := v.(float32)
		if !ok {
			return mismatch(t, v)
		}
		w.WriteF32(f)
	case KindF64:
		f, ok := v.(float64)
		if !ok {
			return mismatch(t, v)
		}
		w.WriteF64(f)
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return mismatch(t, v)
		}
		w.WriteBool(b)
	case KindString:
		s, ok := v.(string)
		if !ok {
			return mismatch(t, v)
		}
		return w.WriteString(s)
	case KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return mismatch(t, v)
		}
		return w.WriteBytes(b)
	case KindFixedBytes:
		b, ok := v.([]byte)
		if !ok {
			return mismatch(t, v)
		}
		if len(b) != t.Len {
			return errors.Wrapf(ErrLengthMismatch, "expected %d bytes, got %d", t.Len, len(b))
		}
		w.WriteFixed(b)
	case KindPublicKey:
		pub, err := toPublicKey(v)
		if err != nil {
			return err
		}
		w.WriteFixed(pub[:])
	case KindPubkeyAsString:
		s, ok := v.(string)
		if !ok {
			return mismatch(t, v)
		}
		pub, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return errors.Wrapf(ErrSchema, "%v", err)
		}
		w.WriteFixed(pub[:])
	case KindArray:
		items, ok := v.([]interface{})
		if !ok {
			return mismatch(t, v)
		}
		if len(items) != t.Len {
			return errors.Wrapf(ErrLengthMismatch, "expected %d elements, got %d", t.Len, len(items))
		}
		for i, item := range items {
			if err := writeValue(w, schema, *t.Elem, item); err != nil {
				return errors.Wrapf(err, "[%d]", i)
			}
		}
	case KindVec:
		items, ok := v.([]interface{})
		if !ok && v != nil {
			return mismatch(t, v)
		}
		if err := w.WriteLength(len(items)); err != nil {
			return err
		}
		for i, item := range items {
			if err := writeValue(w, schema, *t.Elem, item); err != nil {
				return errors.Wrapf(err, "[%d]", i)
			}
		}
	case KindOption:
		if v == nil {
			w.WriteU8(0)
			return nil
		}
		w.WriteU8(1)
		return writeValue(w, schema, *t.Elem, v)
	case KindStruct:
		o, ok := v.(*Object)
		if !ok {
			return mismatch(t, v)
		}
		if o.Type != t.Name {
			return errors.Wrapf(ErrSchema, "expected %s, got %s", t.Name, o.Type)
		}
		return SerializeTo(w, schema, o)
	default:
		return errors.Wrapf(ErrSchema, "unsupported %s", t.Kind)
	}

	return nil
}

// ReadValue decodes a single value of type t from r. Nested structs resolve
// against schema.
func ReadValue(r *Reader, schema Schema, t Type) (interface{}, error) {
	return readValue(r, schema, t)
}

func readValue(r *Reader, schema Schema, t Type) (interface{}, error) {
	switch t.Kind {
	case KindU8:
		return r.ReadU8()
	case KindU16:
		return r.ReadU16()
	case KindU32:
		return r.ReadU32()
	case KindU64:
		return r.ReadU64()
	case KindI8:
		return r.ReadI8()
	case KindI16:
		return r.ReadI16()
	case KindI32:
		return r.ReadI32()
	case KindI64:
		return r.ReadI64()
	case KindU128, KindU256, KindU512, KindI128, KindI256, KindI512:
		width, signed, _ := t.Kind.integer()
		return r.ReadBig(width, signed)
	case KindF32:
		return r.ReadF32()
	case KindF64:
		return r.ReadF64()
	case KindBool:
		return r.ReadBool()
	case KindString:
		return r.ReadString()
	case KindBytes:
		return r.ReadBytes()
	case KindFixedBytes:
		return r.ReadFixed(t.Len)
	case KindPublicKey, KindPubkeyAsString:
		raw, err := r.ReadFixed(32)
		if err != nil {
			return nil, err
		}
		pub, _ := solana.PublicKeyFromBytes(raw)
		if t.Kind == KindPubkeyAsString {
			return base58.Encode(raw), nil
		}
		return pub, nil
	case KindArray:
		return readItems(r, schema, *t.Elem, t.Len)
	case KindVec:
		n, err := r.ReadLength()
		if err != nil {
			return nil, err
		}
		return readItems(r, schema, *t.Elem, n)
	case KindOption:
		present, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		switch present {
		case 0:
			return nil, nil
		case 1:
			return readValue(r, schema, *t.Elem)
		default:
			return nil, errors.Wrapf(ErrSchema, "invalid option tag %d", present)
		}
	case KindStruct:
		return DeserializeFrom(r, schema, t.Name)
	default:
		return nil, errors.Wrapf(ErrSchema, "unsupported %s", t.Kind)
	}
}

func readItems(r *Reader, schema Schema, elem Type, n int) ([]interface{}, error) {
	// Every element occupies at least one byte, except for empty structs.
	capacity := n
	if capacity > r.Remaining() {
		capacity = r.Remaining()
	}

	items := make([]interface{}, 0, capacity)
	for i := 0; i < n; i++ {
		item, err := readValue(r, schema, elem)
		if err != nil {
			return nil, errors.Wrapf(err, "[%d]", i)
		}
		items = append(items, item)
	}
	return items, nil
}

func toNumber(v interface{}, width int, signed bool) (binary.Number, error) {
	n := binary.Number{Width: width, Signed: signed}

	switch x := v.(type) {
	case uint8:
		n.Value = new(big.Int).SetUint64(uint64(x))
	case uint16:
		n.Value = new(big.Int).SetUint64(uint64(x))
	case uint32:
		n.Value = new(big.Int).SetUint64(uint64(x))
	case uint64:
		n.Value = new(big.Int).SetUint64(x)
	case uint:
		n.Value = new(big.Int).SetUint64(uint64(x))
	case int8:
		n.Value = big.NewInt(int64(x))
	case int16:
		n.Value = big.NewInt(int64(x))
	case int32:
		n.Value = big.NewInt(int64(x))
	case int64:
		n.Value = big.NewInt(x)
	case int:
		n.Value = big.NewInt(int64(x))
	case *big.Int:
		if x == nil {
			return n, errors.Wrap(ErrSchema, "nil integer")
		}
		n.Value = x
	default:
		return n, errors.Wrapf(ErrSchema, "%T is not an integer", v)
	}

	return n, nil
}

func toPublicKey(v interface{}) (solana.PublicKey, error) {
	switch x := v.(type) {
	case solana.PublicKey:
		return x, nil
	case solana.HasPublicKey:
		return x.PublicKey(), nil
	case []byte:
		return solana.PublicKeyFromBytes(x)
	default:
		return solana.PublicKey{}, errors.Wrapf(ErrSchema, "%T is not a public key", v)
	}
}

func mismatch(t Type, v interface{}) error {
	return errors.Wrapf(ErrSchema, "%T cannot be encoded as %s", v, t)
}
