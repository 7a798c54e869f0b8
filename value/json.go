package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MarshalJSON renders the value as JSON, preserving object key order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Number:
		b, err := json.Marshal(v.n)
		if err != nil {
			return err
		}
		buf.Write(b)
	case String:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case Array:
		buf.WriteByte('[')
		for i, e := range v.a {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		keys := v.Keys()
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeJSON(buf, v.Field(k)); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// UnmarshalJSON decodes JSON into a Value, preserving object key order
// using a token-level decoder (encoding/json's map[string]interface{}
// does not preserve order).
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	val, err := decodeValue(dec)
	if err != nil {
		return fmt.Errorf("decoding value: %w", err)
	}
	*v = val
	return nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return NullValue, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			o := newOmap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return NullValue, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return NullValue, errors.New("object key is not a string")
				}
				val, err := decodeValue(dec)
				if err != nil {
					return NullValue, err
				}
				o.set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return NullValue, err
			}
			return Value{kind: Object, o: o}, nil
		case '[':
			var items []Value
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return NullValue, err
				}
				items = append(items, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return NullValue, err
			}
			return OfArray(items), nil
		default:
			return NullValue, fmt.Errorf("unexpected delimiter %v", t)
		}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return NullValue, err
		}
		return OfNumber(f), nil
	case string:
		return OfString(t), nil
	case bool:
		return Of(t), nil
	case nil:
		return NullValue, nil
	default:
		return NullValue, fmt.Errorf("unexpected token %v (%T)", t, t)
	}
}
