package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/elliotchance/phpserialize"
)

// ErrUndecodable indicates a stored field value that looks structured but cannot be decoded.
var ErrUndecodable = errors.New("undecodable stored field value")

// StoredValue is a decoded profile field value: zero or more values in stored order.
type StoredValue struct {
	Values []string
}

// IsEmpty reports whether the value carries no non-empty entry.
func (v StoredValue) IsEmpty() bool {
	for _, s := range v.Values {
		if s != "" {
			return false
		}
	}
	return true
}

// First returns the first value, or "" when there is none.
//
// Member type assignment only ever considers the first value.
func (v StoredValue) First() string {
	if len(v.Values) == 0 {
		return ""
	}
	return v.Values[0]
}

// DecodeStoredValue decodes a raw stored field value.
//
// Accepted encodings:
//   - a plain scalar ("alumni")
//   - a JSON array of strings (`["alumni"]`)
//   - a legacy PHP-serialized scalar or flat array (`s:6:"alumni";`, `a:1:{i:0;s:6:"alumni";}`)
func DecodeStoredValue(raw string) (StoredValue, error) {
	if raw == "" {
		return StoredValue{}, nil
	}
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		var vs []string
		if err := json.Unmarshal([]byte(trimmed), &vs); err != nil {
			return StoredValue{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
		}
		return StoredValue{Values: vs}, nil
	}
	if looksSerialized(trimmed) {
		vs, err := decodeSerialized(trimmed)
		if err != nil {
			return StoredValue{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
		}
		return StoredValue{Values: vs}, nil
	}
	return StoredValue{Values: []string{raw}}, nil
}

// EncodeStoredValue is the inverse of DecodeStoredValue for the encodings this
// module writes: a single value is stored as-is, several as a JSON array.
func EncodeStoredValue(values []string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	default:
		b, _ := json.Marshal(values)
		return string(b)
	}
}

func looksSerialized(s string) bool {
	if s == "N;" {
		return true
	}
	if len(s) < 4 || s[1] != ':' {
		return false
	}
	last := s[len(s)-1]
	if last != ';' && last != '}' {
		return false
	}
	switch s[0] {
	case 's', 'a', 'O', 'b', 'i', 'd':
		return true
	}
	return false
}

// decodeSerialized decodes a PHP-serialized scalar or flat array. Array
// values come back in key order: integer keys ascending, then string keys.
func decodeSerialized(s string) (vs []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			vs, err = nil, fmt.Errorf("malformed serialized value: %v", r)
		}
	}()
	data := []byte(s)
	switch s[0] {
	case 'N':
		return nil, nil
	case 'a':
		m, err := phpserialize.UnmarshalAssociativeArray(data)
		if err != nil {
			return nil, err
		}
		return serializedArray(m)
	default:
		var v any
		switch s[0] {
		case 's':
			v, err = phpserialize.UnmarshalString(data)
		case 'i':
			v, err = phpserialize.UnmarshalInt(data)
		case 'd':
			v, err = phpserialize.UnmarshalFloat(data)
		case 'b':
			v, err = phpserialize.UnmarshalBool(data)
		default:
			return nil, fmt.Errorf("unsupported token %q", s[0])
		}
		if err != nil {
			return nil, err
		}
		str, _, err := serializedScalar(v)
		if err != nil {
			return nil, err
		}
		return []string{str}, nil
	}
}

func serializedArray(m map[interface{}]interface{}) ([]string, error) {
	keys := make([]interface{}, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ki, iInt := keys[i].(int64)
		kj, jInt := keys[j].(int64)
		switch {
		case iInt && jInt:
			return ki < kj
		case iInt != jInt:
			return iInt
		default:
			return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
		}
	})
	out := make([]string, 0, len(m))
	for _, k := range keys {
		v, isNull, err := serializedScalar(m[k])
		if err != nil {
			return nil, fmt.Errorf("array value %v: %w", k, err)
		}
		if !isNull {
			out = append(out, v)
		}
	}
	return out, nil
}

func serializedScalar(v interface{}) (value string, isNull bool, err error) {
	switch t := v.(type) {
	case nil:
		return "", true, nil
	case string:
		return t, false, nil
	case int64:
		return strconv.FormatInt(t, 10), false, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), false, nil
	case bool:
		if t {
			return "1", false, nil
		}
		return "", false, nil
	default:
		return "", false, fmt.Errorf("unsupported value of type %T", v)
	}
}
