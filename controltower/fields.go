package controltower

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// fields reads attributes of one JSON object. All fields values created while
// decoding a document share the same error slot: the first failure wins and
// every later read becomes a no-op returning the zero value.
type fields struct {
	path string
	obj  gjson.Result
	err  *error
}

func decodeDocument[T any](data []byte, decode func(fields) T) (T, error) {
	var zero T
	if !utf8.Valid(data) || !gjson.ValidBytes(data) {
		return zero, &DecodeError{Kind: KindMalformed}
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return zero, &DecodeError{Kind: KindTypeMismatch, Field: "$", Expected: "object"}
	}

	var err error
	v := decode(fields{obj: root, err: &err})
	if err != nil {
		return zero, err
	}
	return v, nil
}

func (f fields) at(key string) string {
	if f.path == "" {
		return key
	}
	return f.path + "." + key
}

func (f fields) failed() bool {
	return *f.err != nil
}

func (f fields) fail(err error) {
	if *f.err == nil {
		*f.err = err
	}
}

func (f fields) missing(key string) {
	f.fail(&DecodeError{Kind: KindMissingField, Field: f.at(key)})
}

func (f fields) mismatch(path, expected string) {
	f.fail(&DecodeError{Kind: KindTypeMismatch, Field: path, Expected: expected})
}

// get returns the value under key and whether it is present and non-null.
func (f fields) get(key string) (gjson.Result, bool) {
	if f.failed() {
		return gjson.Result{}, false
	}
	v := f.obj.Get(gjson.Escape(key))
	return v, v.Exists() && v.Type != gjson.Null
}

func (f fields) str(key string) string {
	v, ok := f.get(key)
	if !ok {
		if v.Exists() {
			f.mismatch(f.at(key), "string")
		} else if !f.failed() {
			f.missing(key)
		}
		return ""
	}
	if v.Type != gjson.String {
		f.mismatch(f.at(key), "string")
		return ""
	}
	return v.Str
}

func (f fields) optStr(key string) *string {
	v, ok := f.get(key)
	if !ok {
		return nil
	}
	if v.Type != gjson.String {
		f.mismatch(f.at(key), "string")
		return nil
	}
	s := v.Str
	return &s
}

func boolValue(f fields, key string, v gjson.Result) (bool, bool) {
	switch v.Type {
	case gjson.True:
		return true, true
	case gjson.False:
		return false, true
	default:
		f.mismatch(f.at(key), "boolean")
		return false, false
	}
}

func (f fields) boolean(key string) bool {
	v, ok := f.get(key)
	if !ok {
		if v.Exists() {
			f.mismatch(f.at(key), "boolean")
		} else if !f.failed() {
			f.missing(key)
		}
		return false
	}
	b, _ := boolValue(f, key, v)
	return b
}

func (f fields) optBool(key string) *bool {
	v, ok := f.get(key)
	if !ok {
		return nil
	}
	b, ok := boolValue(f, key, v)
	if !ok {
		return nil
	}
	return &b
}

// raw returns an opaque JSON value byte for byte as it appears in the
// document. Absent and null yield nil.
func (f fields) raw(key string) json.RawMessage {
	v, ok := f.get(key)
	if !ok {
		return nil
	}
	return json.RawMessage(v.Raw)
}

func (f fields) object(key string) (fields, bool) {
	v, ok := f.get(key)
	if !ok {
		if v.Exists() {
			f.mismatch(f.at(key), "object")
		} else if !f.failed() {
			f.missing(key)
		}
		return fields{}, false
	}
	if !v.IsObject() {
		f.mismatch(f.at(key), "object")
		return fields{}, false
	}
	return fields{path: f.at(key), obj: v, err: f.err}, true
}

func objectField[T any](f fields, key string, decode func(fields) T) T {
	var zero T
	child, ok := f.object(key)
	if !ok {
		return zero
	}
	return decode(child)
}

// optObjectField decodes an object that may be absent or null.
func optObjectField[T any](f fields, key string, decode func(fields) T) *T {
	if _, ok := f.get(key); !ok {
		return nil
	}
	child, ok := f.object(key)
	if !ok {
		return nil
	}
	v := decode(child)
	if f.failed() {
		return nil
	}
	return &v
}

// items returns the elements of an array attribute. Absent and null arrays
// yield no elements rather than an error.
func (f fields) items(key string) []gjson.Result {
	v, ok := f.get(key)
	if !ok {
		return nil
	}
	if !v.IsArray() {
		f.mismatch(f.at(key), "array")
		return nil
	}
	return v.Array()
}

func listField[T any](f fields, key string, decode func(fields) T) []T {
	var out []T
	for i, item := range f.items(key) {
		path := fmt.Sprintf("%s[%d]", f.at(key), i)
		if !item.IsObject() {
			f.mismatch(path, "object")
			return out
		}
		out = append(out, decode(fields{path: path, obj: item, err: f.err}))
		if f.failed() {
			return out
		}
	}
	return out
}

func (f fields) strList(key string) []string {
	var out []string
	for i, item := range f.items(key) {
		if item.Type != gjson.String {
			f.mismatch(fmt.Sprintf("%s[%d]", f.at(key), i), "string")
			return out
		}
		out = append(out, item.Str)
	}
	return out
}
