package controltower

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a DecodeError.
type ErrorKind int

const (
	KindMissingField ErrorKind = iota + 1
	KindTypeMismatch
	KindUnknownVariant
	KindAmbiguousVariant
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingField:
		return "MissingField"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindUnknownVariant:
		return "UnknownVariant"
	case KindAmbiguousVariant:
		return "AmbiguousVariant"
	case KindMalformed:
		return "Malformed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// DecodeError is returned by every decoding function in this package. Field is
// the dotted JSON path of the offending attribute, e.g.
// "serviceEventDetails.enableGuardrailStatus.guardrails[0].guardrailId".
type DecodeError struct {
	Kind     ErrorKind
	Field    string
	Expected string
	// Keys holds the discriminator keys involved in an UnknownVariant or
	// AmbiguousVariant error, in document order.
	Keys []string
}

// Sentinels for use with errors.Is. They match any DecodeError of the same kind.
var (
	ErrMissingField     = &DecodeError{Kind: KindMissingField}
	ErrTypeMismatch     = &DecodeError{Kind: KindTypeMismatch}
	ErrUnknownVariant   = &DecodeError{Kind: KindUnknownVariant}
	ErrAmbiguousVariant = &DecodeError{Kind: KindAmbiguousVariant}
	ErrMalformed        = &DecodeError{Kind: KindMalformed}
)

func (e *DecodeError) Error() string {
	switch e.Kind {
	case KindMissingField:
		if e.Field == "" {
			return "controltower: missing field"
		}
		return fmt.Sprintf("controltower: missing field %q", e.Field)
	case KindTypeMismatch:
		if e.Field == "" && e.Expected == "" {
			return "controltower: type mismatch"
		}
		return fmt.Sprintf("controltower: field %q: expected %s", e.Field, e.Expected)
	case KindUnknownVariant:
		if len(e.Keys) == 0 {
			return "controltower: unknown service event details variant"
		}
		return fmt.Sprintf("controltower: unknown service event details variant %q", e.Keys[0])
	case KindAmbiguousVariant:
		return fmt.Sprintf("controltower: ambiguous service event details: %s", quoteAll(e.Keys))
	case KindMalformed:
		return "controltower: malformed JSON document"
	default:
		return "controltower: " + e.Kind.String()
	}
}

// Is reports whether target is a DecodeError of the same kind.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	return ok && t.Kind == e.Kind
}

// Key returns the unrecognised discriminator key of an UnknownVariant error,
// or "" when the details object had no keys at all.
func (e *DecodeError) Key() string {
	if len(e.Keys) == 0 {
		return ""
	}
	return e.Keys[0]
}

// IsForwardCompatible reports whether err only signals a variant this package
// does not know yet. Callers that tolerate new lifecycle operations should skip
// such events instead of failing.
func IsForwardCompatible(err error) bool {
	return errors.Is(err, ErrUnknownVariant)
}

func quoteAll(keys []string) string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = fmt.Sprintf("%q", k)
	}
	return strings.Join(quoted, ", ")
}
