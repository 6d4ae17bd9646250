package props

import (
	"errors"
	"fmt"
)

var (
	// ErrReadOnly is the sentinel wrapped by writes through a read-only
	// accessor.
	ErrReadOnly = errors.New("props: property is read-only")
	// ErrPrivate is the sentinel wrapped by external writes to a private
	// property.
	ErrPrivate = errors.New("props: property is private")
	// ErrValidation is the sentinel matched by set hook rejections.
	ErrValidation = errors.New("props: value rejected by set hook")
	// ErrUnknownProperty is the sentinel matched by lookups of undeclared
	// labels.
	ErrUnknownProperty = errors.New("props: unknown property")
	// ErrUnknownIdentity is returned when an accessor or the lifecycle layer
	// is handed an identity with no live registration.
	ErrUnknownIdentity = errors.New("props: identity is not registered")
	// ErrDuplicateProperty is returned when a label is declared twice on the
	// same class.
	ErrDuplicateProperty = errors.New("props: property already declared")
	// ErrDuplicateClass is returned when a class name is defined twice on the
	// same runtime.
	ErrDuplicateClass = errors.New("props: class already defined")
)

// AccessError reports a write rejected by the accessor's visibility rule. The
// store is never touched.
type AccessError struct {
	Class      string
	Property   string
	Visibility Visibility
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("props: property %s.%s is %s", e.Class, e.Property, e.Visibility)
}

func (e *AccessError) Unwrap() error {
	switch e.Visibility {
	case VisibilityReadOnly:
		return ErrReadOnly
	case VisibilityPrivate:
		return ErrPrivate
	}
	return nil
}

// ValidationError reports a value rejected or failed by a set hook. The store
// retains its previous state.
type ValidationError struct {
	Class    string
	Property string
	Value    any
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("props: set %s.%s rejected value %v: %v", e.Class, e.Property, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// UnknownPropertyError reports a lookup for a label with no matching
// descriptor on the class or any ancestor.
type UnknownPropertyError struct {
	Class string
	Label string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("props: class %q declares no property %q", e.Class, e.Label)
}

func (e *UnknownPropertyError) Is(target error) bool {
	return target == ErrUnknownProperty
}
