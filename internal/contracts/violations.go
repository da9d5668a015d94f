package contracts

import (
	"fmt"
	"strings"
)

// Constraint names reported in FieldError.
const (
	ConstraintRequired = "required"
	ConstraintMin      = "min"
	ConstraintMax      = "max"
	ConstraintLen      = "len"
	ConstraintPattern  = "pattern"
	ConstraintOneOf    = "oneof"
	ConstraintFormat   = "format"
)

// FieldError names one violated field constraint.
type FieldError struct {
	Field      string
	Constraint string
	Detail     string
}

func (e FieldError) String() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Constraint)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Constraint, e.Detail)
}

// Violations is the full list of failures for one record.
type Violations []FieldError

func (v Violations) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.String()
	}
	return strings.Join(parts, "; ")
}

// Has reports whether field failed constraint.
func (v Violations) Has(field, constraint string) bool {
	for _, fe := range v {
		if fe.Field == field && fe.Constraint == constraint {
			return true
		}
	}
	return false
}

type checker struct {
	out Violations
}

func (c *checker) fail(field, constraint, format string, args ...any) {
	c.out = append(c.out, FieldError{Field: field, Constraint: constraint, Detail: fmt.Sprintf(format, args...)})
}

func (c *checker) requiredID(field string, v *int64) {
	if v == nil {
		c.fail(field, ConstraintRequired, "")
		return
	}
	if *v < 1 {
		c.fail(field, ConstraintMin, "must be >= 1, got %d", *v)
	}
}

func (c *checker) intRange(field string, v *int, required bool, min, max int) {
	if v == nil {
		if required {
			c.fail(field, ConstraintRequired, "")
		}
		return
	}
	if *v < min {
		c.fail(field, ConstraintMin, "must be >= %d, got %d", min, *v)
	}
	if *v > max {
		c.fail(field, ConstraintMax, "must be <= %d, got %d", max, *v)
	}
}

func (c *checker) floatRange(field string, v *float64, required bool, min, max float64, exclusiveMin bool) {
	if v == nil {
		if required {
			c.fail(field, ConstraintRequired, "")
		}
		return
	}
	if exclusiveMin && *v <= min {
		c.fail(field, ConstraintMin, "must be > %g, got %g", min, *v)
	} else if !exclusiveMin && *v < min {
		c.fail(field, ConstraintMin, "must be >= %g, got %g", min, *v)
	}
	if *v > max {
		c.fail(field, ConstraintMax, "must be <= %g, got %g", max, *v)
	}
}

func (c *checker) stringLen(field string, v *string, required bool, min, max int) {
	if v == nil || strings.TrimSpace(*v) == "" {
		if required {
			c.fail(field, ConstraintRequired, "")
		}
		return
	}
	if n := len(*v); n < min || n > max {
		c.fail(field, ConstraintLen, "length must be %d..%d, got %d", min, max, n)
	}
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
