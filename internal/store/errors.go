package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnavailable       = errors.New("store unavailable")
	ErrNotFound          = errors.New("not found")
	ErrBlankName         = errors.New("name must not be blank")
	ErrDuplicateName     = errors.New("name already exists")
	ErrProtectedCategory = errors.New("category is protected")
	ErrInvalidPlan       = errors.New("invalid plan")
)

// ValidatePlan checks that a plan can be saved: a non-blank name and at least
// one step, each with a known type and a positive duration.
func ValidatePlan(p Plan) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPlan, ErrBlankName)
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidPlan)
	}
	for i, s := range p.Steps {
		if !s.Type.Valid() {
			return fmt.Errorf("%w: step %d has type %q", ErrInvalidPlan, i+1, s.Type)
		}
		if s.Duration <= 0 {
			return fmt.Errorf("%w: step %d has non-positive duration", ErrInvalidPlan, i+1)
		}
	}
	return nil
}
