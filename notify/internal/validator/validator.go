package validator

import (
	"context"
	"errors"

	"github.com/amesa-systems/amesa-notify/notify/internal/models"
)

var (
	// ErrMalformedEvent is matched by every structural validation failure.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrUntrustedSource is returned for sources outside the allow-list.
	ErrUntrustedSource = errors.New("untrusted event source")
)

// MalformedError carries the human readable reason for a shape failure.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return "invalid event structure: " + e.Reason
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedEvent
}

// Validator defines contract for envelope validation units.
type Validator interface {
	Validate(ctx context.Context, env *models.Envelope) error
}

// Chain applies a list of validators sequentially.
type Chain struct {
	validators []Validator
}

// NewChain constructs a validator chain.
func NewChain(validators ...Validator) *Chain {
	return &Chain{validators: validators}
}

// Validate executes validators in order until an error occurs.
func (c *Chain) Validate(ctx context.Context, env *models.Envelope) error {
	if c == nil {
		return nil
	}
	for _, v := range c.validators {
		if err := v.Validate(ctx, env); err != nil {
			return err
		}
	}
	return nil
}

// New returns the standard envelope chain: shape first, then source.
func New(sources *SourceAllowList) *Chain {
	return NewChain(ShapeValidator{}, SourceValidator{Sources: sources})
}
