package validator

import (
	"context"

	"github.com/amesa-systems/amesa-notify/notify/internal/models"
)

// ShapeValidator ensures required envelope fields exist.
type ShapeValidator struct{}

// Validate performs structural validation.
func (ShapeValidator) Validate(ctx context.Context, env *models.Envelope) error {
	_ = ctx
	if env == nil {
		return &MalformedError{Reason: "envelope is required"}
	}
	if env.DetailType == "" || env.Source == "" {
		return &MalformedError{Reason: "DetailType and Source are required"}
	}
	if !env.HasDetail() {
		return &MalformedError{Reason: "Detail is required"}
	}
	return nil
}
