// Package validation validates ingestion requests before they reach the
// correlation core.
package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/shikhar1809/vajra-core/pkg/alerting"
	"github.com/shikhar1809/vajra-core/pkg/graph"
)

// validate is a singleton validator instance
var validate *validator.Validate

// Validation limits
const (
	MaxNameLength  = 256
	MaxProperties  = 100
	MaxPropertyKey = 100
	MaxTags        = 50
)

func init() {
	validate = validator.New()
}

// EntityRequest represents a request to upsert an entity
type EntityRequest struct {
	Type       string         `json:"type" validate:"required,max=50"`
	Name       string         `json:"name" validate:"required,max=256"`
	Properties map[string]any `json:"properties" validate:"omitempty,max=100"`
	RiskScore  *float64       `json:"riskScore" validate:"omitempty,min=0,max=100"`
	Tags       []string       `json:"tags" validate:"omitempty,max=50,dive,max=50"`
}

// RelationshipRequest represents a request to add a relationship
type RelationshipRequest struct {
	SourceID   string         `json:"sourceId" validate:"required"`
	TargetID   string         `json:"targetId" validate:"required"`
	Type       string         `json:"type" validate:"required,max=50"`
	Properties map[string]any `json:"properties" validate:"omitempty,max=100"`
	Weight     *float64       `json:"weight" validate:"omitempty,min=0"`
}

// AlertRequest represents a request to raise an alert
type AlertRequest struct {
	Module      string         `json:"module" validate:"required,oneof=shield scout sentry aegis"`
	Severity    string         `json:"severity" validate:"required"`
	Type        string         `json:"type" validate:"required,max=100"`
	Title       string         `json:"title" validate:"required,max=256"`
	Description string         `json:"description" validate:"omitempty,max=4096"`
	Context     map[string]any `json:"context" validate:"omitempty,max=100"`
}

// ValidateEntityRequest validates an entity upsert request
func ValidateEntityRequest(req *EntityRequest) error {
	if req == nil {
		return errors.New("entity request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	if !validEntityType(req.Type) {
		return fmt.Errorf("Type: '%s' is not a valid entity type", req.Type)
	}
	return nil
}

// ValidateRelationshipRequest validates a relationship add request
func ValidateRelationshipRequest(req *RelationshipRequest) error {
	if req == nil {
		return errors.New("relationship request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	if !validRelationType(req.Type) {
		return fmt.Errorf("Type: '%s' is not a valid relationship type", req.Type)
	}
	return nil
}

// ValidateAlertRequest validates an alert creation request
func ValidateAlertRequest(req *AlertRequest) error {
	if req == nil {
		return errors.New("alert request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	if !alerting.ValidSeverity(alerting.Severity(req.Severity)) {
		return fmt.Errorf("Severity: '%s' is not a valid severity", req.Severity)
	}
	return nil
}

func validEntityType(t string) bool {
	for _, known := range graph.EntityTypes {
		if string(known) == t {
			return true
		}
	}
	return false
}

func validRelationType(t string) bool {
	for _, known := range graph.RelationTypes {
		if string(known) == t {
			return true
		}
	}
	return false
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: is required", e.Field())
		case "max":
			return fmt.Errorf("%s: exceeds maximum of %s", e.Field(), e.Param())
		case "min":
			return fmt.Errorf("%s: below minimum of %s", e.Field(), e.Param())
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", e.Field(), e.Param())
		default:
			return fmt.Errorf("%s: failed validation '%s'", e.Field(), e.Tag())
		}
	}
	return err
}
