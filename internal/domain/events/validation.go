package events

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// EventInput is the admin create payload.
type EventInput struct {
	Name          string    `json:"name" validate:"required,max=200"`
	Tagline       string    `json:"tagline" validate:"required,max=300"`
	Description   string    `json:"description" validate:"required"`
	StartDate     time.Time `json:"start_date" validate:"required"`
	EndDate       time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	Location      Location  `json:"location"`
	Kind          Kind      `json:"type"`
	LogoURL       *string   `json:"logo_url" validate:"omitempty,url"`
	Socials       []string  `json:"socials" validate:"omitempty,dive,url"`
	IsFeatured    bool      `json:"is_featured"`
	WorldApproved bool      `json:"world_approved"`
	Status        Status    `json:"status" validate:"omitempty,oneof=draft published archived"`
}

// EventPatch is the admin partial update payload. Absent fields stay as they
// are.
type EventPatch struct {
	Name          *string    `json:"name" validate:"omitempty,max=200"`
	Tagline       *string    `json:"tagline" validate:"omitempty,max=300"`
	Description   *string    `json:"description"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	Location      *Location  `json:"location"`
	Kind          *Kind      `json:"type"`
	LogoURL       *string    `json:"logo_url" validate:"omitempty,url"`
	Socials       []string   `json:"socials" validate:"omitempty,dive,url"`
	IsFeatured    *bool      `json:"is_featured"`
	WorldApproved *bool      `json:"world_approved"`
	Status        *Status    `json:"status" validate:"omitempty,oneof=draft published archived"`
}

type ValidationError struct {
	Fields map[string]interface{}
}

func (e ValidationError) Error() string {
	return "event validation failed"
}

func validateInput(input EventInput) error {
	if err := validate.Struct(input); err != nil {
		return toValidationError(err)
	}
	if input.Location.City == "" || input.Location.Country == "" {
		return ValidationError{Fields: map[string]interface{}{"location": "city and country are required"}}
	}
	return nil
}

func validatePatch(patch EventPatch) error {
	if err := validate.Struct(patch); err != nil {
		return toValidationError(err)
	}
	if patch.Location != nil && (patch.Location.City == "" || patch.Location.Country == "") {
		return ValidationError{Fields: map[string]interface{}{"location": "city and country are required"}}
	}
	if patch.StartDate != nil && patch.EndDate != nil && patch.EndDate.Before(*patch.StartDate) {
		return ValidationError{Fields: map[string]interface{}{"end_date": "must be on or after start_date"}}
	}
	return nil
}

func toValidationError(err error) error {
	fields := map[string]interface{}{}
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range errs {
			fields[fieldErr.Field()] = fieldErr.Tag()
		}
		return ValidationError{Fields: fields}
	}
	return err
}
