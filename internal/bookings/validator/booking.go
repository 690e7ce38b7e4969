package validator

import (
	"errors"
	"fmt"
	"strings"

	"calbook/pkg/logger"
	"calbook/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details renders the errors for an AppError payload.
func (v ValidationErrors) Details() map[string]any {
	fields := make(map[string]any, len(v))
	for _, err := range v {
		fields[err.Field] = err.Message
	}
	return map[string]any{"fields": fields}
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("option_ids", validateOptionIDs); err != nil {
		log.Fatal("Failed to register 'option_ids' validator",
			"error", err,
		)
	}

	log.Debug("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// validateOptionIDs accepts a non-empty string or a non-empty list of non-empty strings.
func validateOptionIDs(fl validator.FieldLevel) bool {
	return isOptionIDs(fl.Field().Interface())
}

func isOptionIDs(v any) bool {
	switch ids := v.(type) {
	case string:
		return ids != ""
	case []string:
		if len(ids) == 0 {
			return false
		}
		for _, id := range ids {
			if id == "" {
				return false
			}
		}
		return true
	case []any:
		if len(ids) == 0 {
			return false
		}
		for _, id := range ids {
			s, ok := id.(string)
			if !ok || s == "" {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (v *BookingValidator) ValidateRoundRobin(q *model.RoundRobinQuery) error {
	if err := v.validateStruct(q); err != nil {
		return err
	}

	if q.StartDate != nil && q.EndDate != nil && q.EndDate.Before(*q.StartDate) {
		return ValidationErrors{
			ValidationError{
				Field:   "EndDate",
				Message: "end_date must not be before start_date",
			},
		}
	}

	return nil
}

func (v *BookingValidator) ValidateConflictWindow(q *model.ConflictWindowQuery) error {
	return v.validateStruct(q)
}

func (v *BookingValidator) ValidateTeamBookings(q *model.TeamBookingsQuery) error {
	return v.validateStruct(q)
}

func (v *BookingValidator) ValidateLocationUpdate(update *model.LocationUpdate) error {
	return v.validateStruct(update)
}

func (v *BookingValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must contain at least %s item(s)", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		case "option_ids":
			message = fmt.Sprintf("%s must be a string or a list of strings", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.StructNamespace(),
			Message: message,
		})
	}

	return validationErrors
}
