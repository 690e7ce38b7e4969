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

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type RatingsValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewRatingsValidator(log *logger.Logger) *RatingsValidator {
	v := validator.New()
	v.RegisterStructValidation(validateScopeOwner, model.RatingsScope{})

	return &RatingsValidator{
		validate: v,
		logger:   log,
	}
}

// validateScopeOwner requires a team or a user to anchor the scope.
func validateScopeOwner(sl validator.StructLevel) {
	scope := sl.Current().Interface().(model.RatingsScope)
	if scope.TeamID == "" && scope.UserID == "" {
		sl.ReportError(scope.TeamID, "TeamID", "TeamID", "team_or_user", "")
	}
	if scope.IsAll && scope.TeamID == "" {
		sl.ReportError(scope.IsAll, "IsAll", "IsAll", "requires_team", "")
	}
}

func (v *RatingsValidator) Validate(scope *model.RatingsScope) error {
	if err := v.validate.Struct(scope); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translate(validationErrs)
		}
		return err
	}
	return nil
}

func translate(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, 0, len(errs))
	for _, err := range errs {
		message := err.Error()
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
		case "team_or_user":
			message = "team_id or user_id is required"
		case "requires_team":
			message = "is_all requires team_id"
		}
		out = append(out, ValidationError{Field: err.Field(), Message: message})
	}
	return out
}
