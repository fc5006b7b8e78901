package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"user-service/internal/domain"
)

var (
	alphaSpaceRegex = regexp.MustCompile(`^[A-Za-zÁÉÍÓÚÜÑáéíóúüñ ]+$`)
	ciRegex         = regexp.MustCompile(`(?i)^[A-Z]?\d{5,12}[A-Z]?$`)
)

// userShape is the validated view of a user record.
type userShape struct {
	FirstName      string `json:"first_name" validate:"required,min=2,max=50,alphaspace"`
	LastFirstName  string `json:"last_first_name" validate:"required,min=2,max=50,alphaspace"`
	LastSecondName string `json:"last_second_name" validate:"omitempty,min=2,max=50,alphaspace"`
	Mail           string `json:"mail" validate:"required,max=100,email"`
	CI             string `json:"ci" validate:"required,ci"`
	Phone          string `json:"phone" validate:"required,number,min=6,max=10"`
	Role           string `json:"role" validate:"required,role"`
}

var fieldMessages = map[string]map[string]string{
	"first_name": {
		"required":   "first name is required",
		"min":        "first name must be between 2 and 50 characters",
		"max":        "first name must be between 2 and 50 characters",
		"alphaspace": "first name may only contain letters and spaces",
	},
	"last_first_name": {
		"required":   "last name is required",
		"min":        "last name must be between 2 and 50 characters",
		"max":        "last name must be between 2 and 50 characters",
		"alphaspace": "last name may only contain letters and spaces",
	},
	"last_second_name": {
		"min":        "second last name must be between 2 and 50 characters",
		"max":        "second last name must be between 2 and 50 characters",
		"alphaspace": "second last name may only contain letters and spaces",
	},
	"mail": {
		"required": "mail is required",
		"max":      "mail must not exceed 100 characters",
		"email":    "mail is not a valid address",
	},
	"ci": {
		"required": "CI is required",
		"ci":       "CI must have 5 to 12 digits with an optional letter at the start or end, e.g. 1234567, E1234567, 1234567A",
	},
	"phone": {
		"required": "phone is required",
		"number":   "phone may only contain digits",
		"min":      "phone must have between 6 and 10 digits",
		"max":      "phone must have between 6 and 10 digits",
	},
	"role": {
		"required": "role is required",
		"role":     "role is not recognised",
	},
}

// RecordValidator checks the shape of a user record before it is persisted.
type RecordValidator struct {
	v *validator.Validate
}

func NewRecordValidator() *RecordValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	_ = v.RegisterValidation("alphaspace", func(fl validator.FieldLevel) bool {
		return alphaSpaceRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("ci", func(fl validator.FieldLevel) bool {
		return ciRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseRole(fl.Field().String())
		return ok
	})
	return &RecordValidator{v: v}
}

// Validate returns a KindValidation *domain.Error listing every failing field.
func (rv *RecordValidator) Validate(u *domain.User) error {
	shape := userShape{
		FirstName:      u.FirstName,
		LastFirstName:  u.LastFirstName,
		LastSecondName: u.SecondSurname(),
		Mail:           u.Mail,
		CI:             u.CI,
		Phone:          u.Phone,
		Role:           string(u.Role),
	}
	err := rv.v.Struct(shape)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string][]string)
	for _, fe := range verrs {
		msg := fieldMessages[fe.Field()][fe.Tag()]
		if msg == "" {
			msg = fe.Field() + " is invalid"
		}
		fields[fe.Field()] = append(fields[fe.Field()], msg)
	}
	return domain.NewValidationError(fields)
}
