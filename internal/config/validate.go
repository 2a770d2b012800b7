package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/openkcm/implicit-flow/internal/serviceerr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the sections of the application against their validate
// tags. The embedded base configuration is left to common-sdk.
func (c *Config) Validate() error {
	return errors.Join(validateSection(c.Auth), validateSection(c.Refresh))
}

func validateSection(section any) error {
	err := validate.Struct(section)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Join(serviceerr.ErrInvalidConfig, err)
	}

	errs := []error{serviceerr.ErrInvalidConfig}
	for _, fe := range fieldErrs {
		errs = append(errs, fmt.Errorf("%s: failed on %q", fe.Namespace(), fe.Tag()))
	}

	return errors.Join(errs...)
}
