package common

import (
	"fmt"

	"github.com/go-playground/validator"
)

// GenericValidator validates structs annotated with `validate` tags.
type GenericValidator struct {
	Validator *validator.Validate
}

func (gv *GenericValidator) Validate(i interface{}) error {
	if gv.Validator == nil {
		gv.Validator = validator.New()
	}
	if err := gv.Validator.Struct(i); err != nil {
		return fmt.Errorf("received invalid configuration: %w", err)
	}
	return nil
}
