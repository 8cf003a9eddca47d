// Package validation provides configuration validation for powerflow.
//
// It supports both struct tag validation (using the validator library) for
// loaded configuration structs and programmatic validation with error
// collection for declarative inputs such as report requests.
//
// # Struct Tag Validation
//
//	type ToolConfig struct {
//	    Binary string `mapstructure:"binary" validate:"required"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.OneOf("reports.kinds[0].kind", kind, knownKinds)
//	err := v.Validate()
//
// Both return an *errors.AppError with code CONFIGURATION_ERROR whose
// Details["fields"] lists every offending field.
package validation
