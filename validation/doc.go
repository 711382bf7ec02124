// Package validation provides input validation for configuration and
// request parameters.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Both produce an
// errors.AppError with per-field details.
//
// # Struct Tag Validation
//
//	type Grouping struct {
//	    DefaultKeyPath string        `mapstructure:"default_key_path" validate:"omitempty,keypath"`
//	    MaxItems       int           `mapstructure:"max_items" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
// Cross-field rules that tags cannot express use the builder:
//
//	v := validation.New().
//	    Range("server.port", c.Port, 0, 65535).
//	    Custom(c.Issuer == "" || c.Secret != "", "auth.issuer", "requires auth.jwt_secret")
//	if appErr := v.Validate(); appErr != nil { ... }
package validation
