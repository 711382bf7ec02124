package groupd

import (
	"fmt"
	"time"

	"github.com/kbukum/streamgroup/config"
	"github.com/kbukum/streamgroup/observability"
	"github.com/kbukum/streamgroup/server"
	"github.com/kbukum/streamgroup/validation"
)

// ServiceName is the config and logger name of the service.
const ServiceName = "groupd"

// Config is the groupd service configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Grouping      GroupingConfig       `yaml:"grouping" mapstructure:"grouping"`
	Auth          AuthConfig           `yaml:"auth" mapstructure:"auth"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// GroupingConfig controls how request bodies are grouped.
type GroupingConfig struct {
	// DefaultKeyPath is used when a request does not name a key path.
	DefaultKeyPath string `yaml:"default_key_path" mapstructure:"default_key_path" validate:"omitempty,keypath"`
	// KeyTimeout bounds each key computation. Unset means 5s; a negative
	// value such as -1s disables the bound.
	KeyTimeout time.Duration `yaml:"key_timeout" mapstructure:"key_timeout"`
	// MaxItems caps the records accepted per request. Unset means 100000;
	// -1 removes the cap.
	MaxItems int `yaml:"max_items" mapstructure:"max_items" validate:"gte=-1"`
	// KeepAlive is the comment interval on event streams. Unset means 15s;
	// a negative value disables keep-alive comments.
	KeepAlive time.Duration `yaml:"keep_alive" mapstructure:"keep_alive"`
	// MaxConcurrent caps grouping requests in flight; the rest get 503.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent" validate:"gte=0"`
	// QueueWait is how long a request may wait for a free slot.
	QueueWait time.Duration `yaml:"queue_wait" mapstructure:"queue_wait" validate:"gte=0"`
}

// AuthConfig enables bearer token auth on /v1 when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret" validate:"omitempty,min=16"`
	Issuer    string `yaml:"issuer" mapstructure:"issuer"`
}

// minKeyTimeout is the smallest enabled key timeout.
const minKeyTimeout = time.Millisecond

// Enabled reports whether bearer auth is configured.
func (a AuthConfig) Enabled() bool { return a.JWTSecret != "" }

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()

	if c.Grouping.KeyTimeout == 0 {
		c.Grouping.KeyTimeout = 5 * time.Second
	}
	if c.Grouping.MaxItems == 0 {
		c.Grouping.MaxItems = 100000
	}
	if c.Grouping.KeepAlive == 0 {
		c.Grouping.KeepAlive = 15 * time.Second
	}
	if c.Grouping.MaxConcurrent == 0 {
		c.Grouping.MaxConcurrent = 64
	}
}

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	v := validation.New().
		Custom(c.Auth.Issuer == "" || c.Auth.Enabled(), "auth.issuer", "requires auth.jwt_secret")
	if c.Grouping.KeyTimeout > 0 {
		v.MinDuration("grouping.key_timeout", c.Grouping.KeyTimeout, minKeyTimeout)
	}
	if appErr := v.Validate(); appErr != nil {
		return fmt.Errorf("config: %w", appErr)
	}
	return nil
}
