// Package config loads service configuration with Viper.
//
// Values come from a YAML config file, then an optional .env file, then the
// process environment, each layer overriding the previous one. With
// WithEnvPrefix("GROUPD"), GROUPD_GROUPING_KEY_TIMEOUT sets
// grouping.key_timeout.
//
// # Usage
//
//	var cfg groupd.Config
//	err := config.LoadConfig("groupd", &cfg, config.WithEnvPrefix("GROUPD"))
package config
