// Package config provides error definitions for configuration management
package config

import "errors"

// Configuration validation errors
var (
	ErrInvalidAppName       = errors.New("invalid application name")
	ErrInvalidEnvironment   = errors.New("invalid environment")
	ErrInvalidLogLevel      = errors.New("invalid log level")
	ErrInvalidPollInterval  = errors.New("invalid scheduler poll interval")
	ErrInvalidQueueCapacity = errors.New("invalid signal queue capacity")
)

// Configuration loading errors
var (
	ErrConfigFileNotFound = errors.New("configuration file not found")
	ErrConfigWatchError   = errors.New("configuration watch error")
)
