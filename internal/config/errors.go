package config

import "errors"

var (
	// ErrInvalidConfig wraps every Validate and Location failure.
	ErrInvalidConfig = errors.New("config: invalid")
	// ErrLoadConfig wraps .env, YAML file and env provider failures in Load.
	ErrLoadConfig = errors.New("config: load failed")
)
