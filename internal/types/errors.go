package types

import (
	"errors"
	"fmt"
)

var (
	ErrConfig = errors.New("configuration error")
	ErrInput  = errors.New("invalid input")
)

// ConfigError carries a caller-facing message and matches ErrConfig.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string        { return e.Msg }
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// InputError carries a caller-facing message and matches ErrInput.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string        { return e.Msg }
func (e *InputError) Is(target error) bool { return target == ErrInput }

// ProviderError is a non-2xx answer from one of the external APIs.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API failed: %d %s", e.Provider, e.StatusCode, e.Body)
}
