package registry

import "errors"

var (
	ErrRegistryNotFound = errors.New("registry not found")
	ErrRegistryParse    = errors.New("registry is not valid JSON")
)
