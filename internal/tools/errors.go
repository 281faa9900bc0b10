package tools

import "errors"

// Tool registry errors.
var (
	// ErrToolNotFound is returned when a tool is not registered.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolNameEmpty is returned when a catalog entry has no name.
	ErrToolNameEmpty = errors.New("tool name cannot be empty")

	// ErrToolCommandEmpty is returned when a catalog entry has no command.
	ErrToolCommandEmpty = errors.New("tool command cannot be empty")

	// ErrToolAlreadyRegistered is returned when the catalog repeats a name.
	ErrToolAlreadyRegistered = errors.New("tool already registered")

	// ErrMissingRequiredArg is returned when a required argument is missing.
	ErrMissingRequiredArg = errors.New("missing required argument")
)
