package operators

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every ConfigurationError.
var ErrConfiguration = errors.New("invalid operator configuration")

// ConfigurationError reports a node whose attributes cannot configure its kernel.
type ConfigurationError struct {
	OpType string
	Node   string
	Attr   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s %q: attribute %q: %s", e.OpType, e.Node, e.Attr, e.Reason)
	}
	return fmt.Sprintf("%s: attribute %q: %s", e.OpType, e.Attr, e.Reason)
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }
