package common

import (
	"fmt"

	"github.com/teemow/gsuiteadmin/internal/dispatch"
)

// RegisterAll registers descs with reg. In read-only mode only descriptors
// marked ReadOnly are registered.
func RegisterAll(reg *dispatch.Registry, readOnly bool, descs ...dispatch.ToolDescriptor) error {
	for _, d := range descs {
		if readOnly && !d.ReadOnly {
			continue
		}
		if err := reg.Register(d); err != nil {
			return fmt.Errorf("failed to register %s: %w", d.Name(), err)
		}
	}
	return nil
}
