//go:build !linux

package hw

import (
	"fmt"

	"github.com/iseio/iseio-go/pkg/config"
	"github.com/iseio/iseio-go/pkg/ise"
)

// OpenDevfs is only available on Linux.
func OpenDevfs(unit int, cfg config.Hardware) (Device, error) {
	return nil, fmt.Errorf("%w: board %d: device nodes need linux", ise.ErrUnsupported, unit)
}
