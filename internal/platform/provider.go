package platform

import (
	"fmt"
	"runtime"
)

// Provider bundles the input and capture backends for the current OS.
type Provider struct {
	Inputter       Inputter
	ScreenCapturer ScreenCapturer
}

// ErrUnsupported is returned when no backend registered itself.
var ErrUnsupported = fmt.Errorf("desktop-flow has no input backend for %s/%s; build with CGO_ENABLED=1", runtime.GOOS, runtime.GOARCH)

// NewProviderFunc is set by backend packages via init().
// See internal/platform/robot/init.go for the robotgo registration.
var NewProviderFunc func() (*Provider, error)

// NewProvider returns a Provider for the current OS.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}
