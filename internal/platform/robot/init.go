//go:build cgo

package robot

import "github.com/mj1618/desktop-flow/internal/platform"

func init() {
	platform.NewProviderFunc = func() (*platform.Provider, error) {
		capturer := NewCapturer()
		return &platform.Provider{
			Inputter:       NewInputter(capturer),
			ScreenCapturer: capturer,
		}, nil
	}
}
