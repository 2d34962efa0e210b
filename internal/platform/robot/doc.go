//go:build cgo

// Package robot provides cross-platform input synthesis and screen capture
// using robotgo. It requires CGo; without it the package compiles empty and
// platform.NewProvider reports ErrUnsupported.
package robot
