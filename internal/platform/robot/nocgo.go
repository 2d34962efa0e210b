//go:build !cgo

package robot
