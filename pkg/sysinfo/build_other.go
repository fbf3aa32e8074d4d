//go:build !linux

package sysinfo

import "runtime"

// productName is not available outside Linux
func (p *Platform) productName() string {
	return ""
}

// machine falls back to the Go architecture name
func machine() string {
	return runtime.GOARCH
}
