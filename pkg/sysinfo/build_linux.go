//go:build linux

package sysinfo

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// productName returns the DMI product name, present on PCs and most VMs
func (p *Platform) productName() string {
	name, err := readSysfsString(filepath.Join(p.opts.SysfsRoot, "devices", "virtual", "dmi", "id", "product_name"))
	if err != nil {
		return ""
	}
	return name
}

// machine returns the kernel's machine name, e.g. aarch64
func machine() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return ""
	}
	return unix.ByteSliceToString(uts.Machine[:])
}
