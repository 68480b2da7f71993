package timemachinet

import (
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"
)

// Device describes where the networks run. Only the CPU is supported; the name is kept in
// configurations so that they stay portable.
type Device struct {
	Name    string
	Threads int
	Cores   int
	Brand   string

	// vector extensions, reported when the network is built
	AVX2, AVX512 bool
}

// ResolveDevice returns the device with the given name. "", "auto" and "cpu" all give the
// CPU; every other name gives ErrUnknownDevice.
func ResolveDevice(name string) (Device, error) {
	switch strings.ToLower(name) {
	case "", "auto", "cpu":
	default:
		return Device{}, errors.Wrapf(ErrUnknownDevice, "Can't use device %q", name)
	}

	d := Device{
		Name:    "cpu",
		Threads: runtime.NumCPU(),
		Cores:   cpuid.CPU.PhysicalCores,
		Brand:   cpuid.CPU.BrandName,
		AVX2:    cpuid.CPU.Supports(cpuid.AVX2),
		AVX512:  cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ),
	}

	return d, nil
}

func (d Device) String() string {
	if d.Brand == "" {
		return d.Name
	}
	return d.Name + " (" + d.Brand + ")"
}
