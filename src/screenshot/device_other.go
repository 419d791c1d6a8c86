//go:build !windows

package screenshot

// DefaultDevice returns the kbinani/screenshot backed device.
func DefaultDevice() Device {
	return DisplayDevice{}
}
