//go:build !windows

package helper

// NetFramework4Installed always reports false off Windows; the bundled
// helpers are .NET Framework executables.
func NetFramework4Installed() bool {
	return false
}
