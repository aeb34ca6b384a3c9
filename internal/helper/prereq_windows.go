//go:build windows

package helper

import (
	"golang.org/x/sys/windows/registry"
)

// .NET Framework 4 setup keys. Full is present on every 4.5+ install;
// Client covers the 4.0 client profile.
var netFramework4Keys = []string{
	`SOFTWARE\Microsoft\NET Framework Setup\NDP\v4\Full`,
	`SOFTWARE\Microsoft\NET Framework Setup\NDP\v4\Client`,
}

// NetFramework4Installed reports whether .NET Framework 4 or newer is
// installed, the runtime the bundled helpers are built against.
func NetFramework4Installed() bool {
	for _, path := range netFramework4Keys {
		if netFrameworkKeyInstalled(path) {
			return true
		}
	}
	return false
}

func netFrameworkKeyInstalled(path string) bool {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE)
	if err != nil {
		return false
	}
	defer key.Close()

	if release, _, err := key.GetIntegerValue("Release"); err == nil && release > 0 {
		return true
	}
	install, _, err := key.GetIntegerValue("Install")
	return err == nil && install == 1
}
