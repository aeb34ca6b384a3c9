//go:build !windows

package fileattr

func readVersionInfo(string) (VersionInfo, error) {
	return VersionInfo{}, errNoVersionInfo
}
