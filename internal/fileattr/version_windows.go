//go:build windows

package fileattr

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Common translation blocks tried when \VarFileInfo\Translation is missing
// or lists a table that does not exist: US English with Unicode and
// Windows-1252 code pages.
var fallbackTranslations = []string{"040904b0", "040904e4", "04090000"}

func readVersionInfo(path string) (VersionInfo, error) {
	size, err := windows.GetFileVersionInfoSize(path, nil)
	if err != nil {
		return VersionInfo{}, fmt.Errorf("GetFileVersionInfoSize: %w", err)
	}
	if size == 0 {
		return VersionInfo{}, fmt.Errorf("%s has no version resource", path)
	}

	buf := make([]byte, size)
	block := unsafe.Pointer(&buf[0])
	if err := windows.GetFileVersionInfo(path, 0, size, block); err != nil {
		return VersionInfo{}, fmt.Errorf("GetFileVersionInfo: %w", err)
	}

	tables := append(translations(block), fallbackTranslations...)
	query := func(name string) string {
		for _, table := range tables {
			var ptr unsafe.Pointer
			var n uint32
			err := windows.VerQueryValue(block, `\StringFileInfo\`+table+`\`+name, unsafe.Pointer(&ptr), &n)
			if err != nil || n == 0 || ptr == nil {
				continue
			}
			return windows.UTF16PtrToString((*uint16)(ptr))
		}
		return ""
	}

	return VersionInfo{
		ProductName:     query("ProductName"),
		FileDescription: query("FileDescription"),
		ProductVersion:  query("ProductVersion"),
		FileVersion:     query("FileVersion"),
		CompanyName:     query("CompanyName"),
		Comments:        query("Comments"),
	}, nil
}

// translations lists the language/code page pairs the resource declares,
// formatted as StringFileInfo table names.
func translations(block unsafe.Pointer) []string {
	var ptr unsafe.Pointer
	var n uint32
	if err := windows.VerQueryValue(block, `\VarFileInfo\Translation`, unsafe.Pointer(&ptr), &n); err != nil || n < 4 || ptr == nil {
		return nil
	}

	pairs := unsafe.Slice((*[2]uint16)(ptr), n/4)
	tables := make([]string, 0, len(pairs))
	for _, p := range pairs {
		tables = append(tables, fmt.Sprintf("%04x%04x", p[0], p[1]))
	}
	return tables
}
