package fileattr

import (
	"errors"
	"strings"

	"github.com/breeze-rmm/uninstallscan/internal/logging"
	"github.com/breeze-rmm/uninstallscan/internal/uninstaller"
)

var log = logging.L("fileattr")

var errNoVersionInfo = errors.New("version resources are not readable on this platform")

// VersionInfo holds the string table of an executable's version resource.
type VersionInfo struct {
	ProductName     string
	FileDescription string
	ProductVersion  string
	FileVersion     string
	CompanyName     string
	Comments        string
}

// Extractor fills uninstaller entries from executable version resources.
type Extractor struct {
	read func(path string) (VersionInfo, error)
}

// NewExtractor returns an extractor for the current platform. Off Windows
// it never finds anything and leaves entries untouched.
func NewExtractor() *Extractor {
	return &Extractor{read: readVersionInfo}
}

var _ uninstaller.AttributeExtractor = (*Extractor)(nil)

// Fill copies name, version, publisher and comment from the executable's
// version resource into entry.
func (x *Extractor) Fill(entry *uninstaller.Entry, executable string, onlyUnpopulated bool) {
	info, err := x.read(executable)
	if err != nil {
		if !errors.Is(err, errNoVersionInfo) {
			log.Debug("version info unreadable", "path", executable, logging.KeyError, err)
		}
		return
	}

	set := func(dst *string, candidates ...string) {
		if onlyUnpopulated && *dst != "" {
			return
		}
		for _, c := range candidates {
			if c = strings.TrimSpace(c); c != "" {
				*dst = c
				return
			}
		}
	}

	set(&entry.RawDisplayName, info.ProductName, info.FileDescription)
	set(&entry.DisplayVersion, info.ProductVersion, info.FileVersion)
	set(&entry.Publisher, info.CompanyName)
	set(&entry.Comment, info.Comments, info.FileDescription)
}
