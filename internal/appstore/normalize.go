package appstore

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/breeze-rmm/uninstallscan/internal/fileattr"
	"github.com/breeze-rmm/uninstallscan/internal/helper"
	"github.com/breeze-rmm/uninstallscan/internal/logging"
	"github.com/breeze-rmm/uninstallscan/internal/uninstaller"
)

// Helper record fields.
const (
	FieldCanonicalName   = "CanonicalName"
	FieldInstallLocation = "InstallLocation"
	FieldVersion         = "Version"
	FieldIsCore          = "IsCore"
	FieldLaunchFile      = "LaunchFile"
)

// Normalizer turns helper records into uninstaller entries.
type Normalizer struct {
	helperPath string
	kind       uninstaller.Kind
	extractor  uninstaller.AttributeExtractor

	fileExists      func(string) bool
	dirCreationTime func(string) (time.Time, bool)
}

// NewNormalizer creates a normalizer for records produced by the helper at
// helperPath. extractor may be nil, in which case launch executables only
// contribute the icon path.
func NewNormalizer(helperPath string, kind uninstaller.Kind, extractor uninstaller.AttributeExtractor) *Normalizer {
	return &Normalizer{
		helperPath:      helperPath,
		kind:            kind,
		extractor:       extractor,
		fileExists:      fileattr.FileExists,
		dirCreationTime: fileattr.DirCreationTime,
	}
}

// Normalize builds an entry from rec. ok is false when the record has no
// CanonicalName, or when enriching it panicked; such records are skipped
// and never produce a partial entry.
func (n *Normalizer) Normalize(rec helper.Record) (entry *uninstaller.Entry, ok bool) {
	id := strings.TrimSpace(rec.Get(FieldCanonicalName))
	if id == "" {
		return nil, false
	}

	defer func() {
		if r := recover(); r != nil {
			log.Warn("skipping helper record", "ratingId", id, logging.KeyError, r)
			entry, ok = nil, false
		}
	}()

	uninstall := UninstallCommand(n.helperPath, id)
	entry = &uninstaller.Entry{
		RatingID:             id,
		UninstallString:      uninstall,
		QuietUninstallString: uninstall,
		IsValid:              true,
		Kind:                 n.kind,
		InstallLocation:      rec.Get(FieldInstallLocation),
		DisplayVersion:       rec.Get(FieldVersion),
		IsProtected:          strings.EqualFold(strings.TrimSpace(rec.Get(FieldIsCore)), "true"),
	}

	if exe := rec.Get(FieldLaunchFile); n.fileExists(exe) {
		if n.extractor != nil {
			n.extractor.Fill(entry, exe, true)
		}
		entry.DisplayIcon = exe
	}

	if created, found := n.dirCreationTime(entry.InstallLocation); found {
		entry.InstallDate = created
	}

	if entry.RawDisplayName == "" {
		entry.RawDisplayName = TitleFromID(id)
	}

	return entry, true
}

// UninstallCommand returns the command line that removes id through the
// helper: "<helperPath>" /uninstall <id>.
func UninstallCommand(helperPath, id string) string {
	return `"` + helperPath + `" ` + helper.UninstallArg + " " + id
}

// TitleFromID derives a display name from a canonical name:
// "my-app-name" becomes "My App Name". Upper-case letters are kept, so
// acronyms survive ("vr-APP" becomes "Vr APP").
func TitleFromID(id string) string {
	// cases.Caser keeps state and is not safe for concurrent use.
	return cases.Title(language.English, cases.NoLower).String(strings.ReplaceAll(id, "-", " "))
}
