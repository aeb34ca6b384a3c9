package uninstaller

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies which discovery source produced an Entry.
type Kind int

const (
	KindUnknown Kind = iota
	KindRegistry
	KindMsi
	KindStoreApp
	KindSteam
	KindChocolatey
	KindScoop
	KindOculus
)

var kindNames = map[Kind]string{
	KindUnknown:    "Unknown",
	KindRegistry:   "Registry",
	KindMsi:        "Msi",
	KindStoreApp:   "StoreApp",
	KindSteam:      "Steam",
	KindChocolatey: "Chocolatey",
	KindScoop:      "Scoop",
	KindOculus:     "Oculus",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Entry is one discoverable, uninstallable application as handed to the
// aggregation layer. Ownership passes to the caller once yielded.
type Entry struct {
	// RatingID is the stable identifier of the item within its source.
	RatingID string

	RawDisplayName       string
	DisplayVersion       string
	Publisher            string
	Comment              string
	DisplayIcon          string
	InstallLocation      string
	InstallDate          time.Time // zero when no source was available
	UninstallString      string
	QuietUninstallString string

	Kind        Kind
	IsValid     bool
	IsProtected bool
}

// HasInstallDate reports whether InstallDate was derived from a real source.
func (e *Entry) HasInstallDate() bool {
	return !e.InstallDate.IsZero()
}

// entryView is the serialized form of an Entry. An unset InstallDate is
// omitted instead of being rendered as the zero time.
type entryView struct {
	RatingID             string `json:"ratingId" yaml:"ratingId"`
	DisplayName          string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	DisplayVersion       string `json:"displayVersion,omitempty" yaml:"displayVersion,omitempty"`
	Publisher            string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Comment              string `json:"comment,omitempty" yaml:"comment,omitempty"`
	DisplayIcon          string `json:"displayIcon,omitempty" yaml:"displayIcon,omitempty"`
	InstallLocation      string `json:"installLocation,omitempty" yaml:"installLocation,omitempty"`
	InstallDate          string `json:"installDate,omitempty" yaml:"installDate,omitempty"`
	UninstallString      string `json:"uninstallString" yaml:"uninstallString"`
	QuietUninstallString string `json:"quietUninstallString,omitempty" yaml:"quietUninstallString,omitempty"`
	Kind                 string `json:"kind" yaml:"kind"`
	IsValid              bool   `json:"isValid" yaml:"isValid"`
	IsProtected          bool   `json:"isProtected" yaml:"isProtected"`
}

func (e *Entry) view() entryView {
	v := entryView{
		RatingID:             e.RatingID,
		DisplayName:          e.RawDisplayName,
		DisplayVersion:       e.DisplayVersion,
		Publisher:            e.Publisher,
		Comment:              e.Comment,
		DisplayIcon:          e.DisplayIcon,
		InstallLocation:      e.InstallLocation,
		UninstallString:      e.UninstallString,
		QuietUninstallString: e.QuietUninstallString,
		Kind:                 e.Kind.String(),
		IsValid:              e.IsValid,
		IsProtected:          e.IsProtected,
	}
	if e.HasInstallDate() {
		v.InstallDate = e.InstallDate.Format(time.RFC3339)
	}
	return v
}

func (e *Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.view())
}

// MarshalYAML implements yaml.Marshaler.
func (e *Entry) MarshalYAML() (any, error) {
	return e.view(), nil
}
