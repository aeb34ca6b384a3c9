package helper

import (
	"sync"

	"github.com/breeze-rmm/uninstallscan/internal/fileattr"
	"github.com/breeze-rmm/uninstallscan/internal/logging"
)

var log = logging.L("helper")

// PrerequisiteFunc reports whether the runtime the helper needs is installed.
type PrerequisiteFunc func() bool

// Availability answers whether a helper can run. The answer is computed on
// the first call to Available and then frozen: installing or removing the
// helper afterwards is not noticed for the lifetime of the value.
type Availability struct {
	path         string
	prerequisite PrerequisiteFunc
	fileExists   func(string) bool

	once      sync.Once
	available bool
}

// NewAvailability creates an availability gate for the helper at path.
// A nil prerequisite means the helper has no runtime requirement.
func NewAvailability(path string, prerequisite PrerequisiteFunc) *Availability {
	return &Availability{
		path:         path,
		prerequisite: prerequisite,
		fileExists:   fileattr.FileExists,
	}
}

var shared sync.Map // helper path -> *Availability

// SharedAvailability returns the process-wide gate for path, creating it on
// first use. Factories built separately for the same helper share one cached
// answer.
func SharedAvailability(path string, prerequisite PrerequisiteFunc) *Availability {
	if a, ok := shared.Load(path); ok {
		return a.(*Availability)
	}
	a, _ := shared.LoadOrStore(path, NewAvailability(path, prerequisite))
	return a.(*Availability)
}

// Path returns the helper executable path.
func (a *Availability) Path() string {
	return a.path
}

// Available reports whether the prerequisite is installed and the helper
// file exists. Safe for concurrent use.
func (a *Availability) Available() bool {
	a.once.Do(func() {
		prereq := a.prerequisite == nil || a.prerequisite()
		exists := a.fileExists(a.path)
		a.available = prereq && exists
		log.Debug("helper availability checked",
			logging.KeyHelperPath, a.path,
			"prerequisite", prereq,
			"exists", exists)
	})
	return a.available
}
