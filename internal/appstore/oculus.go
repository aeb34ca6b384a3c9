package appstore

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"
	"time"

	"github.com/breeze-rmm/uninstallscan/internal/fileattr"
	"github.com/breeze-rmm/uninstallscan/internal/health"
	"github.com/breeze-rmm/uninstallscan/internal/helper"
	"github.com/breeze-rmm/uninstallscan/internal/logging"
	"github.com/breeze-rmm/uninstallscan/internal/uninstaller"
)

var log = logging.L("appstore")

const (
	OculusID         = "oculus"
	OculusHelperName = "OculusHelper.exe"
)

// OculusOptions configures an OculusFactory. Nil collaborators fall back
// to the real implementations.
type OculusOptions struct {
	HelperDir   string
	Enabled     bool
	DisplayName string
	Timeout     time.Duration

	Availability *helper.Availability
	Query        helper.QueryFunc
	Extractor    uninstaller.AttributeExtractor
	Health       *health.Monitor
}

// OculusFactory discovers software installed through the Oculus store by
// asking the bundled OculusHelper.exe, since those titles do not register
// in the Windows uninstall registry.
type OculusFactory struct {
	enabled      bool
	displayName  string
	availability *helper.Availability
	query        helper.QueryFunc
	normalizer   *Normalizer
	health       *health.Monitor
}

var _ uninstaller.Factory = (*OculusFactory)(nil)

// OculusHelperPath returns where the helper lives inside dir.
func OculusHelperPath(dir string) string {
	return filepath.Join(dir, OculusHelperName)
}

func NewOculusFactory(opts OculusOptions) *OculusFactory {
	path := OculusHelperPath(opts.HelperDir)

	availability := opts.Availability
	if availability == nil {
		availability = helper.SharedAvailability(path, helper.NetFramework4Installed)
	}
	path = availability.Path()

	query := opts.Query
	if query == nil {
		query = helper.NewQueryFunc(helper.RunOptions{Timeout: opts.Timeout})
	}

	extractor := opts.Extractor
	if extractor == nil {
		extractor = fileattr.NewExtractor()
	}

	displayName := opts.DisplayName
	if displayName == "" {
		displayName = "Oculus"
	}

	return &OculusFactory{
		enabled:      opts.Enabled,
		displayName:  displayName,
		availability: availability,
		query:        query,
		normalizer:   NewNormalizer(path, uninstaller.KindOculus, extractor),
		health:       opts.Health,
	}
}

func (f *OculusFactory) ID() string { return OculusID }

// DisplayName is the label shown while this source is being scanned.
func (f *OculusFactory) DisplayName() string { return f.displayName }

// IsEnabled reflects configuration only, not whether the helper works.
func (f *OculusFactory) IsEnabled() bool { return f.enabled }

// HelperAvailable reports the cached helper availability.
func (f *OculusFactory) HelperAvailable() bool { return f.availability.Available() }

// HelperPath returns the helper executable path.
func (f *OculusFactory) HelperPath() string { return f.availability.Path() }

// Discover returns the Oculus titles the helper reports. Nothing runs until
// iteration starts. The helper is then run and its output parsed in one
// go; records are normalized one at a time as the caller pulls entries, so
// stopping early skips the remaining file probes. When the helper is
// unavailable no process is started and the sequence is empty. Logging goes
// to the logger carried by ctx, see logging.NewContext.
func (f *OculusFactory) Discover(ctx context.Context) iter.Seq[*uninstaller.Entry] {
	return func(yield func(*uninstaller.Entry) bool) {
		logger := logging.FromContext(ctx)

		if !f.availability.Available() {
			logger.Debug("helper unavailable, skipping", logging.KeyHelperPath, f.availability.Path())
			f.health.Update(OculusID, health.Degraded, "helper unavailable")
			return
		}

		output := f.query(ctx, f.availability.Path())
		if output == "" {
			f.health.Update(OculusID, health.Degraded, "helper returned no output")
			return
		}

		records := helper.ParseRecords(output)
		emitted := 0
		defer func() {
			if ctx.Err() != nil {
				f.health.Update(OculusID, health.Degraded, fmt.Sprintf("cancelled after %d of %d records", emitted, len(records)))
				return
			}
			f.health.Update(OculusID, health.Healthy, fmt.Sprintf("%d of %d records usable", emitted, len(records)))
		}()

		for _, rec := range records {
			if ctx.Err() != nil {
				return
			}
			entry, ok := f.normalizer.Normalize(rec)
			if !ok {
				continue
			}
			emitted++
			if !yield(entry) {
				return
			}
		}

		logger.Info("oculus discovery finished", "records", len(records), "entries", emitted)
	}
}
