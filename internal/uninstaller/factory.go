package uninstaller

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/breeze-rmm/uninstallscan/internal/health"
	"github.com/breeze-rmm/uninstallscan/internal/logging"
)

var log = logging.L("uninstaller")

// Factory is one pluggable discovery source. Discover must never panic or
// fail as a whole; degenerate input yields fewer entries.
type Factory interface {
	ID() string
	DisplayName() string
	IsEnabled() bool
	Discover(ctx context.Context) iter.Seq[*Entry]
}

// AttributeExtractor enriches an entry from an executable's embedded
// metadata (name, version, publisher). When onlyUnpopulated is true,
// fields that already hold a value are left unchanged.
type AttributeExtractor interface {
	Fill(entry *Entry, executable string, onlyUnpopulated bool)
}

// Result groups the entries one factory produced during Collect.
type Result struct {
	FactoryID   string
	DisplayName string
	Entries     []*Entry
	Duration    time.Duration
	Skipped     bool // factory disabled
}

// Collect runs each enabled factory in order and gathers its entries. It
// does not merge or dedupe across factories. A panicking factory is
// recorded as an error, marked unhealthy in mon (which may be nil) and the
// remaining factories still run. Each factory sees a context carrying a
// logger tagged with its ID.
func Collect(ctx context.Context, mon *health.Monitor, factories ...Factory) ([]Result, error) {
	results := make([]Result, 0, len(factories))
	var errs []error

	for _, f := range factories {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		res := Result{FactoryID: f.ID(), DisplayName: f.DisplayName()}
		if !f.IsEnabled() {
			res.Skipped = true
			results = append(results, res)
			log.Debug("factory disabled", logging.KeyFactory, f.ID())
			continue
		}

		start := time.Now()
		entries, err := drain(ctx, f)
		res.Entries = entries
		res.Duration = time.Since(start)
		if err != nil {
			errs = append(errs, err)
			mon.Update(f.ID(), health.Unhealthy, err.Error())
		}

		log.Info("factory finished",
			logging.KeyFactory, f.ID(),
			"entries", len(entries),
			logging.KeyDurationMs, res.Duration.Milliseconds())
		results = append(results, res)
	}

	return results, errors.Join(errs...)
}

func drain(ctx context.Context, f Factory) (entries []*Entry, err error) {
	ctx = logging.NewContext(ctx, logging.WithFactory(log, f.ID()))
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s discovery panicked: %v", f.ID(), r)
			log.Error("factory panicked", logging.KeyFactory, f.ID(), logging.KeyError, r)
		}
	}()

	for entry := range f.Discover(ctx) {
		if ctx.Err() != nil {
			break
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
