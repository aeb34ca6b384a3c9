package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/breeze-rmm/uninstallscan/internal/health"
	"github.com/breeze-rmm/uninstallscan/internal/uninstaller"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

type sourceView struct {
	Source      string               `json:"source" yaml:"source"`
	DisplayName string               `json:"displayName" yaml:"displayName"`
	Skipped     bool                 `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	DurationMs  int64                `json:"durationMs" yaml:"durationMs"`
	Entries     []*uninstaller.Entry `json:"entries" yaml:"entries"`
}

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func writeResults(w io.Writer, format string, results []uninstaller.Result) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sourceViews(results))
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(sourceViews(results)); err != nil {
			return err
		}
		return enc.Close()
	case formatTable:
		return writeTable(w, results)
	default:
		return checkFormat(format)
	}
}

func sourceViews(results []uninstaller.Result) []sourceView {
	views := make([]sourceView, 0, len(results))
	for _, r := range results {
		entries := r.Entries
		if entries == nil {
			entries = []*uninstaller.Entry{}
		}
		views = append(views, sourceView{
			Source:      r.FactoryID,
			DisplayName: r.DisplayName,
			Skipped:     r.Skipped,
			DurationMs:  r.Duration.Milliseconds(),
			Entries:     entries,
		})
	}
	return views
}

func writeTable(w io.Writer, results []uninstaller.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tNAME\tVERSION\tPUBLISHER\tPROTECTED\tUNINSTALL")

	total := 0
	for _, r := range results {
		for _, e := range r.Entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.DisplayName, e.RawDisplayName, dash(e.DisplayVersion), dash(e.Publisher), yesNo(e.IsProtected), e.UninstallString)
			total++
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d application(s)\n", total)
	return err
}

func writeHealth(w io.Writer, checks []health.Check) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tSTATUS\tMESSAGE")
	for _, c := range checks {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Status, c.Message)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
