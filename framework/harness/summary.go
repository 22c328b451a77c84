package harness

import (
	"io"
	"os"

	yaml "gopkg.in/yaml.v3"
)

type summaryDoc struct {
	RunID            string              `yaml:"run_id"`
	OutputDir        string              `yaml:"output_dir"`
	ConfigFile       string              `yaml:"config_file,omitempty"`
	Suites           []string            `yaml:"suites"`
	Plan             []planSummary       `yaml:"plan,omitempty"`
	Passed           int                 `yaml:"passed"`
	Failed           []string            `yaml:"failed,omitempty"`
	Skipped          []string            `yaml:"skipped,omitempty"`
	Aborted          bool                `yaml:"aborted"`
	SuspectedCrashes map[string][]string `yaml:"suspected_crashes,omitempty"`
	Golden           *goldenSummary      `yaml:"golden,omitempty"`
}

type planSummary struct {
	Suite     string   `yaml:"suite"`
	Enabled   int      `yaml:"enabled"`
	Suspected []string `yaml:"suspected,omitempty"`
}

type goldenSummary struct {
	Compared int      `yaml:"compared"`
	Missing  []string `yaml:"missing,omitempty"`
	Differ   []string `yaml:"differ,omitempty"`
	Errors   []string `yaml:"errors,omitempty"`
}

func (o Outcome) summary() summaryDoc {
	doc := summaryDoc{
		RunID:      o.RunID.String(),
		OutputDir:  o.OutputDir,
		ConfigFile: o.ConfigPath,
		Suites:     o.Suites,
		Passed:     len(o.Results.Tests) - len(o.Results.Failures),
		Aborted:    o.Results.Aborted,
	}
	for _, p := range o.Plan {
		doc.Plan = append(doc.Plan, planSummary{Suite: p.Name, Enabled: len(p.Enabled), Suspected: p.Suspected})
	}
	for _, f := range o.Results.Failures {
		doc.Failed = append(doc.Failed, f.TestID.String())
	}
	for _, s := range o.Results.Skipped {
		doc.Skipped = append(doc.Skipped, s.TestID.String())
	}
	if o.SuspectedCrashes.Len() != 0 {
		doc.SuspectedCrashes = make(map[string][]string)
		for _, suite := range o.SuspectedCrashes.Suites() {
			doc.SuspectedCrashes[suite] = o.SuspectedCrashes.Tests(suite)
		}
	}
	if o.Golden != nil {
		g := &goldenSummary{Compared: len(o.Golden)}
		for _, r := range o.Golden {
			switch {
			case r.MissingGolden:
				g.Missing = append(g.Missing, r.Path)
			case r.Err != nil:
				g.Errors = append(g.Errors, r.Path+": "+r.Err.Error())
			case !r.Match():
				g.Differ = append(g.Differ, r.Path)
			}
		}
		doc.Golden = g
	}
	return doc
}

// WriteSummary writes the outcome as YAML.
func (o Outcome) WriteSummary(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(o.summary()); err != nil {
		return err
	}
	return enc.Close()
}

func (o Outcome) WriteSummaryFile(path string) error {
	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return err
	}
	if err := o.WriteSummary(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
