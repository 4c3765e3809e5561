package diag

import "fmt"

// Severity classifies a diagnostic. Errors make the package invalid,
// warnings are advisory and never flip the verdict.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one validation finding. Emission order is preserved and
// nothing is deduplicated.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Aggregator collects diagnostics across all validation passes of a run.
// It is a plain value threaded through the checks; there is no shared
// global state, so independent documents could be validated concurrently
// with one aggregator each and merged afterwards.
type Aggregator struct {
	diags []Diagnostic
}

// Errorf records an error-severity diagnostic.
func (a *Aggregator) Errorf(format string, args ...interface{}) {
	a.diags = append(a.diags, Diagnostic{Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
}

// Warnf records a warning-severity diagnostic.
func (a *Aggregator) Warnf(format string, args ...interface{}) {
	a.diags = append(a.diags, Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

// Merge appends every diagnostic from other, keeping its order.
func (a *Aggregator) Merge(other *Aggregator) {
	if other == nil {
		return
	}
	a.diags = append(a.diags, other.diags...)
}

// Diagnostics returns all findings in emission order.
func (a *Aggregator) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(a.diags))
	copy(out, a.diags)
	return out
}

// Errors returns the messages of all error-severity findings.
func (a *Aggregator) Errors() []string { return a.messages(SeverityError) }

// Warnings returns the messages of all warning-severity findings.
func (a *Aggregator) Warnings() []string { return a.messages(SeverityWarning) }

func (a *Aggregator) messages(sev Severity) []string {
	out := []string{}
	for _, d := range a.diags {
		if d.Severity == sev {
			out = append(out, d.Message)
		}
	}
	return out
}

// Valid reports whether no error-severity diagnostic was recorded.
func (a *Aggregator) Valid() bool {
	for _, d := range a.diags {
		if d.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Counts holds the document census of a package.
type Counts struct {
	TDF      int `json:"tdf"`
	Stimulus int `json:"stimulus"`
	Media    int `json:"media"`
}

// Summary is the caller-facing result of a validation run.
type Summary struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Counts   Counts   `json:"counts"`
}

// Summary folds the aggregator into its final, immutable form.
func (a *Aggregator) Summary(counts Counts) Summary {
	return Summary{
		Valid:    a.Valid(),
		Errors:   a.Errors(),
		Warnings: a.Warnings(),
		Counts:   counts,
	}
}
