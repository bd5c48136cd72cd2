package errors

import (
	"fmt"
	"strings"
)

// Reason explains why an import could not be bound
type Reason string

const (
	ReasonMissing           Reason = "missing"
	ReasonSignatureMismatch Reason = "signature mismatch"
	ReasonArityMismatch     Reason = "arity mismatch"
	ReasonUnsupported       Reason = "unsupported import kind"
)

// ImportProblem represents a single unresolved or incompatible import
type ImportProblem struct {
	Namespace string // e.g., "bridge:text"
	Name      string // e.g., "parseNumber"
	Reason    Reason
	Detail    string // e.g., "want (i32) -> (f64), have (i32) -> (i32)"
}

// ImportErrors is returned when instantiation fails because the import table
// does not satisfy what the module requires. Every problem is listed.
type ImportErrors struct {
	Problems []ImportProblem
}

// NewMissingImports creates an error from a list of "namespace#name" strings
func NewMissingImports(keys []string) *ImportErrors {
	result := &ImportErrors{
		Problems: make([]ImportProblem, 0, len(keys)),
	}
	for _, key := range keys {
		ns, name := parseImportKey(key)
		result.Add(ns, name, ReasonMissing, "")
	}
	return result
}

// Add records a problem
func (e *ImportErrors) Add(namespace, name string, reason Reason, detail string) {
	e.Problems = append(e.Problems, ImportProblem{
		Namespace: namespace,
		Name:      name,
		Reason:    reason,
		Detail:    detail,
	})
}

// Empty reports whether no problems were recorded
func (e *ImportErrors) Empty() bool {
	return e == nil || len(e.Problems) == 0
}

// Missing returns the "namespace#name" keys of missing slots
func (e *ImportErrors) Missing() []string {
	var out []string
	for _, p := range e.Problems {
		if p.Reason == ReasonMissing {
			out = append(out, p.Namespace+"#"+p.Name)
		}
	}
	return out
}

func parseImportKey(key string) (namespace, name string) {
	ns, fn, found := strings.Cut(key, "#")
	if found {
		return ns, fn
	}
	return key, ""
}

func (e *ImportErrors) Error() string {
	if len(e.Problems) == 0 {
		return "[instantiate] missing_import: no imports specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("[instantiate] %d import slot(s) not satisfied:\n", len(e.Problems)))

	byNS := make(map[string][]ImportProblem)
	var nsOrder []string
	for _, p := range e.Problems {
		if _, exists := byNS[p.Namespace]; !exists {
			nsOrder = append(nsOrder, p.Namespace)
		}
		byNS[p.Namespace] = append(byNS[p.Namespace], p)
	}

	for _, ns := range nsOrder {
		b.WriteString("\n  ")
		b.WriteString(ns)
		b.WriteString(":\n")
		for _, p := range byNS[ns] {
			b.WriteString("    - ")
			b.WriteString(p.Name)
			b.WriteString(" (")
			b.WriteString(string(p.Reason))
			if p.Detail != "" {
				b.WriteString(": ")
				b.WriteString(p.Detail)
			}
			b.WriteString(")\n")
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type. An *Error with
// PhaseInstantiate and KindMissingImport also matches.
func (e *ImportErrors) Is(target error) bool {
	switch t := target.(type) {
	case *ImportErrors:
		return true
	case *Error:
		return t.Phase == PhaseInstantiate && t.Kind == KindMissingImport
	}
	return false
}
