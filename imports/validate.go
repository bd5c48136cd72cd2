package imports

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bridge/errors"
)

// ImportKind is the external kind of a module import.
type ImportKind uint8

const (
	ImportFunc ImportKind = iota
	ImportTable
	ImportMemory
	ImportGlobal
	ImportTag
)

func (k ImportKind) String() string {
	switch k {
	case ImportFunc:
		return "func"
	case ImportTable:
		return "table"
	case ImportMemory:
		return "memory"
	case ImportGlobal:
		return "global"
	case ImportTag:
		return "tag"
	}
	return "unknown"
}

// Requirement is one import a module declares.
type Requirement struct {
	Namespace string
	Name      string
	Kind      ImportKind
	Params    []api.ValueType
	Results   []api.ValueType
}

// Signature renders the required core signature.
func (r Requirement) Signature() string {
	return FormatSignature(r.Params, r.Results)
}

// Validate checks every requirement against t. Requirements in namespaces
// for which external reports true are satisfied by other module instances
// and skipped. All problems are returned together.
func Validate(t *Table, reqs []Requirement, external func(namespace string) bool) error {
	problems := &errors.ImportErrors{}
	for _, r := range reqs {
		if external != nil && external(r.Namespace) {
			continue
		}
		if r.Kind != ImportFunc {
			problems.Add(r.Namespace, r.Name, errors.ReasonUnsupported, r.Kind.String()+" imports are not provided by the host")
			continue
		}
		s, ok := t.Lookup(r.Namespace, r.Name)
		if !ok {
			problems.Add(r.Namespace, r.Name, errors.ReasonMissing, "want "+r.Signature())
			continue
		}
		have := s.ParamTypes()
		if len(have) != len(r.Params) {
			problems.Add(r.Namespace, r.Name, errors.ReasonArityMismatch,
				"want "+r.Signature()+", have "+s.Signature())
			continue
		}
		if !sameTypes(have, r.Params) || !sameTypes(s.ResultTypes(), r.Results) {
			problems.Add(r.Namespace, r.Name, errors.ReasonSignatureMismatch,
				"want "+r.Signature()+", have "+s.Signature())
		}
	}
	if problems.Empty() {
		return nil
	}
	return problems
}
