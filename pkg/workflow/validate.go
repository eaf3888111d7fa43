package workflow

import (
	"strings"

	"github.com/matzehuels/vesselflow/pkg/errors"
)

// Validation is the outcome of checking an import before anything is built.
type Validation struct {
	Valid bool `json:"valid"`
	// Missing lists "<module_file>::<module_type>" keys that the catalog
	// does not define.
	Missing []string `json:"missing"`
	// Unmapped lists vessel types with no config entry.
	Unmapped []string `json:"unmapped,omitempty"`
}

// Err returns nil for a valid result and a MODULE_NOT_FOUND error otherwise.
func (v Validation) Err() error {
	if v.Valid {
		return nil
	}
	var parts []string
	if len(v.Missing) > 0 {
		parts = append(parts, "missing modules: "+strings.Join(v.Missing, ", "))
	}
	if len(v.Unmapped) > 0 {
		parts = append(parts, "unmapped vessel types: "+strings.Join(v.Unmapped, ", "))
	}
	return errors.New(errors.ErrCodeModuleNotFound, "%s", strings.Join(parts, "; "))
}

// Validate checks that every config entry refers to a catalog module and
// that every vessel type has a config entry. It never mutates its inputs and
// must run before BuildNodes.
func Validate(catalog Catalog, config Config, vessels []Vessel) Validation {
	idx := catalog.Index()

	missing := newOrderedSet()
	for _, entry := range config {
		if _, ok := idx[entry.Key()]; !ok {
			missing.add(entry.Key())
		}
	}

	unmapped := newOrderedSet()
	for _, v := range vessels {
		if _, ok := config.Lookup(v.VesselType); !ok {
			unmapped.add(v.VesselType)
		}
	}

	return Validation{
		Valid:    missing.len() == 0 && unmapped.len() == 0,
		Missing:  missing.items,
		Unmapped: unmapped.items,
	}
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet { return &orderedSet{seen: make(map[string]bool)} }

func (s *orderedSet) add(v string) {
	if !s.seen[v] {
		s.seen[v] = true
		s.items = append(s.items, v)
	}
}

func (s *orderedSet) len() int { return len(s.items) }
