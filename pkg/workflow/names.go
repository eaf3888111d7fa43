package workflow

import (
	"fmt"
	"strings"
)

// ParseNames splits a whitespace-separated vessel list, dropping duplicates
// and keeping first-seen order.
func ParseNames(field string) []string {
	fields := strings.Fields(field)
	if len(fields) == 0 {
		return nil
	}
	set := newOrderedSet()
	for _, f := range fields {
		set.add(f)
	}
	return set.items
}

// UniqueName returns base if it is not in existing, otherwise the first of
// base_1, base_2, ... that is free. It does not add the result to existing.
func UniqueName(base string, existing map[string]bool) string {
	name := base
	for i := 1; existing[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	return name
}
