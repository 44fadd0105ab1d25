package domain

import (
	"fmt"
	"strings"
)

// Rule is a curation target: accepted examples whose intent matches the
// description closely enough are also stored in the bucket named after the rule.
type Rule struct {
	Name        string
	Description string
}

func (r Rule) Validate() error {
	if err := ValidateBucket(r.Name); err != nil {
		return fmt.Errorf("rule name: %w", err)
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("rule %q has no description", r.Name)
	}

	return nil
}
