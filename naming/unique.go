// ABOUTME: Collision-free opportunity names via numbered suffixes
// ABOUTME: Consults a uniqueness checker, usually backed by the opportunities table
package naming

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/crmactivity/models"
)

// MaxUniqueAttempts bounds the number of candidates checked.
const MaxUniqueAttempts = 10

var ErrNoUniqueName = errors.New("could not generate unique name")

// UniquenessChecker reports whether an opportunity already uses name.
type UniquenessChecker interface {
	OpportunityNameTaken(ctx context.Context, name string) (bool, error)
}

// CheckerFunc adapts a function to UniquenessChecker.
type CheckerFunc func(ctx context.Context, name string) (bool, error)

func (f CheckerFunc) OpportunityNameTaken(ctx context.Context, name string) (bool, error) {
	return f(ctx, name)
}

// GenerateUniqueName returns the generated name when the checker reports it
// free. A collision on the base name is confirmed by a second check, after
// which "name (2)", "name (3)", ... are tried in turn. Every check counts
// towards MaxUniqueAttempts.
func (g *Generator) GenerateUniqueName(ctx context.Context, opts models.NameGenerationOptions, checker UniquenessChecker) (string, error) {
	base := g.GenerateName(opts)

	for attempt := 1; attempt <= MaxUniqueAttempts; attempt++ {
		candidate := base
		if attempt > 2 {
			candidate = fmt.Sprintf("%s (%d)", base, attempt-1)
		}

		taken, err := checker.OpportunityNameTaken(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check name %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w for %q after %d attempts", ErrNoUniqueName, base, MaxUniqueAttempts)
}
