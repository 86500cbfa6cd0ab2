package formts

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Compose runs rules concurrently and merges every failure into one
// FieldError with code "compose" and the individual failures as Issues,
// in rule order. The composed rule runs on the union of the rules'
// triggers and reads the union of their dependencies; each inner rule
// still only runs on its own triggers.
//
// If any rule returns an error, the others are canceled and the first
// error is returned.
func Compose(name string, rules ...Rule) Rule {
	var (
		triggers []Trigger
		deps     []string
		always   bool
	)
	for _, r := range rules {
		if len(r.Triggers) == 0 {
			always = true
		}
		for _, t := range r.Triggers {
			if !slices.Contains(triggers, t) {
				triggers = append(triggers, t)
			}
		}
		for _, d := range r.Deps {
			if !slices.Contains(deps, d) {
				deps = append(deps, d)
			}
		}
	}
	if always {
		triggers = nil
	}

	return Rule{
		Name:     name,
		Triggers: triggers,
		Deps:     deps,
		Check: func(ctx context.Context, in Input) (*FieldError, error) {
			results := make([]*FieldError, len(rules))
			g, gctx := errgroup.WithContext(ctx)
			for i, r := range rules {
				if !r.runsOn(in.Trigger) {
					continue
				}
				g.Go(func() error {
					res, err := r.Check(gctx, in)
					if err != nil {
						return fmt.Errorf("%s: %w", r.Name, err)
					}
					results[i] = res
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return nil, err
			}

			var issues []*FieldError
			for _, res := range results {
				if res != nil {
					issues = append(issues, res)
				}
			}
			if len(issues) == 0 {
				return nil, nil
			}
			return &FieldError{Code: CodeCompose, Params: map[string]any{"rule": name}, Issues: issues}, nil
		},
	}
}
