package credentials

import (
	"context"

	"github.com/sourcegraph/conc"

	"reviewero/internal/apperr"
)

// Validator checks one service's key with a live call.
type Validator interface {
	Validate(ctx context.Context) error
}

// Result is the outcome of validating one service.
type Result struct {
	Service string
	Err     error
}

// OK reports whether the key was accepted.
func (r Result) OK() bool { return r.Err == nil }

// ValidateAll runs every validator concurrently and waits for all of them.
// Results follow the order of Services; services without a validator are skipped.
func ValidateAll(ctx context.Context, validators map[string]Validator) []Result {
	var results []Result
	for _, service := range Services {
		if validators[service] != nil {
			results = append(results, Result{Service: service})
		}
	}

	var wg conc.WaitGroup
	for i := range results {
		r := &results[i]
		v := validators[r.Service]
		wg.Go(func() {
			if err := v.Validate(ctx); err != nil {
				r.Err = apperr.Classify(r.Service, err)
			}
		})
	}
	wg.Wait()
	return results
}
