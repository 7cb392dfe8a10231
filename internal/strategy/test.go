package strategy

import (
	"fmt"
	"log"
	"testing"
	"time"

	"pgregory.net/rapid"

	"apifuzz/internal/types"
)

// TestFunc runs one generated case to completion synchronously.
type TestFunc func(*types.Case) error

// AsyncTestFunc starts work on a generated case and reports completion on the
// returned channel.
type AsyncTestFunc func(*types.Case) <-chan error

// Settings tunes how a built test is driven. The zero value means defaults.
type Settings struct {
	// MaxCases, when positive, replaces randomized exploration with a fixed
	// number of deterministic draws.
	MaxCases int
	// Deadline, when positive, fails any case taking longer than it.
	Deadline time.Duration
	Verbose  bool
}

// RunnableTest is a ready-to-run property test over generated cases.
type RunnableTest func(*testing.T)

// BuildTest wraps a test function and an endpoint into a runnable property
// test: schema-declared examples always run first, then generated cases.
// Asynchronous test functions are driven to completion before the driver
// observes a result, so the driver only ever calls synchronous code.
//
// testFn must be a TestFunc or an AsyncTestFunc (or their underlying
// function types).
func BuildTest(endpoint *types.Endpoint, testFn interface{}, settings *Settings) (RunnableTest, error) {
	fn, err := adaptTestFunc(testFn)
	if err != nil {
		return nil, err
	}
	caseGen, err := BuildCaseStrategy(endpoint)
	if err != nil {
		return nil, err
	}
	examples, err := Examples(endpoint)
	if err != nil {
		return nil, err
	}

	run := applySettings(fn, settings)
	return func(t *testing.T) {
		for _, c := range examples {
			if err := run(c); err != nil {
				t.Errorf("example case %s %s: %v", c.Method, c.Path, err)
			}
		}
		if settings != nil && settings.MaxCases > 0 {
			for i := 0; i < settings.MaxCases; i++ {
				if err := run(caseGen.Example(i)); err != nil {
					t.Errorf("case %d for %s %s: %v", i, endpoint.Method, endpoint.Path, err)
				}
			}
			return
		}
		rapid.Check(t, func(rt *rapid.T) {
			c := caseGen.Draw(rt, "case")
			if err := run(c); err != nil {
				rt.Fatalf("case %s %s: %v", c.Method, c.Path, err)
			}
		})
	}, nil
}

func adaptTestFunc(testFn interface{}) (TestFunc, error) {
	switch fn := testFn.(type) {
	case TestFunc:
		return fn, nil
	case func(*types.Case) error:
		return fn, nil
	case AsyncTestFunc:
		return makeSyncTest(fn), nil
	case func(*types.Case) <-chan error:
		return makeSyncTest(fn), nil
	}
	return nil, fmt.Errorf("unsupported test function type %T", testFn)
}

// makeSyncTest blocks until the asynchronous computation resolves. No partial
// results are observable and the function is never re-entered concurrently.
func makeSyncTest(fn AsyncTestFunc) TestFunc {
	return func(c *types.Case) error {
		return <-fn(c)
	}
}

func applySettings(fn TestFunc, settings *Settings) TestFunc {
	if settings == nil {
		return fn
	}
	deadline := settings.Deadline
	verbose := settings.Verbose
	return func(c *types.Case) error {
		if verbose {
			log.Printf("running case %s: %s %s", c.ID, c.Method, c.Path)
		}
		start := time.Now()
		err := fn(c)
		if err == nil && deadline > 0 {
			if elapsed := time.Since(start); elapsed > deadline {
				return fmt.Errorf("case took %s, exceeding the %s deadline", elapsed, deadline)
			}
		}
		return err
	}
}
