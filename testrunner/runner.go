// Package testrunner runs JavaScript scenario files against a databind
// enabled engine. A scenario starts with YAML frontmatter between /*--- and
// ---*/ describing the host classes it needs and what it expects.
package testrunner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/example/jsbind/databind"
	"github.com/example/jsbind/engine"
	"github.com/example/jsbind/host"
	"github.com/example/jsbind/hostlib"
	"github.com/example/jsbind/interpreter"
	"github.com/example/jsbind/logging"
	"github.com/example/jsbind/runtime"
)

type Result int

const (
	Pass Result = iota
	Fail
	Skip
	Error
)

func (r Result) String() string {
	switch r {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case Skip:
		return "SKIP"
	case Error:
		return "ERROR"
	}
	return "UNKNOWN"
}

type TestResult struct {
	Path    string
	Result  Result
	Message string
	Elapsed time.Duration
}

type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
	Errors  int
	Elapsed time.Duration
}

type Config struct {
	Dir     string
	Filter  string
	Limit   int
	Verbose bool
	Timeout time.Duration
	Logger  logging.Logger
}

// Metadata is the scenario frontmatter.
type Metadata struct {
	Description string   `yaml:"description"`
	Classes     []string `yaml:"classes"`
	Flags       []string `yaml:"flags"`
	Expected    *string  `yaml:"expected"`
	Negative    struct {
		Type    string `yaml:"type"`
		Message string `yaml:"message"`
	} `yaml:"negative"`
}

// harness is evaluated before every scenario.
const harness = `
function assert(cond, msg) {
	if (!cond) { throw new Error("assertion failed" + (msg ? ": " + msg : "")); }
}
assert.sameValue = function(actual, expected, msg) {
	if (actual !== expected) {
		throw new Error("expected " + expected + " but got " + actual + (msg ? ": " + msg : ""));
	}
};
assert.throws = function(name, fn) {
	try { fn(); } catch (e) {
		if (e.name !== name) { throw new Error("expected " + name + " but got " + e.name + ": " + e.message); }
		return;
	}
	throw new Error("expected " + name + " to be thrown");
};
`

// Run discovers the scenarios under cfg.Dir and runs them in path order.
func Run(cfg Config) ([]TestResult, Summary) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NoOpLogger{}
	}
	logger := logging.Component(cfg.Logger, "testrunner")

	var files []string
	_ = filepath.WalkDir(cfg.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".js") {
			return nil
		}
		if cfg.Filter != "" {
			rel, _ := filepath.Rel(cfg.Dir, path)
			if !strings.Contains(rel, cfg.Filter) {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	sort.Strings(files)
	if cfg.Limit > 0 && len(files) > cfg.Limit {
		files = files[:cfg.Limit]
	}

	start := time.Now()
	var results []TestResult
	summary := Summary{Total: len(files)}
	for _, path := range files {
		rel, _ := filepath.Rel(cfg.Dir, path)
		tr := runScenario(path, rel, cfg.Timeout, logger)
		results = append(results, tr)

		switch tr.Result {
		case Pass:
			summary.Passed++
		case Fail:
			summary.Failed++
		case Skip:
			summary.Skipped++
		case Error:
			summary.Errors++
		}
		logger.Debug("scenario finished", "path", rel, "result", tr.Result.String(), "elapsed", tr.Elapsed)

		if cfg.Verbose {
			msg := ""
			if tr.Message != "" {
				msg = " " + tr.Message
			}
			fmt.Printf("%s %s%s\n", tr.Result, rel, msg)
		}
	}
	summary.Elapsed = time.Since(start)
	return results, summary
}

func runScenario(path, rel string, timeout time.Duration, logger logging.Logger) TestResult {
	source, err := os.ReadFile(path)
	if err != nil {
		return TestResult{Path: rel, Result: Error, Message: "read error: " + err.Error()}
	}
	meta, err := ParseMetadata(string(source))
	if err != nil {
		return TestResult{Path: rel, Result: Error, Message: err.Error()}
	}
	for _, flag := range meta.Flags {
		if flag == "skip" {
			return TestResult{Path: rel, Result: Skip, Message: meta.Description}
		}
	}

	reg := host.NewRegistry()
	if err := hostlib.Register(reg); err != nil {
		return TestResult{Path: rel, Result: Error, Message: err.Error()}
	}
	loop := engine.NewLoop(engine.NewContext(), func(o *engine.LoopOptions) { o.Logger = logger })
	db := databind.New(reg, loop, func(o *databind.Options) { o.Logger = logger })

	loopCtx, stop := context.WithCancel(context.Background())
	g, _ := errgroup.WithContext(loopCtx)
	g.Go(func() error {
		if err := loop.Run(loopCtx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	runCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	started := time.Now()
	var value *runtime.Value
	evalErr := loop.Do(runCtx, func(c *engine.Context) error {
		c.Interpreter().RegisterNative("print", func(_ *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = a.ToString()
			}
			logger.Info(strings.Join(parts, " "), "scenario", rel)
			return runtime.Undefined, nil
		})
		if err := db.InstallAPI(c, "host"); err != nil {
			return err
		}
		for _, name := range meta.Classes {
			class, ok := reg.Lookup(name)
			if !ok {
				return fmt.Errorf("unknown class %q", name)
			}
			if err := db.ExposeClass(c, name, class.Type); err != nil {
				return err
			}
		}
		var err error
		value, err = c.Eval(harness + string(source))
		return err
	})
	elapsed := time.Since(started)
	if errors.Is(evalErr, context.DeadlineExceeded) {
		// The loop is stuck in the scenario; leave it behind.
		stop()
		return TestResult{Path: rel, Result: Error, Message: fmt.Sprintf("timeout (%s)", timeout), Elapsed: elapsed}
	}
	stop()
	if err := g.Wait(); err != nil {
		return TestResult{Path: rel, Result: Error, Message: err.Error(), Elapsed: elapsed}
	}

	tr := TestResult{Path: rel, Result: Pass, Elapsed: elapsed}
	if msg := check(meta, value, evalErr); msg != "" {
		tr.Result = Fail
		tr.Message = msg
	}
	return tr
}

// check compares the outcome of a scenario with its metadata and returns a
// failure message, or "" when the outcome matches.
func check(meta Metadata, value *runtime.Value, err error) string {
	if meta.Negative.Type != "" {
		if err == nil {
			return "expected " + meta.Negative.Type + " to be thrown"
		}
		name, message := thrown(err)
		if name != meta.Negative.Type {
			return fmt.Sprintf("expected %s but got %s: %s", meta.Negative.Type, name, message)
		}
		if meta.Negative.Message != "" && !strings.Contains(message, meta.Negative.Message) {
			return fmt.Sprintf("message %q does not contain %q", message, meta.Negative.Message)
		}
		return ""
	}
	if err != nil {
		return err.Error()
	}
	if meta.Expected != nil && value.ToString() != *meta.Expected {
		return fmt.Sprintf("expected result %q but got %q", *meta.Expected, value.ToString())
	}
	return ""
}

func thrown(err error) (name, message string) {
	v, ok := interpreter.ThrownValue(err)
	if !ok || v.Type != runtime.TypeObject || v.Object == nil {
		return "", err.Error()
	}
	return v.Object.Get("name").ToString(), v.Object.Get("message").ToString()
}

// ParseMetadata decodes the frontmatter of a scenario. Sources without
// frontmatter have empty metadata.
func ParseMetadata(source string) (Metadata, error) {
	var meta Metadata
	startIdx := strings.Index(source, "/*---")
	if startIdx < 0 {
		return meta, nil
	}
	endIdx := strings.Index(source[startIdx:], "---*/")
	if endIdx < 0 {
		return meta, errors.New("unterminated frontmatter")
	}
	if err := yaml.Unmarshal([]byte(source[startIdx+5:startIdx+endIdx]), &meta); err != nil {
		return meta, fmt.Errorf("frontmatter: %w", err)
	}
	return meta, nil
}
