package testrunner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadata(t *testing.T) {
	meta, err := ParseMetadata(`/*---
description: demo
classes: [Point, Counter]
expected: "7"
negative:
  type: TypeError
---*/
1 + 1;`)
	require.NoError(t, err)
	assert.Equal(t, "demo", meta.Description)
	assert.Equal(t, []string{"Point", "Counter"}, meta.Classes)
	require.NotNil(t, meta.Expected)
	assert.Equal(t, "7", *meta.Expected)
	assert.Equal(t, "TypeError", meta.Negative.Type)

	meta, err = ParseMetadata("1 + 1;")
	require.NoError(t, err)
	assert.Nil(t, meta.Expected)

	_, err = ParseMetadata("/*--- description: x")
	assert.Error(t, err)
}

func TestRunScenarios(t *testing.T) {
	results, summary := Run(Config{Dir: filepath.Join("testdata", "scenarios")})

	for _, r := range results {
		if r.Result == Skip {
			continue
		}
		assert.Equal(t, Pass, r.Result, "%s: %s", r.Path, r.Message)
	}
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, summary.Total-1, summary.Passed)
	assert.Zero(t, summary.Failed)
	assert.Zero(t, summary.Errors)
}

func TestRunFilterAndLimit(t *testing.T) {
	results, summary := Run(Config{Dir: filepath.Join("testdata", "scenarios"), Filter: "point"})
	require.Len(t, results, 1)
	assert.Equal(t, "point.js", results[0].Path)
	assert.Equal(t, 1, summary.Passed)

	results, _ = Run(Config{Dir: filepath.Join("testdata", "scenarios"), Limit: 2})
	assert.Len(t, results, 2)
}

func writeScenario(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
}

func TestRunReportsFailures(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a_wrong.js", "/*---\nexpected: \"2\"\n---*/\n1 + 2;")
	writeScenario(t, dir, "b_throws.js", "/*---\nnegative:\n  type: RangeError\n---*/\nthrow new TypeError('x');")
	writeScenario(t, dir, "c_missing_class.js", "/*---\nclasses: [Nope]\n---*/\n1;")
	writeScenario(t, dir, "d_loop.js", "while (true) {}")

	results, summary := Run(Config{Dir: dir, Timeout: 200 * time.Millisecond})
	require.Len(t, results, 4)
	assert.Equal(t, Fail, results[0].Result)
	assert.Contains(t, results[0].Message, `expected result "2" but got "3"`)
	assert.Equal(t, Fail, results[1].Result)
	assert.Contains(t, results[1].Message, "expected RangeError but got TypeError")
	assert.Equal(t, Fail, results[2].Result)
	assert.Contains(t, results[2].Message, "unknown class")
	assert.Equal(t, Error, results[3].Result)
	assert.Contains(t, results[3].Message, "timeout")
	assert.Equal(t, 3, summary.Failed)
	assert.Equal(t, 1, summary.Errors)
}
