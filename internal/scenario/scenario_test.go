package scenario_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/eventemitter/internal/eventbus"
	"github.com/shaharia-lab/eventemitter/internal/scenario"
)

func TestParse(t *testing.T) {
	data := []byte(`
name: basic
handlers:
  audit: {}
  tap: {wildcard: true, fail: nope}
steps:
  - on: {type: user.created, handler: audit}
  - emit: {type: user.created, payload: {id: "1"}}
  - off: {type: user.created}
expect:
  - audit user.created id=1
`)

	s, err := scenario.Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "basic", s.Name)
	require.Len(t, s.Steps, 3)
	assert.Equal(t, "on", s.Steps[0].Op())
	assert.Equal(t, "emit", s.Steps[1].Op())
	assert.Equal(t, "off", s.Steps[2].Op())
	assert.Equal(t, eventbus.EventType("user.created"), s.Steps[1].EventType())
	assert.Equal(t, scenario.Payload{"id": "1"}, s.Steps[1].Emit.Payload)
	assert.Empty(t, s.Steps[2].Off.Handler)
	assert.True(t, s.Handlers["tap"].Wildcard)
	assert.Equal(t, "nope", s.Handlers["tap"].Fail)
	assert.Equal(t, []string{"audit user.created id=1"}, s.Expect)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		field string
	}{
		{
			name:  "no steps",
			data:  `name: empty`,
			field: "steps",
		},
		{
			name:  "empty document",
			data:  ``,
			field: "steps",
		},
		{
			name:  "step without operation",
			data:  "steps:\n  - {}\n",
			field: "steps[0]",
		},
		{
			name: "step with two operations",
			data: `
handlers: {h: {}}
steps:
  - on: {type: a, handler: h}
    emit: {type: a}
`,
			field: "steps[0]",
		},
		{
			name:  "missing type",
			data:  "steps:\n  - emit: {payload: {a: b}}\n",
			field: "steps[0].emit.type",
		},
		{
			name:  "on without handler",
			data:  "steps:\n  - on: {type: a}\n",
			field: "steps[0].on.handler",
		},
		{
			name:  "unknown handler",
			data:  "steps:\n  - off: {type: a, handler: ghost}\n",
			field: "steps[0].off.handler",
		},
		{
			name: "unknown handler in actions",
			data: `
handlers:
  h:
    actions:
      - on: {type: a, handler: ghost}
steps:
  - on: {type: a, handler: h}
`,
			field: "handlers.h.actions[0].on.handler",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scenario.Parse([]byte(tt.data))
			require.Error(t, err)

			var verr *scenario.ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := scenario.Parse([]byte("steps:\n  - emitt: {type: a}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing scenario")
}

func TestParse_UnquotedWildcard(t *testing.T) {
	// A bare * is a YAML alias and must be quoted.
	_, err := scenario.Parse([]byte("handlers: {h: {}}\nsteps:\n  - on: {type: *, handler: h}\n"))
	require.Error(t, err)
}

func TestLoad_DefaultName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signup-flow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps:\n  - emit: {type: a}\n"), 0600))

	s, err := scenario.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "signup-flow", s.Name)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := scenario.Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading scenario file")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: x\n"), 0600))
	_, err = scenario.Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scenario")

	var verr *scenario.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0600))
	}
	write("b.yml", "steps:\n  - emit: {type: b}\n")
	write("a.yaml", "steps:\n  - emit: {type: a}\n")
	write("notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0750))

	scenarios, err := scenario.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "a", scenarios[0].Name)
	assert.Equal(t, "b", scenarios[1].Name)
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := scenario.LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading scenario directory")
}

func TestStepError(t *testing.T) {
	cause := errors.New("boom")
	err := &scenario.StepError{Index: 3, Op: "emit", Type: "user.created", Err: cause}

	assert.Equal(t, "step 3 (emit user.created): boom", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *scenario.ValidationError
		expected string
	}{
		{
			name:     "with field and message",
			err:      &scenario.ValidationError{Field: "steps", Message: "at least one step is required"},
			expected: `validation error for "steps": at least one step is required`,
		},
		{
			name:     "without field",
			err:      &scenario.ValidationError{Message: "bad document"},
			expected: "bad document",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}
