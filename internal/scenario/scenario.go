// Package scenario loads YAML scripts of on/off/emit steps and runs them
// against an eventbus.Emitter, recording every handler invocation.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shaharia-lab/eventemitter/internal/eventbus"
)

// Payload is the event payload used by scenarios. A nil map is an absent payload.
type Payload = map[string]string

// Scenario is a parsed scenario file.
type Scenario struct {
	Name     string                 `yaml:"name"`
	Handlers map[string]HandlerSpec `yaml:"handlers"`
	Steps    []Step                 `yaml:"steps"`
	Expect   []string               `yaml:"expect"`
}

// HandlerSpec declares a named recording handler.
type HandlerSpec struct {
	// Wildcard selects the (type, payload) handler shape.
	Wildcard bool `yaml:"wildcard"`
	// Fail makes the handler return an error with this message after recording.
	Fail string `yaml:"fail"`
	// Actions run inside the handler, after recording and before Fail.
	Actions []Step `yaml:"actions"`
}

// Step holds exactly one operation.
type Step struct {
	On   *Binding  `yaml:"on,omitempty"`
	Off  *Binding  `yaml:"off,omitempty"`
	Emit *Emission `yaml:"emit,omitempty"`
}

// Binding names an event type and, optionally, a handler.
type Binding struct {
	Type    eventbus.EventType `yaml:"type"`
	Handler string             `yaml:"handler"`
}

// Emission is an emit step.
type Emission struct {
	Type    eventbus.EventType `yaml:"type"`
	Payload Payload            `yaml:"payload"`
}

// Op returns the step's operation name, or "" if none is set.
func (s Step) Op() string {
	switch {
	case s.On != nil:
		return "on"
	case s.Off != nil:
		return "off"
	case s.Emit != nil:
		return "emit"
	}
	return ""
}

// EventType returns the event type the step operates on.
func (s Step) EventType() eventbus.EventType {
	switch {
	case s.On != nil:
		return s.On.Type
	case s.Off != nil:
		return s.Off.Type
	case s.Emit != nil:
		return s.Emit.Type
	}
	return ""
}

// Parse unmarshals and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads the scenario at path. The name defaults to the file name.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the CLI user
	if err != nil {
		return nil, fmt.Errorf("reading scenario file %q: %w", path, err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// LoadDir loads every *.yaml and *.yml file in dir, ordered by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario directory %q: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		s, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validate(s *Scenario) error {
	if len(s.Steps) == 0 {
		return &ValidationError{Field: "steps", Message: "at least one step is required"}
	}
	if err := validateSteps(s, "steps", s.Steps); err != nil {
		return err
	}

	names := make([]string, 0, len(s.Handlers))
	for name := range s.Handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		field := fmt.Sprintf("handlers.%s.actions", name)
		if err := validateSteps(s, field, s.Handlers[name].Actions); err != nil {
			return err
		}
	}
	return nil
}

func validateSteps(s *Scenario, field string, steps []Step) error {
	for i, step := range steps {
		f := fmt.Sprintf("%s[%d]", field, i)

		set := 0
		for _, ok := range []bool{step.On != nil, step.Off != nil, step.Emit != nil} {
			if ok {
				set++
			}
		}
		if set != 1 {
			return &ValidationError{Field: f, Message: "exactly one of on, off or emit must be set"}
		}

		if step.EventType() == "" {
			return &ValidationError{Field: f + "." + step.Op() + ".type", Message: "event type is required"}
		}

		var b *Binding
		switch {
		case step.On != nil:
			b = step.On
			if b.Handler == "" {
				return &ValidationError{Field: f + ".on.handler", Message: "handler is required"}
			}
		case step.Off != nil:
			b = step.Off
		}
		if b != nil && b.Handler != "" {
			if _, ok := s.Handlers[b.Handler]; !ok {
				return &ValidationError{
					Field:   f + "." + step.Op() + ".handler",
					Message: fmt.Sprintf("unknown handler %q", b.Handler),
				}
			}
		}
	}
	return nil
}
