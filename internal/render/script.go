// SPDX-License-Identifier: MIT
package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"audiodemo/internal/event"
)

// Cue is one event at a frame index, the unit of both input scripts and
// the LED log.
type Cue struct {
	Frame int
	Event event.Event
}

type cueYAML struct {
	Frame int    `yaml:"frame"`
	Event string `yaml:"event"`
}

type scriptYAML struct {
	Events []cueYAML `yaml:"events"`
}

// Script is a list of button cues ordered by frame. Cues on the same frame
// keep their file order.
type Script []Cue

// LoadScript reads a YAML event script such as
//
//	events:
//	  - {frame: 0, event: button2_down}
//	  - {frame: 40, event: button3_down}
func LoadScript(path string) (Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	defer f.Close()
	return ParseScript(f)
}

// ParseScript decodes a script. Only button events are accepted.
func ParseScript(r io.Reader) (Script, error) {
	var doc scriptYAML
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}

	script := make(Script, 0, len(doc.Events))
	var errs []error
	for i, c := range doc.Events {
		ev, err := event.Parse(c.Event)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("events[%d]: %w", i, err))
		case !ev.IsButton():
			errs = append(errs, fmt.Errorf("events[%d]: %s is not a button event", i, ev))
		case c.Frame < 0:
			errs = append(errs, fmt.Errorf("events[%d]: negative frame %d", i, c.Frame))
		default:
			script = append(script, Cue{Frame: c.Frame, Event: ev})
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}

	slices.SortStableFunc(script, func(a, b Cue) int { return a.Frame - b.Frame })
	return script, nil
}

// WriteCues writes cues in the script format, so a LED log can be read
// back with ParseScript-compatible tooling.
func WriteCues(w io.Writer, cues []Cue) error {
	doc := scriptYAML{Events: make([]cueYAML, len(cues))}
	for i, c := range cues {
		doc.Events[i] = cueYAML{Frame: c.Frame, Event: c.Event.String()}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write events: %w", err)
	}
	return enc.Close()
}
