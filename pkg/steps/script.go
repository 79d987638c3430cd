package steps

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTypeDelay is the pause between typed characters when a type step
// does not set one.
const DefaultTypeDelay = 50 * time.Millisecond

// actionDoc is one entry of the "actions" list as written in a script file.
type actionDoc struct {
	Type     string   `json:"type" yaml:"type"`
	MS       *float64 `json:"ms" yaml:"ms"`
	Y        *float64 `json:"y" yaml:"y"`
	Selector string   `json:"selector" yaml:"selector"`
	Text     string   `json:"text" yaml:"text"`
	Delay    *float64 `json:"delay" yaml:"delay"`
}

// Load reads a step script from path.
//
// An empty path or a file that does not exist yields an empty Script, which
// selects the fallback motion. Files ending in .yaml or .yml are decoded as
// YAML; everything else as JSON. A document whose "actions" field is missing
// or is not a list also yields an empty Script.
func Load(path string) (Script, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &ScriptError{Path: path, Index: -1, Err: err}
	}

	var docs []actionDoc
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		docs, err = decodeYAML(data)
	default:
		docs, err = decodeJSON(data)
	}
	if err != nil {
		return nil, &ScriptError{Path: path, Index: -1, Err: err}
	}

	script := make(Script, 0, len(docs))
	for i, doc := range docs {
		step, err := doc.toStep()
		if err != nil {
			return nil, &ScriptError{Path: path, Index: i, Err: err}
		}
		script = append(script, step)
	}
	return script, nil
}

func decodeJSON(data []byte) ([]actionDoc, error) {
	var doc struct {
		Actions json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	raw := bytes.TrimSpace(doc.Actions)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, nil
	}

	var actions []actionDoc
	if err := json.Unmarshal(raw, &actions); err != nil {
		return nil, fmt.Errorf("failed to parse actions: %w", err)
	}
	return actions, nil
}

func decodeYAML(data []byte) ([]actionDoc, error) {
	var doc struct {
		Actions yaml.Node `yaml:"actions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if doc.Actions.Kind != yaml.SequenceNode {
		return nil, nil
	}

	var actions []actionDoc
	if err := doc.Actions.Decode(&actions); err != nil {
		return nil, fmt.Errorf("failed to parse actions: %w", err)
	}
	return actions, nil
}

func (d actionDoc) toStep() (Step, error) {
	switch Kind(d.Type) {
	case KindWait:
		if d.MS == nil {
			return nil, fmt.Errorf("wait requires ms")
		}
		dur, err := millis("ms", *d.MS)
		if err != nil {
			return nil, err
		}
		return Wait{Duration: dur}, nil

	case KindScroll:
		if d.Y == nil {
			return nil, fmt.Errorf("scroll requires y")
		}
		s := Scroll{Y: int(math.Round(*d.Y))}
		if d.MS != nil {
			settle, err := millis("ms", *d.MS)
			if err != nil {
				return nil, err
			}
			s.Settle = settle
		}
		return s, nil

	case KindClick:
		if strings.TrimSpace(d.Selector) == "" {
			return nil, fmt.Errorf("click requires selector")
		}
		return Click{Selector: d.Selector}, nil

	case KindType:
		if strings.TrimSpace(d.Selector) == "" {
			return nil, fmt.Errorf("type requires selector")
		}
		t := Type{Selector: d.Selector, Text: d.Text, Delay: DefaultTypeDelay}
		if d.Delay != nil {
			delay, err := millis("delay", *d.Delay)
			if err != nil {
				return nil, err
			}
			t.Delay = delay
		}
		return t, nil

	case "":
		return nil, fmt.Errorf("missing type")

	default:
		return nil, fmt.Errorf("unknown step type %q (must be wait, scroll, click or type)", d.Type)
	}
}

func millis(field string, v float64) (time.Duration, error) {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a non-negative number of milliseconds, got %v", field, v)
	}
	return time.Duration(v * float64(time.Millisecond)), nil
}
