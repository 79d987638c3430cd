package steps

import "fmt"

// StepExecutionError reports a step whose target could not be resolved
// within its bound. It is fatal to the enclosing capture session.
type StepExecutionError struct {
	Index int
	Step  Step
	Err   error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index+1, e.Step, e.Err)
}

// Unwrap returns the underlying error
func (e *StepExecutionError) Unwrap() error {
	return e.Err
}

// ScriptError reports a script file that cannot be read or contains an
// invalid step. Index is -1 when the error concerns the whole document.
type ScriptError struct {
	Path  string
	Index int
	Err   error
}

func (e *ScriptError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid step script %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("invalid step script %s: action %d: %v", e.Path, e.Index+1, e.Err)
}

// Unwrap returns the underlying error
func (e *ScriptError) Unwrap() error {
	return e.Err
}
