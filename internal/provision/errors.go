package provision

import "fmt"

// StepError reports the step that aborted a provisioning run. Resources
// created by earlier steps are left in place.
type StepError struct {
	Realm string
	// Step describes the failed command, e.g. `create client "demoapp"`
	Step string
	// State is the last state reached before the failure
	State State
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("provisioning realm %q failed at %s (after %s): %v", e.Realm, e.Step, e.State, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
