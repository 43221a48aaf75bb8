package kcadm

import (
	"encoding/json"
	"strings"
)

// Result is the outcome of one command run inside the container
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Err returns a *CommandFailedError when the command exited non-zero.
func (r Result) Err() error {
	if r.ExitCode != 0 {
		return &CommandFailedError{ExitCode: r.ExitCode, Stderr: r.Stderr}
	}
	return nil
}

// CreatedID extracts the id of a created resource. kcadm reports it on stderr
// as e.g. "Created new client with id 'f3a1...'"; the id is the last single
// quoted, non-blank segment.
func (r Result) CreatedID() (string, error) {
	parts := strings.Split(r.Stderr, "'")
	for i := len(parts) - 1; i >= 0; i-- {
		if id := strings.TrimSpace(parts[i]); id != "" {
			return id, nil
		}
	}
	return "", &MissingFieldError{Field: "id"}
}

// JSONField extracts a string field from a JSON object on stdout.
func (r Result) JSONField(name string) (string, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(r.Stdout), &doc); err != nil {
		return "", &MissingFieldError{Field: name, Err: err}
	}
	value, ok := doc[name].(string)
	if !ok || value == "" {
		return "", &MissingFieldError{Field: name}
	}
	return value, nil
}
