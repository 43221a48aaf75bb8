package kcadm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultErr(t *testing.T) {
	assert.NoError(t, Result{Stdout: "ok"}.Err())

	err := Result{ExitCode: 1, Stderr: "Conflict detected. See logs for details\n"}.Err()
	var failed *CommandFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, 1, failed.ExitCode)
	assert.Equal(t, "Conflict detected. See logs for details\n", failed.Stderr)
	assert.Contains(t, err.Error(), "Conflict detected")
}

func TestCreatedID(t *testing.T) {
	tests := []struct {
		name    string
		stderr  string
		want    string
		wantErr bool
	}{
		{name: "client create", stderr: "Created new client with id 'f3a1c0de-1111-2222-3333-444455556666'\n", want: "f3a1c0de-1111-2222-3333-444455556666"},
		{name: "trailing blank segment", stderr: "Created new user with id '42'   \n\n", want: "42"},
		{name: "last quoted segment wins", stderr: "Warning 'x'\nCreated new model with id 'abc'", want: "abc"},
		{name: "unquoted text", stderr: "done", want: "done"},
		{name: "empty", stderr: "", wantErr: true},
		{name: "only quotes and blanks", stderr: " ' '' \n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := Result{Stderr: tt.stderr}.CreatedID()
			if tt.wantErr {
				var missing *MissingFieldError
				require.True(t, errors.As(err, &missing))
				assert.Equal(t, "id", missing.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestJSONField(t *testing.T) {
	r := Result{Stdout: `{"id": "9d0b", "username": "service-account-demoapp"}`}
	id, err := r.JSONField("id")
	require.NoError(t, err)
	assert.Equal(t, "9d0b", id)

	for _, stdout := range []string{`{}`, `{"id": ""}`, `{"id": 5}`, `not json`, ``} {
		_, err := Result{Stdout: stdout}.JSONField("id")
		var missing *MissingFieldError
		require.True(t, errors.As(err, &missing), stdout)
		assert.Equal(t, "id", missing.Field)
	}
}
