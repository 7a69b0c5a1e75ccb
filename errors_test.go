package eagerq

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotExecutedError(t *testing.T) {
	err := &NotExecutedError{Reason: "queue drained"}
	require.Equal(t, "task not executed: queue drained", err.Error())
	require.NoError(t, errors.Unwrap(err))

	cause := errors.New("disk full")
	err = &NotExecutedError{Reason: "archive failed while draining", Err: cause}
	require.Equal(t, "task not executed: archive failed while draining: disk full", err.Error())
	require.ErrorIs(t, err, cause)
}
