package pkg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, NoChange, KindOf(NewError(NoChange, "already attending")))
	assert.Equal(t, BadRequest, KindOf(fmt.Errorf("wrapped: %w", NewError(BadRequest, "not the host"))))
	assert.Equal(t, EXCEPTION, KindOf(errors.New("driver: bad connection")))
}

func TestClientMessage(t *testing.T) {
	assert.Equal(t, "not the host", ClientMessage(NewError(BadRequest, "not the host")))
	assert.Equal(t, "Encountered an unexpected server error",
		ClientMessage(errors.New("dial tcp: connection refused")),
		"raw internals never reach the client")

	wrapped := WrapError(EXCEPTION, "storing rally", errors.New("duplicate key"))
	assert.Equal(t, "storing rally", ClientMessage(wrapped))
	assert.ErrorContains(t, wrapped, "duplicate key", "the cause stays on the chain for logs")
}
