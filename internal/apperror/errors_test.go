package apperror

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	wrapped := fmt.Errorf("create stop: %w", AlreadyExists("stop", "Plaza Central"))

	assert.True(t, IsAlreadyExists(wrapped))
	assert.True(t, IsDomain(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.Equal(t, "create stop: stop Plaza Central already exists", wrapped.Error())

	assert.True(t, IsDomain(Validation("latitude", "must be between -90 and 90")))
	assert.True(t, IsDomain(ReferenceNotFound("route", "R1")))
	assert.False(t, IsDomain(NotFound("route", 7)))
	assert.False(t, IsDomain(fmt.Errorf("connection refused")))
}
