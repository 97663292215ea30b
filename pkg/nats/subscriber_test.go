package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDurableName(t *testing.T) {
	assert.Equal(t, "study-assistant-api-1", DurableName("study-assistant", "api-1"))
	assert.Equal(t, "study-assistant-pod-a-svc-local", DurableName("study-assistant", "pod a.svc.local"))
	assert.Equal(t, "study-assistant-default", DurableName("study-assistant", ""))
	assert.Equal(t, DurableName("x", "host"), DurableName("x", "host"))
}
