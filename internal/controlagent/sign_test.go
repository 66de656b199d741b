package controlagent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSign_DeterministicAndSensitiveToEveryField mirrors scenario S5: the
// same inputs must always sign the same, and changing any single argument
// must change the signature.
func TestSign_DeterministicAndSensitiveToEveryField(t *testing.T) {
	base := Sign("dev-secret", "POST", "/v1/control/emergency-mode", 1700000000, "")
	again := Sign("dev-secret", "POST", "/v1/control/emergency-mode", 1700000000, "")

	assert.Equal(t, base, again)
	assert.Len(t, base, 64)

	assert.NotEqual(t, base, Sign("other-secret", "POST", "/v1/control/emergency-mode", 1700000000, ""))
	assert.NotEqual(t, base, Sign("dev-secret", "GET", "/v1/control/emergency-mode", 1700000000, ""))
	assert.NotEqual(t, base, Sign("dev-secret", "POST", "/v1/control/curator-mode", 1700000000, ""))
	assert.NotEqual(t, base, Sign("dev-secret", "POST", "/v1/control/emergency-mode", 1700000001, ""))
	assert.NotEqual(t, base, Sign("dev-secret", "POST", "/v1/control/emergency-mode", 1700000000, "x"))
}
