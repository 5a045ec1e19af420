package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServerURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", serverURL(""))
	assert.Equal(t, "http://localhost:9000", serverURL("localhost:9000"))
	assert.Equal(t, "https://api.getfit.app", serverURL("https://api.getfit.app"))
}
