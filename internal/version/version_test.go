package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Get(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
	assert.Equal(t, info.Version, info.String())
	assert.Contains(t, info.Full(), info.Commit)
}

func Test_UserAgent(t *testing.T) {
	ua := Get().UserAgent()
	assert.Contains(t, ua, "Jilebi/")
	assert.Contains(t, ua, Get().Platform)
}
