package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvedPrefersLinkerValues(t *testing.T) {
	prev := [3]string{Version, Commit, Date}
	t.Cleanup(func() { Version, Commit, Date = prev[0], prev[1], prev[2] })
	Version, Commit, Date = "1.2.0", "abc123", "2026-01-02"

	v, c, d := Resolved()
	assert.Equal(t, "1.2.0", v)
	assert.Equal(t, "abc123", c)
	assert.Equal(t, "2026-01-02", d)
}

func TestResolvedDevBuild(t *testing.T) {
	v, c, d := Resolved()
	assert.NotEmpty(t, v)
	assert.NotEmpty(t, c)
	assert.NotEmpty(t, d)
}
