package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		path     string
		pattern  string
		expected bool
	}{
		{"src/a.test.js", "**/*.test.js", true},
		{"a.test.js", "**/*.test.js", true},
		{"src/deep/a_test.js", "**/{*.test.js,*_test.js}", true},
		{"src/a.js", "**/{*.test.js,*_test.js}", false},
		{"src/a.test.js", "{src,lib}/**/*.test.js", true},
		{"node_modules/x/a.test.js", "{src,lib}/**/*.test.js", false},
		{"src/a.test.js", "*.test.js", false},
		{"a.test.js", "*.test.js", true},
		{"src/index.js", "src/index.js", true},
		{"src/ab.js", "src/a?.js", true},
		{"src/a/b.js", "src/a?b.js", false},
		{"src/b.spec.js", "src/[ab].spec.js", true},
		{"src/c.spec.js", "src/[ab].spec.js", false},
		{"src/a.test.js", "src/[a.test.js", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, MatchGlob(tt.path, tt.pattern))
		})
	}
}
