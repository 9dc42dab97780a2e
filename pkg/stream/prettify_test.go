package stream

import (
	"bytes"
	"testing"

	"github.com/arthur-debert/karmatic/pkg/diagnostics"
	"github.com/arthur-debert/karmatic/pkg/style"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plain() style.Output {
	return style.PlainOutput(&bytes.Buffer{})
}

func newStackFilter(fs afero.Fs) *StackFilter {
	return NewStackFilter(diagnostics.New(fs, diagnostics.WithColor(false), diagnostics.WithWidth(80)), "/repo")
}

func TestTotalFilter(t *testing.T) {
	f := TotalFilter()
	assert.Nil(t, f.Apply("\x1b[32mTOTAL: 3 SUCCESS\x1b[39m"))
	assert.Equal(t, []string{"Executed 3 of 3"}, f.Apply("Executed 3 of 3"))
}

func TestConsoleLogFilter(t *testing.T) {
	f := ConsoleLogFilter(plain())
	assert.Equal(t, []string{" INFO:  'hello'"}, f.Apply("LOG INFO: 'hello'"))
	assert.Equal(t, []string{"LOG: 'no level'"}, f.Apply("LOG: 'no level'"))
}

func TestBrowserPrefixFilter(t *testing.T) {
	f := BrowserPrefixFilter(plain())
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "legacy headless name",
			in:   "HeadlessChrome 0.0.0 (Linux 0.0.0): Executed 2 of 2 SUCCESS (0.01 secs / 0 secs)",
			want: "Executed 2 of 2 SUCCESS (0.01 secs / 0 secs)",
		},
		{
			name: "current headless name",
			in:   "Chrome Headless 120.0.6099.109 (Linux x86_64): Executed 1 of 2 (1 FAILED)",
			want: "Executed 1 of 2 (1 FAILED)",
		},
		{
			name: "other output",
			in:   "  adds numbers",
			want: "  adds numbers",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, []string{tt.want}, f.Apply(tt.in))
		})
	}
}

func TestStackFilterCleansBlocks(t *testing.T) {
	s := newStackFilter(afero.NewMemMapFs())

	var out []string
	for _, line := range []string{
		"\tExpected 3 to be 4.",
		"\t    at <Jasmine>",
		"\t    at UserContext.<anonymous> (http://localhost:9876/base/src/add.test.js?abc:5:17)",
		"Executed 1 of 1 (1 FAILED)",
	} {
		out = append(out, s.Apply(line)...)
	}

	assert.Equal(t, []string{
		"\tExpected 3 to be 4.",
		"",
		"\t  at UserContext.<anonymous> (./src/add.test.js:5:17)",
		"Executed 1 of 1 (1 FAILED)",
	}, out)
	assert.Nil(t, s.Flush())
}

func TestStackFilterReleasesHeldLines(t *testing.T) {
	s := newStackFilter(afero.NewMemMapFs())

	assert.Nil(t, s.Apply("    ✓ adds numbers"))
	assert.Equal(t, []string{"    ✓ adds numbers"}, s.Apply("    ✓ subtracts numbers"))
	assert.Equal(t, []string{"    ✓ subtracts numbers", "SUCCESS"}, s.Apply("SUCCESS"))

	assert.Nil(t, s.Apply("  trailing"))
	assert.Equal(t, []string{"  trailing"}, s.Flush())
}

func TestStackFilterFlushesOpenBlock(t *testing.T) {
	s := newStackFilter(afero.NewMemMapFs())
	assert.Nil(t, s.Apply("  Error: boom"))
	assert.Nil(t, s.Apply("    at fn (/repo/src/a.js:1:1)"))

	assert.Equal(t, []string{"  Error: boom", "", "    at fn (./src/a.js:1:1)"}, s.Flush())
}

func TestPrettifierThroughLineWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewLineWriter(&buf, "", Prettifier(plain(), newStackFilter(afero.NewMemMapFs()))...)

	_, err := w.Write([]byte("LOG INFO: 'hi'\nHeadlessChrome 0.0.0 (Linux 0.0.0): Executed 1 of 1 SUCCESS\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("\x1b[32mTOTAL: 1 SUCCESS\x1b[39m\n"))
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	assert.Equal(t, " INFO:  'hi'\nExecuted 1 of 1 SUCCESS\n", buf.String())
}
