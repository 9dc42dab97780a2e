package stream

import (
	"io"
	"regexp"
	"strings"
	"sync"
)

var noiseRe = regexp.MustCompile(`No repository field|No license field|SKIPPING OPTIONAL DEPENDENCY|You must install peer dependencies yourself`)

// IsNoise reports whether line is package-manager chatter that never
// belongs in test output.
func IsNoise(line string) bool {
	return noiseRe.MatchString(line)
}

// LineWriter is an io.Writer that splits written chunks into lines. Each
// complete, non-empty, non-noise line is run through the filter chain and
// written to the sink as "<prefix> <line>\n". A trailing fragment without
// a newline is carried into the next Write and released verbatim by Flush.
type LineWriter struct {
	mu     sync.Mutex
	out    io.Writer
	prefix string
	chain  Chain
	carry  string
}

// NewLineWriter creates a writer emitting to out.
func NewLineWriter(out io.Writer, prefix string, filters ...Filter) *LineWriter {
	return &LineWriter{out: out, prefix: prefix, chain: Chain(filters)}
}

// Write implements io.Writer. It always consumes all of p unless the sink
// fails.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	lines := strings.Split(w.carry+string(p), "\n")
	w.carry = lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		if err := w.line(line); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Flush releases anything the filters are still holding, then writes the
// carried fragment to the sink exactly as received: no prefix, no filters
// and no added newline.
func (w *LineWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.emit(w.chain.Flush()); err != nil {
		return err
	}
	carry := w.carry
	w.carry = ""
	if carry == "" {
		return nil
	}
	_, err := io.WriteString(w.out, carry)
	return err
}

// Pending returns the fragment waiting for its newline.
func (w *LineWriter) Pending() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.carry
}

func (w *LineWriter) line(line string) error {
	line = strings.TrimSuffix(line, "\r")
	if line == "" || IsNoise(line) {
		return nil
	}
	return w.emit(w.chain.Apply(line))
}

func (w *LineWriter) emit(lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	var b strings.Builder
	for _, line := range lines {
		if line != "" && w.prefix != "" {
			b.WriteString(w.prefix)
			b.WriteByte(' ')
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w.out, b.String())
	return err
}

// SyncWriter serialises writes from several LineWriters into one sink.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSyncWriter wraps w.
func NewSyncWriter(w io.Writer) *SyncWriter {
	return &SyncWriter{w: w}
}

func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
