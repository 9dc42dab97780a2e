package stream

// Filter transforms one complete output line into zero or more lines.
// Filters may hold lines back; Flush releases whatever they still hold.
type Filter interface {
	Apply(line string) []string
	Flush() []string
}

// FilterFunc adapts a stateless function to Filter.
type FilterFunc func(line string) []string

// Apply calls f.
func (f FilterFunc) Apply(line string) []string { return f(line) }

// Flush holds nothing.
func (f FilterFunc) Flush() []string { return nil }

// Chain applies filters in order; each filter sees every line the previous
// one produced.
type Chain []Filter

// Apply runs line through the chain.
func (c Chain) Apply(line string) []string {
	return c.from(0, []string{line})
}

// Flush drains the filters front to back. Lines an earlier filter releases
// still pass through the later ones.
func (c Chain) Flush() []string {
	var lines []string
	for _, f := range c {
		var next []string
		for _, line := range lines {
			next = append(next, f.Apply(line)...)
		}
		lines = append(next, f.Flush()...)
	}
	return lines
}

func (c Chain) from(start int, lines []string) []string {
	for _, f := range c[start:] {
		var next []string
		for _, line := range lines {
			next = append(next, f.Apply(line)...)
		}
		lines = next
		if len(lines) == 0 {
			return nil
		}
	}
	return lines
}
