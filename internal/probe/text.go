package probe

import "strings"

// Lines splits tool output into lines, dropping carriage returns and the
// empty element produced by a trailing newline.
func Lines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// FirstLine returns the first line of s, or "" when s is empty.
func FirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSuffix(s[:i], "\r")
	}
	return s
}

// LastLine returns the last non-terminator line of s.
func LastLine(s string) (string, bool) {
	lines := Lines(s)
	if len(lines) == 0 {
		return "", false
	}
	return lines[len(lines)-1], true
}

// Field returns the n-th whitespace separated token of line.
func Field(line string, n int) (string, bool) {
	fields := strings.Fields(line)
	if n < 0 || n >= len(fields) {
		return "", false
	}
	return fields[n], true
}

// ValueAfterColon returns the trimmed text after the first ':' of the
// first line containing key, as printed by lscpu and dmidecode.
func ValueAfterColon(output, key string) string {
	for _, line := range Lines(output) {
		if !strings.Contains(line, key) {
			continue
		}
		_, v, ok := strings.Cut(line, ":")
		if !ok {
			return ""
		}
		return strings.TrimSpace(v)
	}
	return ""
}

// NonEmpty returns s with empty strings removed. It never returns nil.
func NonEmpty(s []string) []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
