package probe

// FirstOf runs attempts in order and returns the value of the first one
// that reports ok. Later attempts are not run. When every attempt declines
// it returns the zero T and false.
func FirstOf[T any](attempts ...func() (T, bool)) (T, bool) {
	for _, attempt := range attempts {
		if v, ok := attempt(); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
