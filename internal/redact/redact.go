package redact

// Mask hides personally identifying values before they reach logs or
// diagnostic maps. Values of eight runes or fewer, empty included, are
// masked entirely; longer ones keep the first and last three characters
// so operators can still correlate.
func Mask(s string) string {
	r := []rune(s)
	if len(r) <= 8 {
		return "***"
	}
	return string(r[:3]) + "***" + string(r[len(r)-3:])
}

// MaskAll masks every value of a string map, returning a fresh map.
func MaskAll(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = Mask(v)
	}
	return out
}
