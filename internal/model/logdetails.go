package model

// LogDetails is the per-message diagnostic map threaded through every step
// of a send. It is never shared across messages; identifying values must be
// redacted before they are written here.
type LogDetails map[string]any

func (d LogDetails) Set(key string, value any) {
	if d == nil {
		return
	}
	d[key] = value
}

// Fields returns a copy safe to hand to a structured logger.
func (d LogDetails) Fields() map[string]any {
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
