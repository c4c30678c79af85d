package metrics

import "sync"

// Capture is an in-memory Client for tests.
type Capture struct {
	mu    sync.Mutex
	incrs []Call
	hists []Call
}

type Call struct {
	Name  string
	Value float64
	Tags  []string
}

func NewCapture() *Capture { return &Capture{} }

func (c *Capture) Incr(name string, delta float64, tags []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.incrs = append(c.incrs, Call{Name: name, Value: delta, Tags: tags})
}

func (c *Capture) Histogram(name string, value float64, tags []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hists = append(c.hists, Call{Name: name, Value: value, Tags: tags})
}

// Incrs returns every counter call recorded for name; all calls when name
// is empty.
func (c *Capture) Incrs(name string) []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return filter(c.incrs, name)
}

func (c *Capture) Histograms(name string) []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return filter(c.hists, name)
}

func filter(calls []Call, name string) []Call {
	if name == "" {
		return append([]Call(nil), calls...)
	}
	var out []Call
	for _, call := range calls {
		if call.Name == name {
			out = append(out, call)
		}
	}
	return out
}
