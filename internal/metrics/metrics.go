package metrics

import (
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Client is the stats surface the send pipeline emits through. Tags use the
// "key:value" form. A metric name must always be emitted with the same tag
// keys.
type Client interface {
	Incr(name string, delta float64, tags []string)
	Histogram(name string, value float64, tags []string)
}

// Prom adapts Client onto Prometheus, creating one vec per metric name on
// first use.
type Prom struct {
	reg       prometheus.Registerer
	namespace string

	mu       sync.Mutex
	counters map[string]*prometheus.CounterVec
	hists    map[string]*prometheus.HistogramVec
}

func NewProm(reg prometheus.Registerer, namespace string) *Prom {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Prom{
		reg:       reg,
		namespace: namespace,
		counters:  make(map[string]*prometheus.CounterVec),
		hists:     make(map[string]*prometheus.HistogramVec),
	}
}

func (p *Prom) Incr(name string, delta float64, tags []string) {
	keys, vals := splitTags(tags)
	p.mu.Lock()
	vec, ok := p.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      sanitize(name) + "_total",
			Help:      "Counter " + name,
		}, keys)
		p.reg.MustRegister(vec)
		p.counters[name] = vec
	}
	p.mu.Unlock()
	vec.WithLabelValues(vals...).Add(delta)
}

func (p *Prom) Histogram(name string, value float64, tags []string) {
	keys, vals := splitTags(tags)
	p.mu.Lock()
	vec, ok := p.hists[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      sanitize(name) + "_seconds",
			Help:      "Histogram " + name,
		}, keys)
		p.reg.MustRegister(vec)
		p.hists[name] = vec
	}
	p.mu.Unlock()
	vec.WithLabelValues(vals...).Observe(value)
}

// splitTags turns ["b:2","a:1"] into sorted key and value slices so the
// label order is stable regardless of caller order.
func splitTags(tags []string) (keys, vals []string) {
	if len(tags) == 0 {
		return nil, nil
	}
	sorted := make([]string, len(tags))
	copy(sorted, tags)
	sort.Strings(sorted)

	keys = make([]string, 0, len(sorted))
	vals = make([]string, 0, len(sorted))
	for _, t := range sorted {
		k, v, found := strings.Cut(t, ":")
		if !found {
			v = "true"
		}
		keys = append(keys, sanitize(k))
		vals = append(vals, v)
	}
	return keys, vals
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
