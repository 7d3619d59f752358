package lineage_test

import (
	"context"
	"sync"
	"time"

	domain "github.com/turtacn/keyip-lineage/internal/domain/lineage"
	"github.com/turtacn/keyip-lineage/internal/infrastructure/monitoring/prometheus"
)

// fakeCounter/fakeHistogram/fakeGauge and their Vec wrappers stand in for
// the prometheus collector in tests that only care whether, and with what
// labels, a metric was touched.

type fakeCounter struct {
	mu    sync.Mutex
	value float64
}

func (c *fakeCounter) Inc()              { c.Add(1) }
func (c *fakeCounter) Add(delta float64) { c.mu.Lock(); defer c.mu.Unlock(); c.value += delta }
func (c *fakeCounter) Value() float64    { c.mu.Lock(); defer c.mu.Unlock(); return c.value }

type fakeCounterVec struct {
	mu       sync.Mutex
	counters map[string]*fakeCounter
}

func newFakeCounterVec() *fakeCounterVec {
	return &fakeCounterVec{counters: map[string]*fakeCounter{}}
}

func (v *fakeCounterVec) WithLabelValues(lvs ...string) prometheus.Counter {
	return v.with(labelKey(lvs))
}
func (v *fakeCounterVec) With(labels map[string]string) prometheus.Counter {
	return v.with(labelKey(mapValues(labels)))
}
func (v *fakeCounterVec) with(key string) prometheus.Counter {
	v.mu.Lock()
	defer v.mu.Unlock()
	c, ok := v.counters[key]
	if !ok {
		c = &fakeCounter{}
		v.counters[key] = c
	}
	return c
}

type fakeHistogram struct {
	mu          sync.Mutex
	observation []float64
}

func (h *fakeHistogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observation = append(h.observation, value)
}

type fakeHistogramVec struct {
	mu    sync.Mutex
	hists map[string]*fakeHistogram
}

func newFakeHistogramVec() *fakeHistogramVec {
	return &fakeHistogramVec{hists: map[string]*fakeHistogram{}}
}

func (v *fakeHistogramVec) WithLabelValues(lvs ...string) prometheus.Histogram {
	v.mu.Lock()
	defer v.mu.Unlock()
	key := labelKey(lvs)
	h, ok := v.hists[key]
	if !ok {
		h = &fakeHistogram{}
		v.hists[key] = h
	}
	return h
}
func (v *fakeHistogramVec) With(labels map[string]string) prometheus.Histogram {
	return v.WithLabelValues(mapValues(labels)...)
}

type fakeGauge struct {
	mu    sync.Mutex
	value float64
}

func (g *fakeGauge) Set(v float64)   { g.mu.Lock(); defer g.mu.Unlock(); g.value = v }
func (g *fakeGauge) Inc()            { g.Add(1) }
func (g *fakeGauge) Dec()            { g.Add(-1) }
func (g *fakeGauge) Add(delta float64) { g.mu.Lock(); defer g.mu.Unlock(); g.value += delta }
func (g *fakeGauge) Sub(delta float64) { g.Add(-delta) }
func (g *fakeGauge) Value() float64  { g.mu.Lock(); defer g.mu.Unlock(); return g.value }

type fakeGaugeVec struct {
	mu     sync.Mutex
	gauges map[string]*fakeGauge
}

func newFakeGaugeVec() *fakeGaugeVec {
	return &fakeGaugeVec{gauges: map[string]*fakeGauge{}}
}

func (v *fakeGaugeVec) WithLabelValues(lvs ...string) prometheus.Gauge {
	v.mu.Lock()
	defer v.mu.Unlock()
	key := labelKey(lvs)
	g, ok := v.gauges[key]
	if !ok {
		g = &fakeGauge{}
		v.gauges[key] = g
	}
	return g
}
func (v *fakeGaugeVec) With(labels map[string]string) prometheus.Gauge {
	return v.WithLabelValues(mapValues(labels)...)
}
func (v *fakeGaugeVec) valueFor(lvs ...string) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	g, ok := v.gauges[labelKey(lvs)]
	if !ok {
		return 0
	}
	return g.Value()
}

func labelKey(lvs []string) string {
	key := ""
	for _, l := range lvs {
		key += "\x00" + l
	}
	return key
}

func mapValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// fakeSearchClient answers every SearchEdges call with the same fixed docs
// (or err), optionally after delay, and records each query in callLog, so
// every hop and batch of a BFS test sees the same result.
type fakeSearchClient struct {
	mu       sync.Mutex
	docs     []domain.EdgeDocument
	err      error
	delay    time.Duration
	callLog  []domain.FrontierQuery
}

func (f *fakeSearchClient) SearchEdges(ctx context.Context, index string, q domain.FrontierQuery) ([]domain.EdgeDocument, error) {
	f.mu.Lock()
	f.callLog = append(f.callLog, q)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

func (f *fakeSearchClient) SearchEdgesAfter(ctx context.Context, index string, q domain.FrontierQuery, sortKey []interface{}, pitID string, keepAlive time.Duration, size int) ([]domain.EdgeDocument, []interface{}, error) {
	return f.docs, nil, f.err
}

// scriptedSearchClient hands back a different, pre-scripted response for
// each call to SearchEdges, in order — one entry per hop for BFS tests that
// need hop 1 to discover different edges than hop 2.
type scriptedSearchClient struct {
	mu        sync.Mutex
	responses [][]domain.EdgeDocument
	calls     int
}

func (f *scriptedSearchClient) SearchEdges(ctx context.Context, index string, q domain.FrontierQuery) ([]domain.EdgeDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls >= len(f.responses) {
		f.calls++
		return nil, nil
	}
	docs := f.responses[f.calls]
	f.calls++
	return docs, nil
}

func (f *scriptedSearchClient) SearchEdgesAfter(ctx context.Context, index string, q domain.FrontierQuery, sortKey []interface{}, pitID string, keepAlive time.Duration, size int) ([]domain.EdgeDocument, []interface{}, error) {
	return nil, nil, nil
}

// fakeRegistry returns a fixed EdgeInfo set per entityType, ignoring direction,
// independent of internal/domain/lineage's own registry_test.go fake (kept
// package-local so each test package's fakes stay free-standing).
type fakeRegistry struct {
	mu    sync.Mutex
	edges map[string][]domain.EdgeInfo
	err   error
	calls int
}

func newFakeRegistry(edges map[string][]domain.EdgeInfo) *fakeRegistry {
	return &fakeRegistry{edges: edges}
}

func (r *fakeRegistry) GetLineageRelationships(ctx context.Context, entityType string, direction domain.Direction) ([]domain.EdgeInfo, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.edges[entityType], nil
}
