package stats

// Noop is a no-op collector that discards all metrics.
type Noop struct{}

// Compile-time check that Noop implements Collector.
var _ Collector = (*Noop)(nil)

// NewNoop creates a new no-op collector.
func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) IncCounter(name string, delta int64)         {}
func (n *Noop) SetGauge(name string, value int64)           {}
func (n *Noop) ObserveHistogram(name string, value float64) {}

// Tee fans every observation out to each collector in order.
type Tee []Collector

// Compile-time check that Tee implements Collector.
var _ Collector = Tee(nil)

func (t Tee) IncCounter(name string, delta int64) {
	for _, c := range t {
		c.IncCounter(name, delta)
	}
}

func (t Tee) SetGauge(name string, value int64) {
	for _, c := range t {
		c.SetGauge(name, value)
	}
}

func (t Tee) ObserveHistogram(name string, value float64) {
	for _, c := range t {
		c.ObserveHistogram(name, value)
	}
}
