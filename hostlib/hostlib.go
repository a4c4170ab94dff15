// Package hostlib is a small library of host types made available to scripts
// by the jsgo command and the scenario runner.
package hostlib

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/jsbind/host"
)

// Register describes the library types in reg under their script names and
// registers the Listener contract.
func Register(reg *host.Registry) error {
	registrations := []struct {
		t    reflect.Type
		opts []host.Option
	}{
		{reflect.TypeFor[*Point](), []host.Option{
			host.WithName("Point"),
			host.WithConstructor(NewPoint),
			host.WithStatic("origin", Origin),
			host.WithAlias("Translate", "translate"),
			host.WithAlias("TranslateBy", "translate"),
		}},
		{reflect.TypeFor[*Counter](), []host.Option{
			host.WithName("Counter"),
			host.WithConstructor(NewCounter),
			host.WithConstructor(NewCounterFrom),
		}},
		{reflect.TypeFor[*EventBus](), []host.Option{
			host.WithName("EventBus"),
			host.WithConstructor(NewEventBus),
		}},
		{reflect.TypeFor[*Stopwatch](), []host.Option{
			host.WithName("Stopwatch"),
			host.WithConstructor(NewStopwatch),
		}},
		{reflect.TypeFor[*strings.Builder](), []host.Option{
			host.WithName("StringBuilder"),
		}},
	}
	for _, r := range registrations {
		if _, err := reg.Register(r.t, r.opts...); err != nil {
			return err
		}
	}
	return reg.RegisterContract(reflect.TypeFor[Listener](), func(f ListenerFunc) Listener { return f })
}

// Point is a position on the integer grid.
type Point struct {
	X, Y int
}

func NewPoint(x, y int) *Point { return &Point{X: x, Y: y} }

// Origin returns the point (0, 0).
func Origin() *Point { return &Point{} }

func (p *Point) Sum() int { return p.X + p.Y }

func (p *Point) Add(o *Point) *Point { return &Point{X: p.X + o.X, Y: p.Y + o.Y} }

func (p *Point) Translate(dx, dy int) *Point {
	p.X += dx
	p.Y += dy
	return p
}

func (p *Point) TranslateBy(o *Point) *Point { return p.Translate(o.X, o.Y) }

func (p *Point) Distance(o *Point) float64 {
	return math.Hypot(float64(p.X-o.X), float64(p.Y-o.Y))
}

func (p *Point) String() string { return fmt.Sprintf("(%d, %d)", p.X, p.Y) }

// Counter is a concurrency-safe counter.
type Counter struct {
	Step int64

	mu sync.Mutex
	n  int64
}

func NewCounter() *Counter { return &Counter{Step: 1} }

func NewCounterFrom(start int64) *Counter { return &Counter{Step: 1, n: start} }

// Inc adds Step and returns the new value.
func (c *Counter) Inc() int64 { return c.Add(c.Step) }

func (c *Counter) Add(n int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n += n
	return c.n
}

func (c *Counter) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func (c *Counter) Reset() {
	c.mu.Lock()
	c.n = 0
	c.mu.Unlock()
}

// Listener receives events published on an EventBus.
type Listener interface {
	Handle(topic string, payload any) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(topic string, payload any) error

func (f ListenerFunc) Handle(topic string, payload any) error { return f(topic, payload) }

// EventBus dispatches payloads to the listeners of a topic.
type EventBus struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
}

func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[string][]Listener)}
}

// Subscribe adds l to topic and returns the number of listeners on it.
func (b *EventBus) Subscribe(topic string, l Listener) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[topic] = append(b.listeners[topic], l)
	return len(b.listeners[topic])
}

// Publish delivers payload to every listener of topic and returns how many
// handled it without error. Listener errors are joined.
func (b *EventBus) Publish(topic string, payload any) (int, error) {
	b.mu.RLock()
	listeners := append([]Listener(nil), b.listeners[topic]...)
	b.mu.RUnlock()

	var errs []error
	delivered := 0
	for _, l := range listeners {
		if err := l.Handle(topic, payload); err != nil {
			errs = append(errs, err)
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

// Topics lists the topics with listeners in sorted order.
func (b *EventBus) Topics() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	topics := make([]string, 0, len(b.listeners))
	for t := range b.listeners {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// Stopwatch records lap times.
type Stopwatch struct {
	Started time.Time

	now  func() time.Time
	last time.Time
	laps []time.Duration
}

func NewStopwatch() *Stopwatch {
	return newStopwatch(time.Now)
}

func newStopwatch(now func() time.Time) *Stopwatch {
	start := now()
	return &Stopwatch{Started: start, now: now, last: start}
}

// Lap closes the current lap and returns its length in milliseconds.
func (s *Stopwatch) Lap() float64 {
	t := s.now()
	d := t.Sub(s.last)
	s.last = t
	s.laps = append(s.laps, d)
	return float64(d) / float64(time.Millisecond)
}

// Laps returns the recorded laps in milliseconds.
func (s *Stopwatch) Laps() []float64 {
	out := make([]float64, len(s.laps))
	for i, d := range s.laps {
		out[i] = float64(d) / float64(time.Millisecond)
	}
	return out
}

// Elapsed returns the milliseconds since the stopwatch started.
func (s *Stopwatch) Elapsed() float64 {
	return float64(s.now().Sub(s.Started)) / float64(time.Millisecond)
}
