package hostlib

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/jsbind/databind"
	"github.com/example/jsbind/engine"
	"github.com/example/jsbind/host"
	"github.com/example/jsbind/runtime"
)

func TestPoint(t *testing.T) {
	p := NewPoint(3, 4)
	assert.Equal(t, 7, p.Sum())
	assert.Equal(t, 5.0, p.Distance(Origin()))
	assert.Equal(t, "(4, 6)", p.TranslateBy(NewPoint(1, 2)).String())
}

func TestCounter(t *testing.T) {
	c := NewCounterFrom(10)
	c.Step = 5
	assert.Equal(t, int64(15), c.Inc())
	assert.Equal(t, int64(13), c.Add(-2))
	c.Reset()
	assert.Equal(t, int64(0), c.Value())
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	var got []any
	bus.Subscribe("a", ListenerFunc(func(_ string, p any) error { got = append(got, p); return nil }))
	bus.Subscribe("a", ListenerFunc(func(string, any) error { return errors.New("nope") }))
	bus.Subscribe("b", ListenerFunc(func(string, any) error { return nil }))

	n, err := bus.Publish("a", 1)
	assert.Equal(t, 1, n)
	assert.EqualError(t, err, "nope")
	assert.Equal(t, []any{1}, got)
	assert.Equal(t, []string{"a", "b"}, bus.Topics())

	n, err = bus.Publish("none", nil)
	assert.Zero(t, n)
	assert.NoError(t, err)
}

func TestStopwatch(t *testing.T) {
	base := time.UnixMilli(1000)
	ticks := []time.Time{base, base.Add(250 * time.Millisecond), base.Add(400 * time.Millisecond), base.Add(time.Second)}
	i := 0
	sw := newStopwatch(func() time.Time {
		now := ticks[i]
		i++
		return now
	})
	assert.Equal(t, 250.0, sw.Lap())
	assert.Equal(t, 150.0, sw.Lap())
	assert.Equal(t, []float64{250, 150}, sw.Laps())
	assert.Equal(t, 1000.0, sw.Elapsed())
}

func TestLibraryFromScript(t *testing.T) {
	reg := host.NewRegistry()
	require.NoError(t, Register(reg))
	assert.Equal(t, []string{"Counter", "EventBus", "Point", "Stopwatch", "StringBuilder"}, reg.Names())

	loop := engine.NewLoop(engine.NewContext())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = loop.Run(ctx)
	}()
	defer func() {
		cancel()
		<-stopped
	}()

	db := databind.New(reg, loop)
	var result *runtime.Value
	err := loop.Do(context.Background(), func(c *engine.Context) error {
		if err := db.InstallAPI(c, "host"); err != nil {
			return err
		}
		var err error
		result, err = c.Eval(`
			var EventBus = host.importClass("EventBus");
			var Counter = host.importClass("Counter");
			var StringBuilder = host.importClass("StringBuilder");
			var Point = host.importClass("Point");

			var bus = new EventBus();
			var counter = new Counter(100);
			var sb = new StringBuilder();
			bus.subscribe("tick", function(topic, payload) {
				counter.add(payload);
				sb.writeString(topic + ";");
			});
			bus.publish("tick", 2);
			bus.publish("tick", 3);
			var p = new Point(1, 1);
			p.translate(new Point(2, 3));
			[counter.value(), sb.toString(), p.sum(), Point.origin().sum()];
		`)
		return err
	})
	require.NoError(t, err)

	got, err := db.ConvertToHost(result, host.TypeAny)
	require.NoError(t, err)
	assert.Equal(t, []any{105.0, "tick;tick;", 7.0, 0.0}, got)
}
