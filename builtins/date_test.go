package builtins

import (
	"testing"
	"time"

	"github.com/example/jsbind/runtime"
)

func TestDateRoundTrip(t *testing.T) {
	want := time.UnixMilli(1700000000123)
	v := NewDate(want)
	if v.Object.OType != runtime.ObjTypeDate {
		t.Fatalf("expected a Date object, got %v", v.Object.OType)
	}
	got, ok := DateTime(v)
	if !ok {
		t.Fatal("expected a valid date")
	}
	if !got.Equal(want) {
		t.Errorf("DateTime: got %v, want %v", got, want)
	}
}

func TestDateTimeRejectsOtherValues(t *testing.T) {
	for _, v := range []*runtime.Value{
		nil,
		runtime.NewNumber(1),
		runtime.NewObject(runtime.NewOrdinaryObject(nil)),
		makeDateObject(nil, time.Time{}, true),
	} {
		if _, ok := DateTime(v); ok {
			t.Errorf("DateTime(%v): expected ok=false", v)
		}
	}
}
