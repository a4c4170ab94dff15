package interpreter

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/example/jsbind/runtime"
)

func evalExpect(t *testing.T, source string) *runtime.Value {
	t.Helper()
	interp := New()
	val, err := interp.Eval(source)
	if err != nil {
		t.Fatalf("Eval error for %q: %v", source, err)
	}
	return val
}

func evalExpectError(t *testing.T, source string) error {
	t.Helper()
	interp := New()
	_, err := interp.Eval(source)
	if err == nil {
		t.Fatalf("expected error for %q but got none", source)
	}
	return err
}

func expectNumber(t *testing.T, source string, expected float64) {
	t.Helper()
	val := evalExpect(t, source)
	if val.Type != runtime.TypeNumber {
		t.Fatalf("expected number for %q, got %v (type=%v)", source, val, val.Type)
	}
	if math.IsNaN(expected) {
		if !math.IsNaN(val.Number) {
			t.Fatalf("expected NaN for %q, got %v", source, val.Number)
		}
		return
	}
	if val.Number != expected {
		t.Fatalf("expected %v for %q, got %v", expected, source, val.Number)
	}
}

func expectString(t *testing.T, source string, expected string) {
	t.Helper()
	val := evalExpect(t, source)
	if val.Type != runtime.TypeString {
		t.Fatalf("expected string for %q, got type=%v val=%v", source, val.Type, val)
	}
	if val.Str != expected {
		t.Fatalf("expected %q for %q, got %q", expected, source, val.Str)
	}
}

func expectBool(t *testing.T, source string, expected bool) {
	t.Helper()
	val := evalExpect(t, source)
	if val.Type != runtime.TypeBoolean {
		t.Fatalf("expected boolean for %q, got type=%v", source, val.Type)
	}
	if val.Bool != expected {
		t.Fatalf("expected %v for %q, got %v", expected, source, val.Bool)
	}
}

func expectUndefined(t *testing.T, source string) {
	t.Helper()
	val := evalExpect(t, source)
	if val.Type != runtime.TypeUndefined {
		t.Fatalf("expected undefined for %q, got type=%v", source, val.Type)
	}
}

func expectNull(t *testing.T, source string) {
	t.Helper()
	val := evalExpect(t, source)
	if val.Type != runtime.TypeNull {
		t.Fatalf("expected null for %q, got type=%v", source, val.Type)
	}
}

// --- Language surface used by embedders ---

func TestScripts(t *testing.T) {
	numbers := []struct {
		name   string
		source string
		want   float64
	}{
		{"arithmetic", "2 ** 10 - 10 % 3 * 4", 1020},
		{"closure", `
			function counter() { var n = 0; return function() { n++; return n; }; }
			var c = counter(); c(); c(); c();
		`, 3},
		{"arguments", `
			function sum() { var s = 0; var i = 0; while (i < arguments.length) { s = s + arguments[i]; i++; } return s; }
			sum(1, 2, 3, 4);
		`, 10},
		{"function properties", `
			function check(v) { return v; }
			check.twice = function(v) { return v * 2; };
			check.twice(21);
		`, 42},
		{"try catch finally", `
			var result = 0;
			try { throw 1; } catch (e) { result = e; } finally { result = result + 10; }
			result;
		`, 11},
		{"constructor function", `
			function Point(x, y) { this.x = x; this.y = y; }
			var p = new Point(3, 4);
			p.x + p.y;
		`, 7},
		{"class inheritance", `
			class Shape { area() { return 0; } }
			class Square extends Shape { constructor(s) { super(); this.s = s; } area() { return this.s * this.s; } }
			var sq = new Square(3);
			sq.area();
		`, 9},
		{"array literal", "var a = [1, 2, 3]; a[1] + a.length", 5},
		{"for of", "var t = 0; for (var v of [1, 2, 3]) { t = t + v; } t", 6},
		{"error propagation", `
			function thrower() { throw 42; }
			var result;
			try { thrower(); } catch (e) { result = e; }
			result;
		`, 42},
	}
	for _, tc := range numbers {
		t.Run(tc.name, func(t *testing.T) {
			expectNumber(t, tc.source, tc.want)
		})
	}

	expectString(t, `typeof function() {}`, "function")
	expectString(t, `var s = "tick"; s + ";" + s.length`, "tick;4")
	expectString(t, "`sum=${1 + 2}`", "sum=3")
	expectBool(t, `class Foo {} class Bar extends Foo {} var b = new Bar(); b instanceof Foo`, true)
	expectNull(t, "null")
	expectUndefined(t, "var x; x")
	expectNumber(t, "0 / 0", math.NaN())

	err := evalExpectError(t, `throw "my error"`)
	if !strings.Contains(err.Error(), "my error") {
		t.Fatalf("expected 'my error', got: %v", err)
	}
}

func TestEvalPersistent(t *testing.T) {
	interp := New()
	if _, err := interp.EvalPersistent("var total = 40; function bump(n) { total = total + n; }"); err != nil {
		t.Fatal(err)
	}
	if _, err := interp.EvalPersistent("bump(2)"); err != nil {
		t.Fatal(err)
	}
	val, err := interp.EvalPersistent("total")
	if err != nil {
		t.Fatal(err)
	}
	if val.Number != 42 {
		t.Fatalf("expected 42, got %v", val.Number)
	}

	if _, err := interp.Eval("total"); err == nil {
		t.Fatal("Eval must not see the persistent scope")
	}
}

func TestRegisterNative(t *testing.T) {
	interp := New()
	interp.RegisterNative("add", func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if len(args) < 2 {
			return runtime.NewNumber(0), nil
		}
		return runtime.NewNumber(args[0].ToNumber() + args[1].ToNumber()), nil
	})
	val, err := interp.Eval("add(3, 4)")
	if err != nil {
		t.Fatal(err)
	}
	if val.Number != 7 {
		t.Fatalf("expected 7, got %v", val.Number)
	}
}

// --- Go errors crossing into scripts ---

var errNative = errors.New("TypeError: bad input")

func TestNativeErrorsBecomeScriptErrors(t *testing.T) {
	interp := New()
	interp.RegisterNative("fail", func(*runtime.Value, []*runtime.Value) (*runtime.Value, error) {
		return nil, fmt.Errorf("wrapped: %w", errNative)
	})
	interp.RegisterNative("failTyped", func(*runtime.Value, []*runtime.Value) (*runtime.Value, error) {
		return nil, errNative
	})

	expect := func(source, want string) {
		t.Helper()
		val, err := interp.Eval(source)
		if err != nil {
			t.Fatal(err)
		}
		if val.Str != want {
			t.Fatalf("expected %q for %q, got %q", want, source, val.Str)
		}
	}
	expect(`var r; try { failTyped(); } catch (e) { r = e.name + "|" + e.message; } r`, "TypeError|bad input")
	expect(`var r; try { fail(); } catch (e) { r = e.name; } r`, "Error")

	_, err := interp.Eval("failTyped()")
	if !errors.Is(err, errNative) {
		t.Fatalf("expected the native error to unwrap, got %v", err)
	}
	thrown, ok := ThrownValue(err)
	if !ok || thrown.Type != runtime.TypeObject {
		t.Fatalf("expected a thrown error object, got %v", thrown)
	}
	if got := thrown.Object.Get("name").ToString(); got != "TypeError" {
		t.Fatalf("expected TypeError, got %s", got)
	}
}

func TestThrowValue(t *testing.T) {
	interp := New()
	interp.RegisterNative("raise", func(_ *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return nil, Throw(args[0])
	})
	val, err := interp.Eval(`var r; try { raise(7); } catch (e) { r = e; } r`)
	if err != nil {
		t.Fatal(err)
	}
	if val.Number != 7 {
		t.Fatalf("expected 7, got %v", val.Number)
	}

	_, err = interp.Eval(`raise("plain")`)
	thrown, ok := ThrownValue(err)
	if !ok || thrown.Str != "plain" {
		t.Fatalf("expected the raised string, got %v (%v)", thrown, err)
	}
	if _, ok := ThrownValue(errNative); ok {
		t.Fatal("errors that were never thrown carry no value")
	}
}

// --- Host classes ---

type box struct{ n float64 }

func newBoxClass(t *testing.T) *runtime.Class {
	t.Helper()
	base := runtime.NewClass(runtime.ClassDefinition{
		Name: "Base",
		GetProperty: func(obj *runtime.Object, name string) (*runtime.Value, error) {
			if name == "kind" {
				return runtime.NewString("box"), nil
			}
			return nil, nil
		},
	})
	var class *runtime.Class
	class = runtime.NewClass(runtime.ClassDefinition{
		Name:       "Box",
		Attributes: runtime.ClassAttributeNoAutomaticPrototype,
		Parent:     base,
		HasProperty: func(obj *runtime.Object, name string) bool {
			return name == "n" || name == "locked"
		},
		GetProperty: func(obj *runtime.Object, name string) (*runtime.Value, error) {
			if name == "n" {
				return runtime.NewNumber(obj.Private().(*box).n), nil
			}
			return nil, nil
		},
		SetProperty: func(obj *runtime.Object, name string, val *runtime.Value) (bool, error) {
			switch name {
			case "n":
				obj.Private().(*box).n = val.ToNumber()
				return true, nil
			case "locked":
				return false, errors.New("TypeError: locked is read-only")
			}
			return false, nil
		},
		CallAsFunction: func(fn *runtime.Object, this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			return runtime.NewNumber(fn.Private().(*box).n * args[0].ToNumber()), nil
		},
		CallAsConstructor: func(ctor *runtime.Object, args []*runtime.Value) (*runtime.Object, error) {
			return runtime.NewClassObject(class, &box{n: args[0].ToNumber()}), nil
		},
	})
	return class
}

func TestHostClassObjects(t *testing.T) {
	class := newBoxClass(t)
	interp := New()
	b := &box{n: 2}
	interp.GlobalEnv().Declare("b", "var", runtime.NewObject(runtime.NewClassObject(class, b)))

	cases := []struct {
		source string
		want   string
	}{
		{"b.n", "2"},
		{"b.kind", "box"},
		{"b(21)", "42"},
		{"typeof b", "function"},
		{"b.n = 5; b.n", "5"},
		{"b.extra = 1; b.extra", "1"},
		{"var c = new b(9); c.n + c(2)", "27"},
		{`var r; try { b.locked = 1; } catch (e) { r = e.name; } r`, "TypeError"},
	}
	for _, tc := range cases {
		val, err := interp.Eval(tc.source)
		if err != nil {
			t.Fatalf("Eval error for %q: %v", tc.source, err)
		}
		if got := val.ToString(); got != tc.want {
			t.Fatalf("expected %s for %q, got %s", tc.want, tc.source, got)
		}
	}
	if b.n != 5 {
		t.Fatalf("expected the setter to write through, got %v", b.n)
	}
}
