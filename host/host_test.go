package host

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Named interface {
	Name() string
}

type Animal struct {
	Legs int
	Tag  string `js:"label"`
	Skip string `js:"-"`
}

func (a *Animal) Name() string { return "animal" }

func (a *Animal) Describe() string { return "has legs" }

type hidden struct {
	Secret int
}

func (h *hidden) Whisper() string { return "psst" }

type Dog struct {
	*Animal
	hidden
	Breed string
}

func (d *Dog) Bark(times int) (string, error) {
	if times < 0 {
		return "", errors.New("negative")
	}
	return "woof", nil
}

func (d *Dog) Panic() { panic("kaboom") }

func (d *Dog) String() string { return "dog" }

func newDog(breed string) *Dog { return &Dog{Animal: &Animal{Legs: 4}, Breed: breed} }

var dogCount = 3

type caption struct{}

func (caption) Title() string { return "caption" }

func (caption) Note() string { return "note" }

type Widget struct {
	caption
}

func (w *Widget) Title() string { return "widget" }

func TestDefaultNameMapper(t *testing.T) {
	assert.Equal(t, "toString", DefaultNameMapper("String"))
	assert.Equal(t, "sum", DefaultNameMapper("Sum"))
	assert.Equal(t, "", DefaultNameMapper(""))
}

func TestTypeNameAndExported(t *testing.T) {
	assert.Equal(t, "host.Dog", TypeName(reflect.TypeFor[*Dog]()))
	assert.Equal(t, "int32", TypeName(reflect.TypeFor[int32]()))
	assert.Equal(t, "any", TypeName(TypeAny))

	assert.True(t, IsExportedType(reflect.TypeFor[*Dog]()))
	assert.True(t, IsExportedType(reflect.TypeFor[[]int]()))
	assert.False(t, IsExportedType(reflect.TypeFor[*hidden]()))
}

func TestDescribeByReflection(t *testing.T) {
	reg := NewRegistry()
	dog := reg.Class(reflect.TypeFor[*Dog]())

	assert.Equal(t, "host.Dog", dog.Name)
	assert.Equal(t, reflect.TypeFor[*Animal](), dog.Super)
	require.Len(t, dog.Constructors, 1, "zero value constructor")

	methods := map[string]*Callable{}
	for _, m := range dog.Methods {
		methods[m.Name] = m
	}
	require.Contains(t, methods, "bark")
	assert.True(t, methods["bark"].ReturnsError)
	assert.Equal(t, []reflect.Type{reflect.TypeFor[int]()}, methods["bark"].Params)
	assert.Contains(t, methods, "toString")
	assert.Equal(t, reflect.TypeFor[*Animal](), methods["name"].Declaring)
	assert.True(t, methods["name"].Public)
	assert.False(t, methods["whisper"].Public, "promoted from unexported type")

	fields := map[string]*Field{}
	for _, f := range dog.Fields {
		fields[f.Name] = f
	}
	assert.Contains(t, fields, "breed")
	assert.Contains(t, fields, "label")
	assert.NotContains(t, fields, "skip")
	assert.False(t, fields["secret"].Public)
	assert.True(t, fields["legs"].Public)
}

func TestRedeclaredMethodBelongsToOuterType(t *testing.T) {
	reg := NewRegistry()
	widget := reg.Class(reflect.TypeFor[*Widget]())

	methods := map[string]*Callable{}
	for _, m := range widget.Methods {
		methods[m.Name] = m
	}
	require.Contains(t, methods, "title")
	assert.Equal(t, reflect.TypeFor[*Widget](), methods["title"].Declaring)
	assert.True(t, methods["title"].Public)

	require.Contains(t, methods, "note")
	assert.Equal(t, reflect.TypeFor[caption](), methods["note"].Declaring)
	assert.False(t, methods["note"].Public, "promoted from unexported type")
}

func TestRegisterOptions(t *testing.T) {
	reg := NewRegistry()
	class, err := reg.Register(reflect.TypeFor[*Dog](),
		WithName("Dog"),
		WithConstructor(newDog),
		WithStatic("count", func() int { return dogCount }),
		WithStaticField("population", &dogCount),
		WithAlias("Bark", "speak"),
		WithInterfaces(reflect.TypeFor[Named]()),
	)
	require.NoError(t, err)

	got, ok := reg.Lookup("Dog")
	require.True(t, ok)
	assert.Same(t, class, got)
	assert.Equal(t, []string{"Dog"}, reg.Names())

	var names []string
	for _, m := range class.Methods {
		names = append(names, m.Name)
	}
	assert.Contains(t, names, "speak")
	assert.Contains(t, names, "count")
	assert.NotContains(t, names, "bark")

	_, err = reg.Register(reflect.TypeFor[*Animal](), WithName("Dog"))
	assert.Error(t, err, "duplicate name")

	_, err = reg.Register(reflect.TypeFor[*hidden](), WithInterfaces(reflect.TypeFor[Named]()))
	assert.Error(t, err, "does not implement")

	_, err = reg.Register(reflect.TypeFor[*Animal](), WithConstructor(func() int { return 1 }))
	assert.Error(t, err, "wrong constructor result")
}

func TestInvoke(t *testing.T) {
	reg := NewRegistry()
	class := reg.Class(reflect.TypeFor[*Dog]())
	byName := func(name string) *Callable {
		for _, m := range class.Methods {
			if m.Name == name {
				return m
			}
		}
		t.Fatalf("no method %s", name)
		return nil
	}
	d := reflect.ValueOf(newDog("lab"))

	out, err := byName("bark").Invoke(d, []reflect.Value{reflect.ValueOf(2)})
	require.NoError(t, err)
	assert.Equal(t, "woof", out.String())

	_, err = byName("bark").Invoke(d, []reflect.Value{reflect.ValueOf(-1)})
	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.EqualError(t, invErr.Cause, "negative")

	_, err = byName("panic").Invoke(d, nil)
	require.ErrorAs(t, err, &invErr)
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "kaboom", panicErr.Value)

	_, err = byName("bark").Invoke(reflect.Zero(reflect.TypeFor[*Dog]()), []reflect.Value{reflect.ValueOf(1)})
	var accErr *AccessError
	require.ErrorAs(t, err, &accErr)

	ctor := class.Constructors[0]
	made, err := ctor.Invoke(reflect.Value{}, nil)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[*Dog](), made.Type())
}

func TestFieldAccess(t *testing.T) {
	reg := NewRegistry()
	class, err := reg.Register(reflect.TypeFor[*Dog](), WithStaticField("population", &dogCount))
	require.NoError(t, err)
	fields := map[string]*Field{}
	for _, f := range class.Fields {
		fields[f.Name] = f
	}

	d := newDog("pug")
	rv := reflect.ValueOf(d)
	require.NoError(t, fields["legs"].Set(rv, reflect.ValueOf(3)))
	got, err := fields["legs"].Get(rv)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Int())
	assert.Equal(t, 3, d.Legs)

	orphan := reflect.ValueOf(&Dog{})
	_, err = fields["legs"].Get(orphan)
	var accErr *AccessError
	assert.ErrorAs(t, err, &accErr, "nil embedded pointer")

	err = fields["breed"].Set(reflect.ValueOf(Dog{}), reflect.ValueOf("x"))
	assert.ErrorAs(t, err, &accErr, "unaddressable struct")

	saved := dogCount
	defer func() { dogCount = saved }()
	require.NoError(t, fields["population"].Set(reflect.Value{}, reflect.ValueOf(9)))
	assert.Equal(t, 9, dogCount)
}

func TestSubtypesAndAncestors(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(reflect.TypeFor[*Animal](), WithInterfaces(reflect.TypeFor[Named]()))
	dogT, animalT, namedT := reflect.TypeFor[*Dog](), reflect.TypeFor[*Animal](), reflect.TypeFor[Named]()

	assert.True(t, reg.IsSubtype(dogT, animalT))
	assert.True(t, reg.IsSubtype(dogT, namedT))
	assert.True(t, reg.IsSubtype(dogT, TypeAny))
	assert.False(t, reg.IsSubtype(animalT, dogT))

	want := []reflect.Type{dogT, animalT, namedT, TypeAny}
	if diff := cmp.Diff(want, reg.Ancestors(dogT), cmp.Comparer(func(a, b reflect.Type) bool { return a == b })); diff != "" {
		t.Fatalf("ancestors mismatch (-want +got):\n%s", diff)
	}

	d := newDog("husky")
	up, ok := reg.Upcast(reflect.ValueOf(d), animalT)
	require.True(t, ok)
	assert.Same(t, d.Animal, up.Interface())

	_, ok = reg.Upcast(reflect.ValueOf(&Dog{}), animalT)
	assert.False(t, ok)
}

type Listener interface {
	Handle(event string) error
	String() string
}

type ListenerFunc func(event string) error

func (f ListenerFunc) Handle(event string) error { return f(event) }

func (f ListenerFunc) String() string { return "listener" }

func TestContracts(t *testing.T) {
	reg := NewRegistry()
	ifaceT := reflect.TypeFor[Listener]()

	_, ok := reg.Contract(ifaceT)
	assert.False(t, ok)

	require.NoError(t, reg.RegisterContract(ifaceT, func(f ListenerFunc) Listener { return f }))
	c, ok := reg.Contract(ifaceT)
	require.True(t, ok)
	assert.True(t, c.ReturnsError())
	assert.False(t, c.Async())
	assert.Nil(t, c.Result())

	var seen string
	impl := c.Implement(reflect.ValueOf(ListenerFunc(func(e string) error { seen = e; return nil })))
	l := impl.Interface().(Listener)
	require.NoError(t, l.Handle("click"))
	assert.Equal(t, "click", seen)
	assert.Equal(t, "listener", l.String())

	fc, ok := reg.Contract(reflect.TypeFor[func(int) *Future]())
	require.True(t, ok)
	assert.True(t, fc.Async())

	_, ok = reg.Contract(reflect.TypeFor[func() (int, int)]())
	assert.False(t, ok)

	assert.Error(t, reg.RegisterContract(reflect.TypeFor[int](), nil))
	assert.Error(t, reg.RegisterContract(ifaceT, func(int) Listener { return nil }))
}

func TestFuture(t *testing.T) {
	f := NewFuture()
	_, err := f.Result()
	assert.ErrorIs(t, err, ErrPending)

	go f.Complete(42, nil)
	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.False(t, f.Complete(0, errors.New("late")))

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	_, err = NewFuture().Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
