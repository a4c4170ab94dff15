package runtime

import "testing"

func TestClassPrototypes(t *testing.T) {
	saved := DefaultObjectPrototype
	DefaultObjectPrototype = NewOrdinaryObject(nil)
	defer func() { DefaultObjectPrototype = saved }()

	animal := NewClass(ClassDefinition{Name: "Animal"})
	dog := NewClass(ClassDefinition{Name: "Dog", Parent: animal})
	plain := NewClass(ClassDefinition{Name: "Plain", Attributes: ClassAttributeNoAutomaticPrototype})

	a := NewClassObject(dog, nil)
	b := NewClassObject(dog, nil)
	if a.Prototype == nil || a.Prototype != b.Prototype {
		t.Fatalf("instances of one class must share a prototype")
	}
	if a.Prototype != dog.Prototype() {
		t.Fatalf("expected the class prototype")
	}
	if a.Prototype.Prototype != animal.Prototype() {
		t.Fatalf("class prototype must chain to the parent class prototype")
	}
	if animal.Prototype().Prototype != DefaultObjectPrototype {
		t.Fatalf("root class prototype must chain to Object.prototype")
	}

	animal.Prototype().Set("legs", NewNumber(4))
	if got := b.Get("legs"); got.Type != TypeNumber || got.Number != 4 {
		t.Fatalf("expected inherited legs=4, got %v", got.ToString())
	}

	if p := NewClassObject(plain, nil).Prototype; p != DefaultObjectPrototype {
		t.Fatalf("expected Object.prototype without an automatic prototype")
	}
}
