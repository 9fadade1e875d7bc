package component

import "testing"

func TestComponentKindNames(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"position", PositionComponent.Kind().Name(), "position"},
		{"game state", GameStateComponent.Kind().Name(), "game_state"},
		{"fallback to type", NewComponent[float64]("").Kind().Name(), "float64"},
		{"zero kind", ComponentKind[int]{}.Name(), ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if c.got != c.want {
				t.Fatalf("expected %q, got %q", c.want, c.got)
			}
		})
	}
}

func TestComponentKindIDsAreUnique(t *testing.T) {
	a := NewComponent[int]("same")
	b := NewComponent[int]("same")
	if a.Kind().ID() == b.Kind().ID() {
		t.Fatalf("two registrations share id %d", a.Kind().ID())
	}
	if !a.Kind().Valid() || (ComponentKind[int]{}).Valid() {
		t.Fatalf("unexpected validity")
	}
	if Name(ComponentID(1 << 30)) != "" {
		t.Fatalf("unknown id should have no name")
	}
}
