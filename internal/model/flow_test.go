package model

import "testing"

func namedStep(name string) Step {
	return Step{Name: name, Target: CoordinateTarget{X: 1, Y: 1}}
}

func stepNames(f Flow) []string {
	names := make([]string, len(f.Steps))
	for i, s := range f.Steps {
		names[i] = s.Name
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFlow_EditsDoNotMutateOriginal(t *testing.T) {
	orig := Flow{Name: "f", Steps: []Step{namedStep("a"), namedStep("b"), namedStep("c")}}

	added := orig.AddStep(namedStep("d"))
	if got := stepNames(added); !equalStrings(got, []string{"a", "b", "c", "d"}) {
		t.Errorf("AddStep: got %v", got)
	}

	updated, err := orig.UpdateStep(1, namedStep("B"))
	if err != nil {
		t.Fatal(err)
	}
	if got := stepNames(updated); !equalStrings(got, []string{"a", "B", "c"}) {
		t.Errorf("UpdateStep: got %v", got)
	}

	removed, err := orig.RemoveStep(0)
	if err != nil {
		t.Fatal(err)
	}
	if got := stepNames(removed); !equalStrings(got, []string{"b", "c"}) {
		t.Errorf("RemoveStep: got %v", got)
	}

	moved, err := orig.MoveStep(0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := stepNames(moved); !equalStrings(got, []string{"b", "c", "a"}) {
		t.Errorf("MoveStep: got %v", got)
	}

	if got := stepNames(orig); !equalStrings(got, []string{"a", "b", "c"}) {
		t.Errorf("original mutated: %v", got)
	}
}

func TestFlow_IndexOutOfRange(t *testing.T) {
	f := Flow{Name: "f", Steps: []Step{namedStep("a")}}
	if _, err := f.UpdateStep(1, namedStep("x")); err == nil {
		t.Error("UpdateStep(1) should fail")
	}
	if _, err := f.RemoveStep(-1); err == nil {
		t.Error("RemoveStep(-1) should fail")
	}
	if _, err := f.MoveStep(0, 3); err == nil {
		t.Error("MoveStep(0, 3) should fail")
	}
}

func TestWorkflow_Edits(t *testing.T) {
	w := Workflow{Name: "w", Flows: []string{"login", "search"}}
	w2 := w.Append("logout")
	if !equalStrings(w2.Flows, []string{"login", "search", "logout"}) {
		t.Errorf("Append: got %v", w2.Flows)
	}
	w3, err := w2.Move(2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !equalStrings(w3.Flows, []string{"logout", "login", "search"}) {
		t.Errorf("Move: got %v", w3.Flows)
	}
	w4, err := w3.Remove(1)
	if err != nil {
		t.Fatal(err)
	}
	if !equalStrings(w4.Flows, []string{"logout", "search"}) {
		t.Errorf("Remove: got %v", w4.Flows)
	}
	if !equalStrings(w.Flows, []string{"login", "search"}) {
		t.Errorf("original mutated: %v", w.Flows)
	}
}
