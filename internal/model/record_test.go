package model

import (
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestStepRecord_RoundTripImageStep(t *testing.T) {
	step, err := NewStep("Open menu", "clicks the hamburger", ImageTarget{Path: "images/x.png"},
		ActionClick, AnchorCenter, 250*time.Millisecond,
		TextInput{Value: "hello"}, KeyPress{Name: "Enter"}, ScrollWheel{Direction: ScrollDown}, KeyPress{Name: "Ctrl+a"})
	if err != nil {
		t.Fatal(err)
	}

	data, err := yaml.Marshal(FlowRecord{StepToRecord(step)})
	if err != nil {
		t.Fatal(err)
	}
	var decoded FlowRecord
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected 1 record, got %d", len(decoded))
	}
	got, err := StepFromRecord(decoded[0])
	if err != nil {
		t.Fatal(err)
	}

	if got.Name != step.Name || got.Description != step.Description {
		t.Errorf("name/description: got %q/%q", got.Name, got.Description)
	}
	if got.Target != (ImageTarget{Path: "images/x.png"}) {
		t.Errorf("target: got %v", got.Target)
	}
	if got.Action != ActionClick || got.Anchor != AnchorCenter {
		t.Errorf("action/anchor: got %v/%v", got.Action, got.Anchor)
	}
	if got.PreWait != 250*time.Millisecond {
		t.Errorf("pre-wait: got %v", got.PreWait)
	}
	want := []SubAction{TextInput{Value: "hello"}, KeyPress{Name: "Enter"}, ScrollWheel{Direction: ScrollDown}, KeyPress{Name: "Ctrl+a"}}
	if len(got.SubActions) != len(want) {
		t.Fatalf("sub-actions: got %d, want %d", len(got.SubActions), len(want))
	}
	for i := range want {
		if got.SubActions[i] != want[i] {
			t.Errorf("sub-action %d: got %v, want %v", i, got.SubActions[i], want[i])
		}
	}
}

func TestStepRecord_SchemaKeys(t *testing.T) {
	x, y := 10, 20
	rec := StepRecord{ClickType: ClickTypeCoordinate, ClickX: &x, ClickY: &y, ActionType: "hover", WaitTime: 5}
	data, err := yaml.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"waitTime", "subSteps", "name", "description", "actionType", "clickType", "clickX", "clickY"} {
		if _, ok := m[key]; !ok {
			t.Errorf("expected key %q in %v", key, m)
		}
	}
	if _, ok := m["imagePath"]; ok {
		t.Error("empty imagePath should be omitted")
	}
}

func TestStepFromRecord_Coordinate(t *testing.T) {
	x, y := 0, 0
	s, err := StepFromRecord(StepRecord{ClickType: ClickTypeCoordinate, ClickX: &x, ClickY: &y, ActionType: "hover"})
	if err != nil {
		t.Fatal(err)
	}
	if s.Target != (CoordinateTarget{X: 0, Y: 0}) {
		t.Errorf("target: got %v", s.Target)
	}
	if s.Action != ActionHover {
		t.Errorf("action: got %v", s.Action)
	}
}

func TestStepFromRecord_Invalid(t *testing.T) {
	x := 1
	tests := []struct {
		name string
		rec  StepRecord
	}{
		{"missing click type", StepRecord{ImagePath: "a.png"}},
		{"image without path", StepRecord{ClickType: ClickTypeImage}},
		{"blank image path", StepRecord{ClickType: ClickTypeImage, ImagePath: "  \t"}},
		{"coordinate missing y", StepRecord{ClickType: ClickTypeCoordinate, ClickX: &x}},
		{"bad action", StepRecord{ClickType: ClickTypeImage, ImagePath: "a.png", ActionType: "drag"}},
		{"negative wait", StepRecord{ClickType: ClickTypeImage, ImagePath: "a.png", WaitTime: -1}},
		{"bad anchor", StepRecord{ClickType: ClickTypeImage, ImagePath: "a.png", ClickPosition: "middle"}},
		{"bad key", StepRecord{ClickType: ClickTypeImage, ImagePath: "a.png", SubSteps: []SubStepRecord{{Type: "key", Value: "Meta+x"}}}},
		{"bad scroll", StepRecord{ClickType: ClickTypeImage, ImagePath: "a.png", SubSteps: []SubStepRecord{{Type: "scroll", Value: "left"}}}},
		{"bad sub type", StepRecord{ClickType: ClickTypeImage, ImagePath: "a.png", SubSteps: []SubStepRecord{{Type: "drag"}}}},
	}
	for _, tt := range tests {
		_, err := StepFromRecord(tt.rec)
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", tt.name, err)
		}
	}
}

func TestNewStep_RequiresTarget(t *testing.T) {
	if _, err := NewStep("x", "", nil, ActionClick, AnchorCenter, 0); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if _, err := NewStep("x", "", ImageTarget{}, ActionClick, AnchorCenter, 0); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for empty path, got %v", err)
	}
	_, err := NewStep("x", "", ImageTarget{Path: "   "}, ActionClick, AnchorCenter, 0)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for blank path, got %v", err)
	} else if !strings.Contains(err.Error(), "ImagePath must not be blank") {
		t.Errorf("unexpected message: %v", err)
	}
	if _, err := NewStep("x", "", CoordinateTarget{X: 1, Y: 2}, ActionClick, AnchorCenter, -time.Second); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for negative wait, got %v", err)
	}
}

func TestFlowFromRecord_ReportsStepIndex(t *testing.T) {
	_, err := FlowFromRecord("login", FlowRecord{
		{ClickType: ClickTypeImage, ImagePath: "a.png"},
		{ClickType: ClickTypeImage},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if want := `flow "login" step 2`; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q should mention %q", err, want)
	}
}
