package model

import (
	"fmt"
	"time"
)

// Click types stored in StepRecord.ClickType.
const (
	ClickTypeImage      = "image"
	ClickTypeCoordinate = "coordinate"
)

// StepRecord is the persisted form of a Step. Field names follow the stored
// schema: imagePath, waitTime, subSteps, clickPosition, name, description,
// actionType, clickType, clickX, clickY.
type StepRecord struct {
	ImagePath     string          `yaml:"imagePath,omitempty"     json:"imagePath,omitempty"     validate:"required_if=ClickType image"`
	WaitTime      int             `yaml:"waitTime"                json:"waitTime"                validate:"gte=0"`
	SubSteps      []SubStepRecord `yaml:"subSteps"                json:"subSteps"                validate:"dive"`
	ClickPosition string          `yaml:"clickPosition,omitempty" json:"clickPosition,omitempty" validate:"omitempty,anchor"`
	Name          string          `yaml:"name"                    json:"name"`
	Description   string          `yaml:"description"             json:"description"`
	ActionType    string          `yaml:"actionType"              json:"actionType"              validate:"omitempty,oneof=click hover"`
	ClickType     string          `yaml:"clickType"               json:"clickType"               validate:"required,oneof=image coordinate"`
	ClickX        *int            `yaml:"clickX,omitempty"        json:"clickX,omitempty"        validate:"required_if=ClickType coordinate"`
	ClickY        *int            `yaml:"clickY,omitempty"        json:"clickY,omitempty"        validate:"required_if=ClickType coordinate"`
}

// SubStepRecord is the persisted form of a SubAction.
type SubStepRecord struct {
	Type  string `yaml:"type"  json:"type"  validate:"required,oneof=text key scroll"`
	Value string `yaml:"value" json:"value"`
}

// FlowRecord is the persisted form of a Flow: its ordered step records.
type FlowRecord []StepRecord

// WorkflowRecord is the persisted form of a Workflow: its ordered flow names.
type WorkflowRecord []string

// StepToRecord converts a step to its persisted form.
func StepToRecord(s Step) StepRecord {
	r := StepRecord{
		WaitTime:    int(s.PreWait / time.Millisecond),
		Name:        s.Name,
		Description: s.Description,
		ActionType:  s.Action.String(),
		SubSteps:    make([]SubStepRecord, 0, len(s.SubActions)),
	}
	switch t := s.Target.(type) {
	case ImageTarget:
		r.ClickType = ClickTypeImage
		r.ImagePath = t.Path
		r.ClickPosition = s.Anchor.String()
	case CoordinateTarget:
		x, y := t.X, t.Y
		r.ClickType = ClickTypeCoordinate
		r.ClickX, r.ClickY = &x, &y
	}
	for _, sub := range s.SubActions {
		r.SubSteps = append(r.SubSteps, subActionToRecord(sub))
	}
	return r
}

func subActionToRecord(sub SubAction) SubStepRecord {
	switch a := sub.(type) {
	case TextInput:
		return SubStepRecord{Type: a.Kind(), Value: a.Value}
	case KeyPress:
		return SubStepRecord{Type: a.Kind(), Value: a.Name}
	case ScrollWheel:
		return SubStepRecord{Type: a.Kind(), Value: a.Direction.String()}
	default:
		panic(fmt.Sprintf("model: unhandled sub-action %T", sub))
	}
}

// StepFromRecord validates a record and converts it to a Step.
func StepFromRecord(r StepRecord) (Step, error) {
	if err := ValidateRecord(r); err != nil {
		return Step{}, err
	}
	action, err := ParseAction(r.ActionType)
	if err != nil {
		return Step{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	s := Step{
		Name:        r.Name,
		Description: r.Description,
		Action:      action,
		PreWait:     time.Duration(r.WaitTime) * time.Millisecond,
	}
	switch r.ClickType {
	case ClickTypeImage:
		anchor, err := ParseAnchor(r.ClickPosition)
		if err != nil {
			return Step{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		s.Target = ImageTarget{Path: r.ImagePath}
		s.Anchor = anchor
	case ClickTypeCoordinate:
		s.Target = CoordinateTarget{X: *r.ClickX, Y: *r.ClickY}
	}
	for i, sr := range r.SubSteps {
		sub, err := newSubAction(sr.Type, sr.Value)
		if err != nil {
			return Step{}, fmt.Errorf("%w: sub-step %d: %v", ErrValidation, i+1, err)
		}
		s.SubActions = append(s.SubActions, sub)
	}
	return s, nil
}

// FlowToRecord converts a flow's steps to their persisted form.
func FlowToRecord(f Flow) FlowRecord {
	rec := make(FlowRecord, 0, len(f.Steps))
	for _, s := range f.Steps {
		rec = append(rec, StepToRecord(s))
	}
	return rec
}

// FlowFromRecord converts a named step-record list to a Flow.
func FlowFromRecord(name string, rec FlowRecord) (Flow, error) {
	f := Flow{Name: name, Steps: make([]Step, 0, len(rec))}
	for i, r := range rec {
		s, err := StepFromRecord(r)
		if err != nil {
			return Flow{}, fmt.Errorf("flow %q step %d: %w", name, i+1, err)
		}
		f.Steps = append(f.Steps, s)
	}
	return f, nil
}
