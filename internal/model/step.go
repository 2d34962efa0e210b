package model

import (
	"fmt"
	"strings"
	"time"
)

// Target is where a step acts: an image to find on screen or a fixed point.
// The set of implementations is closed (ImageTarget, CoordinateTarget).
type Target interface {
	isTarget()
	String() string
}

// ImageTarget locates the step's point by searching the screen for an image.
type ImageTarget struct {
	Path string // standardized image reference
}

// CoordinateTarget acts at a literal screen point.
type CoordinateTarget struct {
	X, Y int
}

func (ImageTarget) isTarget()      {}
func (CoordinateTarget) isTarget() {}

func (t ImageTarget) String() string      { return "image:" + t.Path }
func (t CoordinateTarget) String() string { return fmt.Sprintf("(%d,%d)", t.X, t.Y) }

// Action is the primitive performed at the resolved point.
type Action int

const (
	ActionClick Action = iota
	ActionHover
)

func (a Action) String() string {
	switch a {
	case ActionHover:
		return "hover"
	default:
		return "click"
	}
}

// ParseAction converts "click" or "hover" (any case) to an Action.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "click", "":
		return ActionClick, nil
	case "hover":
		return ActionHover, nil
	default:
		return ActionClick, fmt.Errorf("unknown action %q (expected click or hover)", s)
	}
}

// Anchor selects which point of a matched image region is acted on.
type Anchor int

const (
	AnchorCenter Anchor = iota
	AnchorUpperLeft
	AnchorUpperRight
	AnchorLowerLeft
	AnchorLowerRight
)

var anchorNames = map[Anchor]string{
	AnchorCenter:     "center",
	AnchorUpperLeft:  "upper-left",
	AnchorUpperRight: "upper-right",
	AnchorLowerLeft:  "lower-left",
	AnchorLowerRight: "lower-right",
}

// Anchors lists every anchor in declaration order.
var Anchors = []Anchor{AnchorCenter, AnchorUpperLeft, AnchorUpperRight, AnchorLowerLeft, AnchorLowerRight}

func (a Anchor) String() string {
	if n, ok := anchorNames[a]; ok {
		return n
	}
	return fmt.Sprintf("anchor(%d)", int(a))
}

// ParseAnchor accepts "center", "upper-left", "UpperLeft", "upper_left" and so on.
func ParseAnchor(s string) (Anchor, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	if norm == "" {
		return AnchorCenter, nil
	}
	for a, name := range anchorNames {
		if strings.ReplaceAll(name, "-", "") == norm {
			return a, nil
		}
	}
	return AnchorCenter, fmt.Errorf("unknown anchor %q (expected center, upper-left, upper-right, lower-left, lower-right)", s)
}

// Step is one automation unit. Build it with NewStep; a constructed step is
// treated as a value and edits replace it entirely.
type Step struct {
	Name        string
	Description string
	Target      Target
	Action      Action
	Anchor      Anchor // only meaningful for ImageTarget
	PreWait     time.Duration
	SubActions  []SubAction
}

// NewStep validates and returns a step. The sub-action slice is copied.
func NewStep(name, description string, target Target, action Action, anchor Anchor, preWait time.Duration, subs ...SubAction) (Step, error) {
	s := Step{
		Name:        name,
		Description: description,
		Target:      target,
		Action:      action,
		Anchor:      anchor,
		PreWait:     preWait,
		SubActions:  append([]SubAction(nil), subs...),
	}
	if err := ValidateStep(s); err != nil {
		return Step{}, err
	}
	return s, nil
}

// Label returns the step name, or a description of its target when unnamed.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Target == nil {
		return "(no target)"
	}
	return s.Action.String() + " " + s.Target.String()
}
