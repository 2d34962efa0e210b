package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mj1618/desktop-flow/internal/model"
	"github.com/spf13/cobra"
)

// addStepFlags registers the flags that describe one step.
func addStepFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Step name")
	cmd.Flags().String("description", "", "Step description")
	cmd.Flags().String("image", "", "Image to find on screen (absolute or relative to the image directory)")
	cmd.Flags().Int("x", 0, "Absolute X screen coordinate (with --y, instead of --image)")
	cmd.Flags().Int("y", 0, "Absolute Y screen coordinate (with --x, instead of --image)")
	cmd.Flags().String("action", "click", "Action at the target: click, hover")
	cmd.Flags().String("anchor", "center", "Point of the matched image to act on: center, upper-left, upper-right, lower-left, lower-right")
	cmd.Flags().Int("wait", 0, "Milliseconds to wait before the step")
	cmd.Flags().StringArray("sub", nil, "Sub-action after the action, repeatable: text:VALUE, key:NAME, scroll:up|down")
}

// stepFromFlags builds a step from the flags added by addStepFlags.
func stepFromFlags(cmd *cobra.Command) (model.Step, error) {
	name, _ := cmd.Flags().GetString("name")
	desc, _ := cmd.Flags().GetString("description")
	imagePath, _ := cmd.Flags().GetString("image")
	x, _ := cmd.Flags().GetInt("x")
	y, _ := cmd.Flags().GetInt("y")
	actionStr, _ := cmd.Flags().GetString("action")
	anchorStr, _ := cmd.Flags().GetString("anchor")
	waitMs, _ := cmd.Flags().GetInt("wait")
	subs, _ := cmd.Flags().GetStringArray("sub")

	hasX := cmd.Flags().Changed("x")
	hasY := cmd.Flags().Changed("y")

	var target model.Target
	switch {
	case imagePath != "" && (hasX || hasY):
		return model.Step{}, fmt.Errorf("use either --image or --x/--y, not both")
	case imagePath != "":
		target = model.ImageTarget{Path: imagePath}
	case hasX && hasY:
		target = model.CoordinateTarget{X: x, Y: y}
	case hasX || hasY:
		return model.Step{}, fmt.Errorf("--x and --y must be given together")
	default:
		return model.Step{}, fmt.Errorf("specify --image or --x and --y")
	}

	action, err := model.ParseAction(actionStr)
	if err != nil {
		return model.Step{}, err
	}
	anchor, err := model.ParseAnchor(anchorStr)
	if err != nil {
		return model.Step{}, err
	}
	if waitMs < 0 {
		return model.Step{}, fmt.Errorf("--wait must not be negative")
	}

	var subActions []model.SubAction
	for _, s := range subs {
		sub, err := model.ParseSubAction(s)
		if err != nil {
			return model.Step{}, err
		}
		subActions = append(subActions, sub)
	}

	return model.NewStep(name, desc, target, action, anchor, time.Duration(waitMs)*time.Millisecond, subActions...)
}

// parseIndex converts a 1-based position argument to a 0-based index.
func parseIndex(arg string, n int) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: %w", arg, err)
	}
	if i < 1 || i > n {
		return 0, fmt.Errorf("index %d out of range (have %d)", i, n)
	}
	return i - 1, nil
}
