package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mj1618/desktop-flow/internal/engine"
	"golang.org/x/term"
)

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// policyFor maps an on-failure mode to a policy. "ask" needs a terminal and
// degrades to continue without one.
func policyFor(mode string, interactive bool) (engine.Policy, error) {
	if mode == "ask" {
		if interactive {
			return askPolicy, nil
		}
		return engine.ContinuePolicy, nil
	}
	p, err := engine.ParsePolicy(mode)
	if err != nil {
		return nil, fmt.Errorf("invalid --on-failure: %w", err)
	}
	return p, nil
}

func askPolicy(fc engine.FailureContext) engine.Decision {
	what := fmt.Sprintf("Step %d (%s) of flow %q failed", fc.Index, fc.Name, fc.Flow)
	if fc.Scope == engine.ScopeFlow {
		what = fmt.Sprintf("Flow %d (%s) of workflow %q failed", fc.Index, fc.Name, fc.Workflow)
	}

	cont := true
	err := huh.NewConfirm().
		Title(what).
		Description(fc.Reason).
		Affirmative("Continue").
		Negative("Abort").
		Value(&cont).
		Run()
	if err != nil || !cont {
		return engine.Abort
	}
	return engine.Continue
}

// huhNotifier shows step failures in a note the operator has to dismiss.
type huhNotifier struct{}

func (huhNotifier) Notify(_ context.Context, title, message string) {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(title).
				Description(message).
				Next(true).
				NextLabel("OK"),
		),
	).WithTheme(huh.ThemeCharm())
	if err := form.Run(); err != nil {
		printErr("%s: %s\n", title, message)
	}
}
