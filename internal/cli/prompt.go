package cli

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/simplysf/simply-package/pkg/dependencies"
	pkgerrors "github.com/simplysf/simply-package/pkg/errors"
)

// isInteractive reports whether the user can answer a form. Forms read
// stdin and draw on stderr, so stdout may be redirected.
var isInteractive = func() bool {
	return terminalsAttached(os.Stdin, os.Stderr)
}

func terminalsAttached(in, out *os.File) bool {
	return term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd()))
}

// confirmFunc asks a yes/no question.
type confirmFunc func(ctx context.Context, title string) (bool, error)

// huhConfirm renders a confirmation form on stderr.
func huhConfirm(ctx context.Context, title string) (bool, error) {
	if !isInteractive() {
		return false, pkgerrors.New(pkgerrors.ErrCodeInvalidInput,
			"confirmation required but the terminal is not interactive; rerun with --no-prompt")
	}
	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	)).WithProgramOptions(tea.WithOutput(os.Stderr))

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, pkgerrors.New(pkgerrors.ErrCodeCanceled, "canceled by user")
		}
		return false, err
	}
	return ok, nil
}

// newPrompter adapts confirm to the install prompts. The spinner is hidden
// while the question is on screen.
func newPrompter(confirm confirmFunc, spin *Spinner) dependencies.Prompter {
	ask := func(ctx context.Context, title string) (bool, error) {
		if spin != nil {
			spin.Pause()
			defer spin.Resume()
		}
		return confirm(ctx, title)
	}
	return dependencies.PromptFuncs{
		ConfirmDeleteUpgradeFunc: func(ctx context.Context, pkg dependencies.PackageToInstall) (bool, error) {
			return ask(ctx, dependencies.DeleteUpgradeMessage(pkg))
		},
		EnableRemoteSitesFunc: func(ctx context.Context, pkg dependencies.PackageToInstall, sites []string) (bool, error) {
			return ask(ctx, dependencies.RemoteSitesMessage(sites))
		},
	}
}
