package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/mj1618/desktop-flow/cmd"
)

func main() {
	ctx := context.Background()

	// Failed runs already printed their report.
	errorHandler := func(w io.Writer, styles fang.Styles, err error) {
		if errors.Is(err, cmd.ErrRunFailed) {
			return
		}
		fang.DefaultErrorHandler(w, styles, err)
	}

	if err := fang.Execute(ctx, cmd.Root(),
		fang.WithVersion(cmd.Version),
		fang.WithErrorHandler(errorHandler),
	); err != nil {
		os.Exit(1)
	}
}
