package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/alecthomas/kong"

	"finledger/internal/events"
)

type WatchCmd struct{}

// Run prints events until interrupted. Events for other users are skipped;
// deletes carry no owner and are always shown.
func (cmd *WatchCmd) Run(ctx *kong.Context, globals *Globals, rt *Runtime) error {
	runCtx, cancel := ShutdownContext(context.Background(), rt.Logger)
	defer cancel()

	sub, err := rt.Opener.Subscribe(runCtx)
	if err != nil {
		return err
	}
	defer sub.Close()

	printInfof(ctx.Stdout, "Watching transaction events for %s", globals.User)
	err = sub.Subscribe(runCtx, func(ev events.TransactionEvent) error {
		if ev.UserID != "" && ev.UserID != globals.User {
			return nil
		}
		_, _ = fmt.Fprintf(ctx.Stdout, "%s  %-8s %s\n",
			mutedStyle.Render(ev.OccurredAt.Format("2006-01-02 15:04:05")),
			ev.Kind,
			ev.TransactionID)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
