package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"finledger/internal/ledger"
)

type AddCmd struct {
	Title    string `help:"Transaction title." required:""`
	Amount   string `help:"Amount, dot or comma as decimal separator." required:""`
	Type     string `help:"income or expense." default:"income" enum:"income,expense"`
	Category string `help:"Category name." required:""`
	Date     string `help:"Date as YYYY-MM-DD (defaults to today)."`
}

func (cmd *AddCmd) Run(ctx *kong.Context, globals *Globals, rt *Runtime) error {
	return rt.withEngine(globals.User, func(runCtx context.Context, e *ledger.Engine) error {
		d := ledger.NewDraft(rt.now())
		d.Title = cmd.Title
		d.Amount = cmd.Amount
		d.Type = cmd.Type
		d.Category = cmd.Category
		if cmd.Date != "" {
			d.Date = cmd.Date
		}
		if err := e.Save(runCtx, d); err != nil {
			return err
		}
		printSuccess(ctx.Stdout, fmt.Sprintf("Saved %q", cmd.Title))
		return nil
	})
}

type EditCmd struct {
	ID       string  `arg:"" help:"Transaction id."`
	Title    *string `help:"New title."`
	Amount   *string `help:"New amount."`
	Type     *string `help:"New type (income or expense)."`
	Category *string `help:"New category."`
	Date     *string `help:"New date as YYYY-MM-DD."`
}

func (cmd *EditCmd) Run(ctx *kong.Context, globals *Globals, rt *Runtime) error {
	return rt.withEngine(globals.User, func(runCtx context.Context, e *ledger.Engine) error {
		if err := e.SelectForEdit(cmd.ID); err != nil {
			return err
		}
		d := e.Draft()
		set := func(dst *string, v *string) {
			if v != nil {
				*dst = *v
			}
		}
		set(&d.Title, cmd.Title)
		set(&d.Amount, cmd.Amount)
		set(&d.Type, cmd.Type)
		set(&d.Category, cmd.Category)
		set(&d.Date, cmd.Date)

		if err := e.Save(runCtx, d); err != nil {
			return err
		}
		printSuccess(ctx.Stdout, fmt.Sprintf("Updated %s", cmd.ID))
		return nil
	})
}

type DeleteCmd struct {
	ID string `arg:"" help:"Transaction id."`
}

func (cmd *DeleteCmd) Run(ctx *kong.Context, globals *Globals, rt *Runtime) error {
	return rt.withEngine(globals.User, func(runCtx context.Context, e *ledger.Engine) error {
		if err := e.SelectForEdit(cmd.ID); err != nil {
			return err
		}
		if err := e.Delete(runCtx, cmd.ID); err != nil {
			return err
		}
		printSuccess(ctx.Stdout, fmt.Sprintf("Deleted %s", cmd.ID))
		return nil
	})
}
