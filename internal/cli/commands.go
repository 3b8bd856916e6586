package cli

// Globals defines global flags available to all commands.
type Globals struct {
	User string `help:"User whose ledger to operate on." env:"FINLEDGER_USER" required:""`
}

type Commands struct {
	Globals

	Add     AddCmd     `cmd:"" help:"Record a new transaction."`
	Edit    EditCmd    `cmd:"" help:"Change fields of an existing transaction."`
	Delete  DeleteCmd  `cmd:"" help:"Delete a transaction."`
	List    ListCmd    `cmd:"" help:"List transactions, newest first."`
	Summary SummaryCmd `cmd:"" help:"Show income, expenses and balance."`
	Months  MonthsCmd  `cmd:"" help:"List the month filter values of a year."`
	Watch   WatchCmd   `cmd:"" help:"Print transaction change events as they arrive."`
}
