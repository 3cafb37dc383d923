package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"zlagoda_console/internal/session"
	"zlagoda_console/internal/zlagoda"

	"go.uber.org/zap"
)

type command struct {
	name    string
	args    string
	summary string
	require session.Requirement
	run     func(r *Runner, ctx context.Context, args []string) error
}

var (
	errPending  = userError("Loading session, try again in a moment")
	errLoggedIn = userError("Please log in first: login <username>")
)

// userError is a message printed to the operator verbatim.
type userError string

func (e userError) Error() string { return string(e) }

type usageError struct {
	cmd command
}

func (e usageError) Error() string {
	return fmt.Sprintf("usage: %s %s", e.cmd.name, e.cmd.args)
}

func commandTable() []command {
	return []command{
		{name: "help", summary: "List commands", run: (*Runner).cmdHelp},
		{name: "login", args: "<username> [password]", summary: "Sign in", run: (*Runner).cmdLogin},
		{name: "register", args: "--login L --password P --surname S --name N --salary N [--role Cashier|Manager] [...]", summary: "Create an employee account and sign in", run: (*Runner).cmdRegister},
		{name: "logout", summary: "Sign out and forget the stored credential", run: (*Runner).cmdLogout},
		{name: "whoami", summary: "Show the signed-in employee", require: session.RequireAuthenticated, run: (*Runner).cmdWhoami},

		{name: "categories", args: "[--sort F] [--filter T]", summary: "List categories", require: session.RequireAuthenticated, run: (*Runner).cmdCategories},
		{name: "products", args: "[--category ID] [--search NAME] [--sort F] [--filter T]", summary: "List products", require: session.RequireAuthenticated, run: (*Runner).cmdProducts},
		{name: "store-products", args: "[--promo] [--sort F] [--filter T]", summary: "List store inventory", require: session.RequireAuthenticated, run: (*Runner).cmdStoreProducts},
		{name: "cards", args: "[--sort F] [--filter T]", summary: "List customer cards", require: session.RequireAuthenticated, run: (*Runner).cmdCards},
		{name: "employees", args: "[--sort F] [--filter T]", summary: "List employees", require: session.RequireManager, run: (*Runner).cmdEmployees},
		{name: "receipts", args: "[--sort F] [--filter T]", summary: "List receipts", require: session.RequireAuthenticated, run: (*Runner).cmdReceipts},
		{name: "receipt", args: "<number>", summary: "Show one receipt with its lines", require: session.RequireAuthenticated, run: (*Runner).cmdReceipt},
		{name: "receipt-delete", args: "<number>", summary: "Delete a receipt", require: session.RequireManager, run: (*Runner).cmdReceiptDelete},
		{name: "export", args: "<categories|products|store-products|cards|employees|receipts|receipt> [number]", summary: "Write a listing or a receipt to PDF", require: session.RequireAuthenticated, run: (*Runner).cmdExport},

		{name: "report", args: "<name> [args]", summary: "Run an analytical report ('report' alone lists them)", require: session.RequireManager, run: (*Runner).cmdReport},
		{name: "ask", args: "<question> | --reset", summary: "Ask the analytics assistant", require: session.RequireManager, run: (*Runner).cmdAsk},

		{name: "new", summary: "Start a new receipt", require: session.RequireAuthenticated, run: (*Runner).cmdNew},
		{name: "cashiers", summary: "List cashiers a receipt can be issued under", require: session.RequireAuthenticated, run: (*Runner).cmdCashiers},
		{name: "cashier", args: "<employee id>", summary: "Choose the receipt's cashier", require: session.RequireAuthenticated, run: (*Runner).cmdCashier},
		{name: "card", args: "<card number> | -", summary: "Apply or remove a loyalty card", require: session.RequireAuthenticated, run: (*Runner).cmdCard},
		{name: "add", args: "<upc> [quantity]", summary: "Add a line", require: session.RequireAuthenticated, run: (*Runner).cmdAdd},
		{name: "set", args: "<line> <upc> <quantity>", summary: "Change a line", require: session.RequireAuthenticated, run: (*Runner).cmdSet},
		{name: "rm", args: "<line>", summary: "Remove a line", require: session.RequireAuthenticated, run: (*Runner).cmdRemove},
		{name: "show", summary: "Show the receipt being composed", require: session.RequireAuthenticated, run: (*Runner).cmdShow},
		{name: "submit", summary: "Create the receipt", require: session.RequireAuthenticated, run: (*Runner).cmdSubmit},
		{name: "cancel", summary: "Discard the receipt being composed", require: session.RequireAuthenticated, run: (*Runner).cmdCancel},
	}
}

func findCommand(name string) (command, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range commandTable() {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// dispatch gates a command on the session and runs it. The returned error
// is already phrased for the user.
func (r *Runner) dispatch(ctx context.Context, args []string) error {
	cmd, ok := findCommand(args[0])
	if !ok {
		return fmt.Errorf("unknown command %q; type 'help'", args[0])
	}

	switch r.guard.Check(cmd.require) {
	case session.DecisionPending:
		return errPending
	case session.DecisionLogin:
		return errLoggedIn
	case session.DecisionForbidden:
		return userError(fmt.Sprintf("Access denied: '%s' requires the %s role", cmd.name, requiredRole(cmd.require)))
	}

	err := cmd.run(r, ctx, args[1:])
	if err == nil {
		return nil
	}
	var usage usageError
	if errors.As(err, &usage) {
		return err
	}
	r.logger.Debug("command failed", zap.String("name", cmd.name), zap.Error(err))
	return errors.New(zlagoda.UserMessage(err, ""))
}

func requiredRole(req session.Requirement) string {
	switch req {
	case session.RequireManager:
		return "Manager"
	case session.RequireCashier:
		return "Cashier"
	default:
		return "signed-in"
	}
}

func (r *Runner) cmdHelp(_ context.Context, _ []string) error {
	state := r.store.State()
	cmds := commandTable()
	sort.SliceStable(cmds, func(i, j int) bool { return cmds[i].require < cmds[j].require })

	for _, c := range cmds {
		if session.Evaluate(state, c.require) == session.DecisionForbidden {
			continue
		}
		usage := c.name
		if c.args != "" {
			usage += " " + c.args
		}
		fmt.Fprintf(r.out, "  %-40s %s\n", usage, c.summary)
	}
	fmt.Fprintf(r.out, "  %-40s %s\n", "exit", "Leave the console")
	return nil
}
