// Package cli is the Zlagoda console: a one-shot command runner and an
// interactive shell sharing one command table and one session store.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"zlagoda_console/internal/composer"
	"zlagoda_console/internal/config"
	"zlagoda_console/internal/export"
	"zlagoda_console/internal/llm"
	"zlagoda_console/internal/session"
	"zlagoda_console/internal/zlagoda"

	"go.uber.org/zap"
)

// Backend is the part of the REST client the console reads and writes
// directly. Login and profile calls go through the session store.
type Backend interface {
	Categories(ctx context.Context) ([]zlagoda.Category, error)
	Products(ctx context.Context) ([]zlagoda.Product, error)
	ProductsByCategory(ctx context.Context, categoryID int) ([]zlagoda.Product, error)
	SearchProducts(ctx context.Context, name string) ([]zlagoda.Product, error)
	StoreProductsWithDetails(ctx context.Context) ([]zlagoda.StoreProductDetails, error)
	PromotionalStoreProducts(ctx context.Context) ([]zlagoda.StoreProduct, error)
	CustomerCards(ctx context.Context) ([]zlagoda.CustomerCard, error)
	CustomerCard(ctx context.Context, number string) (zlagoda.CustomerCard, error)
	Employees(ctx context.Context) ([]zlagoda.Employee, error)
	Receipts(ctx context.Context) ([]zlagoda.Receipt, error)
	Receipt(ctx context.Context, number string) (zlagoda.Receipt, error)
	ReceiptSales(ctx context.Context, number string) ([]zlagoda.Sale, error)
	DeleteReceipt(ctx context.Context, number string) error
	Reports
}

type Reports interface {
	TopProductInCategory(ctx context.Context, categoryID, months int) (zlagoda.Report[zlagoda.TopCategoryProduct], error)
	EmployeesWithoutPromoSales(ctx context.Context) (zlagoda.Report[zlagoda.EmployeeRef], error)
	CategorySales(ctx context.Context, from, to time.Time) (zlagoda.Report[zlagoda.CategorySales], error)
	UnsoldRegularProducts(ctx context.Context) (zlagoda.Report[zlagoda.UnsoldProduct], error)
	HighDiscountCashiers(ctx context.Context, threshold int) (zlagoda.Report[zlagoda.HighDiscountCashier], error)
	CustomersOfAllCategories(ctx context.Context) (zlagoda.Report[zlagoda.LoyalCustomer], error)
}

type Runner struct {
	options   Options
	cfg       config.Config
	logger    *zap.Logger
	store     *session.Store
	guard     *session.Guard
	backend   Backend
	composers *composer.Factory
	exporter  *export.Exporter
	assistant *assistant

	in      io.Reader
	out     io.Writer
	scanner *bufio.Scanner

	mu    sync.Mutex
	draft *composer.Composer
}

func NewRunner(
	opts Options,
	cfg config.Config,
	logger *zap.Logger,
	store *session.Store,
	guard *session.Guard,
	client *zlagoda.Client,
	composers *composer.Factory,
	exporter *export.Exporter,
	llmClient *llm.Client,
) *Runner {
	logger = logger.Named("cli")
	return &Runner{
		options:   opts,
		cfg:       cfg,
		logger:    logger,
		store:     store,
		guard:     guard,
		backend:   client,
		composers: composers,
		exporter:  exporter,
		assistant: newAssistant(llmClient, client, logger),
		in:        os.Stdin,
		out:       os.Stdout,
	}
}

func (r *Runner) Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	// A draft belongs to the employee who opened it.
	unsubscribe := r.store.Subscribe(func(state session.State) {
		if !state.IsAuthenticated() {
			r.setDraft(nil)
		}
	})
	defer unsubscribe()

	if r.options.Interactive() {
		return r.runREPL(ctx)
	}
	return r.runOneShot(ctx, r.options.Command)
}

func (r *Runner) runOneShot(ctx context.Context, args []string) error {
	if err := r.waitReady(ctx); err != nil {
		return err
	}
	r.logger.Info("command", zap.String("name", args[0]), zap.Int("args", len(args)-1))
	return r.dispatch(ctx, args)
}

func (r *Runner) waitReady(ctx context.Context) error {
	wait := r.cfg.Timeout + 5*time.Second
	if r.cfg.Timeout <= 0 {
		wait = 30 * time.Second
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-r.store.Ready():
		return nil
	case <-timer.C:
		return errors.New("timed out restoring the session")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) runREPL(ctx context.Context) error {
	scanner := r.lines()
	fmt.Fprintln(r.out, "Zlagoda console (type 'help' for commands, 'exit' to quit)")

	readyShown := false
	for {
		if !readyShown {
			select {
			case <-r.store.Ready():
				readyShown = true
				r.greet()
			default:
			}
		}

		fmt.Fprint(r.out, r.prompt())
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		args, err := splitArgs(scanner.Text())
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		switch strings.ToLower(args[0]) {
		case "exit", "quit":
			return nil
		}

		r.logger.Debug("command", zap.String("name", args[0]), zap.Int("args", len(args)-1))
		if err := r.dispatch(ctx, args); err != nil {
			fmt.Fprintf(r.out, "Error: %s\n", err)
		}
	}
}

// lines is the single reader of the input so prompts inside commands and
// the shell loop share its buffer.
func (r *Runner) lines() *bufio.Scanner {
	if r.scanner == nil {
		r.scanner = bufio.NewScanner(r.in)
	}
	return r.scanner
}

func (r *Runner) readLine(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	scanner := r.lines()
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func (r *Runner) greet() {
	if identity, ok := r.store.Identity(); ok {
		fmt.Fprintf(r.out, "Signed in as %s (%s).\n", identity.FullName(), identity.Role)
	}
}

func (r *Runner) prompt() string {
	state := r.store.State()
	switch {
	case state.Loading():
		return "zlagoda (loading)> "
	case !state.IsAuthenticated():
		return "zlagoda> "
	}
	who := state.Identity.Surname
	if who == "" {
		who = state.Identity.EmployeeID
	}
	suffix := ""
	if d := r.currentDraft(); d != nil && d.Status() == composer.StatusDrafting {
		suffix = fmt.Sprintf(" [receipt: %d items]", len(d.Lines()))
	}
	return fmt.Sprintf("zlagoda (%s, %s)%s> ", who, strings.ToLower(state.Identity.Role.String()), suffix)
}

func (r *Runner) currentDraft() *composer.Composer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draft
}

func (r *Runner) setDraft(d *composer.Composer) {
	r.mu.Lock()
	r.draft = d
	r.mu.Unlock()
}
