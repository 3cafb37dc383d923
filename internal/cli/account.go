package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"zlagoda_console/internal/pricing"
	"zlagoda_console/internal/session"
	"zlagoda_console/internal/zlagoda"
)

func (r *Runner) cmdLogin(ctx context.Context, args []string) error {
	cmd, _ := findCommand("login")
	if len(args) < 1 || len(args) > 2 {
		return usageError{cmd}
	}
	login := args[0]
	password := ""
	if len(args) == 2 {
		password = args[1]
	} else {
		var err error
		if password, err = r.readLine("Password: "); err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}

	if err := r.store.LoginWithPassword(ctx, login, password); err != nil {
		if errors.Is(err, zlagoda.ErrUnauthorized) {
			return errors.New(zlagoda.UserMessage(err, "Invalid login or password"))
		}
		return err
	}
	r.setDraft(nil)
	identity, _ := r.store.Identity()
	fmt.Fprintf(r.out, "Signed in as %s (%s).\n", identity.FullName(), identity.Role)
	return nil
}

// minPasswordLength mirrors the backend's registration rule.
const minPasswordLength = 6

func (r *Runner) cmdRegister(ctx context.Context, args []string) error {
	cmd, _ := findCommand("register")
	var (
		req    zlagoda.RegisterRequest
		salary string
	)
	fs := newFlagSet(cmd.name, r.out)
	fs.StringVar(&req.Login, "login", "", "Login")
	fs.StringVar(&req.Password, "password", "", "Password")
	fs.StringVar(&req.Surname, "surname", "", "Surname")
	fs.StringVar(&req.Name, "name", "", "Given name")
	fs.StringVar(&req.Patronymic, "patronymic", "", "Patronymic")
	fs.StringVar(&req.Role, "role", "Cashier", "Cashier or Manager")
	fs.StringVar(&salary, "salary", "", "Salary, required")
	fs.StringVar(&req.DateOfBirth, "birth", "", "Date of birth, YYYY-MM-DD")
	fs.StringVar(&req.DateOfStart, "start", time.Now().Format(time.DateOnly), "First working day, YYYY-MM-DD")
	fs.StringVar(&req.Phone, "phone", "", "Phone number")
	fs.StringVar(&req.City, "city", "", "City")
	fs.StringVar(&req.Street, "street", "", "Street")
	fs.StringVar(&req.ZipCode, "zip", "", "Zip code")
	if err := fs.Parse(args); err != nil {
		return usageError{cmd}
	}

	if req.Login == "" || req.Password == "" || req.Surname == "" || req.Name == "" || salary == "" {
		return usageError{cmd}
	}
	if len([]rune(req.Password)) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	role := session.ParseRole(req.Role)
	if role == session.RoleUnknown {
		return fmt.Errorf("role must be Cashier or Manager")
	}
	req.Role = role.String()

	value, err := strconv.ParseFloat(strings.TrimSpace(salary), 64)
	if err != nil || value <= 0 {
		return fmt.Errorf("invalid salary %q", salary)
	}
	req.Salary = value

	for name, date := range map[string]string{"birth": req.DateOfBirth, "start": req.DateOfStart} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return fmt.Errorf("invalid --%s date %q, expected YYYY-MM-DD", name, date)
		}
	}

	if err := r.store.Register(ctx, req); err != nil {
		return err
	}
	r.setDraft(nil)
	identity, _ := r.store.Identity()
	fmt.Fprintf(r.out, "Registered and signed in as %s (%s).\n", identity.FullName(), identity.Role)
	return nil
}

func (r *Runner) cmdLogout(_ context.Context, _ []string) error {
	r.store.Logout()
	r.setDraft(nil)
	fmt.Fprintln(r.out, "Signed out.")
	return nil
}

type whoamiView struct {
	EmployeeID  string `json:"employee_id"`
	FullName    string `json:"full_name"`
	Role        string `json:"role"`
	Salary      string `json:"salary"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	DateOfStart string `json:"date_of_start,omitempty"`
	Phone       string `json:"phone_number,omitempty"`
	Address     string `json:"address,omitempty"`
}

// cmdWhoami reloads the profile first so role or record changes made
// during a long session show up; a rejected credential signs out.
func (r *Runner) cmdWhoami(ctx context.Context, args []string) error {
	if err := r.store.Refresh(ctx); err != nil {
		return err
	}
	identity, ok := r.store.Identity()
	if !ok {
		return errLoggedIn
	}
	view := whoamiView{
		EmployeeID: identity.EmployeeID,
		FullName:   identity.FullName(),
		Role:       identity.Role.String(),
		Salary:     pricing.Money(identity.Salary),
		Phone:      identity.Phone,
		Address:    joinNonEmpty(", ", identity.Street, identity.City, identity.ZipCode),
	}
	if !identity.DateOfBirth.IsZero() {
		view.DateOfBirth = identity.DateOfBirth.Format(time.DateOnly)
	}
	if !identity.DateOfStart.IsZero() {
		view.DateOfStart = identity.DateOfStart.Format(time.DateOnly)
	}

	if r.wantJSON(args) {
		return r.writeJSON(view)
	}
	fmt.Fprintf(r.out, "%s (%s)\n", view.FullName, view.Role)
	fmt.Fprintf(r.out, "  id:       %s\n", view.EmployeeID)
	fmt.Fprintf(r.out, "  salary:   %s\n", view.Salary)
	if view.DateOfBirth != "" {
		fmt.Fprintf(r.out, "  born:     %s\n", view.DateOfBirth)
	}
	if view.DateOfStart != "" {
		fmt.Fprintf(r.out, "  started:  %s\n", view.DateOfStart)
	}
	if view.Phone != "" {
		fmt.Fprintf(r.out, "  phone:    %s\n", view.Phone)
	}
	if view.Address != "" {
		fmt.Fprintf(r.out, "  address:  %s\n", view.Address)
	}
	return nil
}
