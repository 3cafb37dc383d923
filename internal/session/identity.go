package session

import (
	"strings"
	"time"

	"zlagoda_console/internal/zlagoda"

	"github.com/shopspring/decimal"
)

// Role is the closed set of employee roles the console knows about.
type Role int

const (
	RoleUnknown Role = iota
	RoleManager
	RoleCashier
)

// ParseRole accepts any casing; the backend has not been consistent about it.
func ParseRole(value string) Role {
	switch {
	case strings.EqualFold(strings.TrimSpace(value), "manager"):
		return RoleManager
	case strings.EqualFold(strings.TrimSpace(value), "cashier"):
		return RoleCashier
	default:
		return RoleUnknown
	}
}

func (r Role) String() string {
	switch r {
	case RoleManager:
		return "Manager"
	case RoleCashier:
		return "Cashier"
	default:
		return "Unknown"
	}
}

// Identity is the profile of the signed-in employee.
type Identity struct {
	EmployeeID  string
	Surname     string
	Name        string
	Patronymic  string
	Role        Role
	Salary      decimal.Decimal
	DateOfBirth time.Time
	DateOfStart time.Time
	Phone       string
	City        string
	Street      string
	ZipCode     string
}

func identityFromEmployee(e zlagoda.Employee) Identity {
	return Identity{
		EmployeeID:  strings.TrimSpace(e.ID),
		Surname:     e.Surname,
		Name:        e.Name,
		Patronymic:  e.Patronymic,
		Role:        ParseRole(e.Role),
		Salary:      e.Salary,
		DateOfBirth: e.DateOfBirth.Time,
		DateOfStart: e.DateOfStart.Time,
		Phone:       e.Phone,
		City:        e.City,
		Street:      e.Street,
		ZipCode:     e.ZipCode,
	}
}

func (i Identity) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{i.Surname, i.Name, i.Patronymic} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
