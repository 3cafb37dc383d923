package session

// Requirement is the capability a command or view needs.
type Requirement int

const (
	RequireNone Requirement = iota
	RequireAuthenticated
	RequireManager
	RequireCashier
)

func (r Requirement) String() string {
	switch r {
	case RequireAuthenticated:
		return "authenticated"
	case RequireManager:
		return "manager"
	case RequireCashier:
		return "cashier"
	default:
		return "none"
	}
}

// Decision is what the guard tells the caller to do.
type Decision int

const (
	// DecisionPending: the session is still being restored. Show a
	// placeholder and do not redirect.
	DecisionPending Decision = iota
	DecisionAllow
	// DecisionLogin: not signed in at all.
	DecisionLogin
	// DecisionForbidden: signed in, but the role lacks the capability.
	DecisionForbidden
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionLogin:
		return "login"
	case DecisionForbidden:
		return "forbidden"
	default:
		return "pending"
	}
}

func Evaluate(state State, req Requirement) Decision {
	if req == RequireNone {
		return DecisionAllow
	}
	if state.Loading() {
		return DecisionPending
	}
	if !state.IsAuthenticated() {
		return DecisionLogin
	}
	switch req {
	case RequireManager:
		if !state.IsManager() {
			return DecisionForbidden
		}
	case RequireCashier:
		if !state.IsCashier() {
			return DecisionForbidden
		}
	}
	return DecisionAllow
}

// Guard evaluates requirements against the live store on every call.
type Guard struct {
	store *Store
}

func NewGuard(store *Store) *Guard {
	return &Guard{store: store}
}

func (g *Guard) Check(req Requirement) Decision {
	return Evaluate(g.store.State(), req)
}
