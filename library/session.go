package library

// Session tracks the account, if any, that is currently authenticated.
// Core operations take an explicit *Session rather than consulting
// process-global state, so multiple isolated sessions can coexist in tests.
type Session struct {
	account *Account
}

// NewSession returns a logged-out session.
func NewSession() *Session { return &Session{} }

// Account returns the active account, or nil when logged out.
func (s *Session) Account() *Account { return s.account }

// LoggedIn reports whether an account is authenticated on this session.
func (s *Session) LoggedIn() bool { return s.account != nil }

// IsAdmin reports whether the active account carries the admin role.
func (s *Session) IsAdmin() bool {
	return s.account != nil && s.account.Role == RoleAdmin
}

// Username returns the active account's username, or "" when logged out.
func (s *Session) Username() string {
	if s.account == nil {
		return ""
	}
	return s.account.Username
}

func (s *Session) setAccount(a *Account) { s.account = a }

// Logout clears the active account. Calling it on a logged-out session
// is a no-op.
func (s *Session) Logout() { s.account = nil }

// RequireLogin returns ErrNotLoggedIn when no account is authenticated.
func (s *Session) RequireLogin() error {
	if s.account == nil {
		return ErrNotLoggedIn
	}
	return nil
}

// RequireAdmin returns ErrNotLoggedIn or ErrNotAuthorized unless the
// active account is an admin.
func (s *Session) RequireAdmin() error {
	if s.account == nil {
		return ErrNotLoggedIn
	}
	if s.account.Role != RoleAdmin {
		return ErrNotAuthorized
	}
	return nil
}
