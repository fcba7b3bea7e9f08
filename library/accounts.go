package library

import (
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"
)

// DefaultSecurityQuestions is the fixed set of prompts offered at account
// creation. Answers are compared case-insensitively at verification time.
var DefaultSecurityQuestions = []string{
	"What was the name of your first pet?",
	"In what city were you born?",
	"What was your childhood nickname?",
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ResetCodeTTL is how long an emailed reset code stays valid. Expiry is
// checked lazily when the code is presented, not by a timer.
const ResetCodeTTL = 15 * time.Minute

// Mailer delivers a plain text message to a recipient address. Delivery
// is synchronous and best-effort.
type Mailer interface {
	Send(to, body string) error
}

// Directory owns every account record, keyed by username. Usernames are
// case-sensitive. Accounts are never deleted.
type Directory struct {
	accounts map[string]*Account

	// now is a test seam for reset-code expiry.
	now func() time.Time
}

// NewDirectory returns an empty account directory.
func NewDirectory() *Directory {
	return &Directory{accounts: make(map[string]*Account), now: time.Now}
}

// CreateParams carries everything needed to open an account. Email and
// SecurityAnswers are optional; when SecurityAnswers is non-empty it must
// hold one answer per DefaultSecurityQuestions prompt, in order.
type CreateParams struct {
	Username        string
	Password        string
	ConfirmPassword string
	Email           string
	Role            Role
	SecurityAnswers []string
}

// Create registers a new account. It fails with ErrDuplicateUsername,
// ErrPasswordMismatch or ErrInvalidEmail; the password is stored only as
// a bcrypt digest.
func (d *Directory) Create(p CreateParams) (*Account, error) {
	if _, ok := d.accounts[p.Username]; ok {
		return nil, ErrDuplicateUsername
	}
	if p.Password != p.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if p.Email != "" && !emailPattern.MatchString(p.Email) {
		return nil, ErrInvalidEmail
	}
	if n := len(p.SecurityAnswers); n != 0 && n != len(DefaultSecurityQuestions) {
		return nil, fmt.Errorf("expected %d security answers, got %d", len(DefaultSecurityQuestions), n)
	}

	hash, err := HashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	role := p.Role
	if role == "" {
		role = RoleMember
	}

	a := &Account{
		Username:     p.Username,
		PasswordHash: hash,
		Email:        p.Email,
		Role:         role,
	}
	if len(p.SecurityAnswers) > 0 {
		a.SecurityQuestions = append([]string(nil), DefaultSecurityQuestions...)
		a.SecurityAnswers = make(map[string]string, len(p.SecurityAnswers))
		for i, q := range a.SecurityQuestions {
			a.SecurityAnswers[q] = p.SecurityAnswers[i]
		}
	}
	d.accounts[p.Username] = a
	return a, nil
}

// Login authenticates the account and binds it to the session. Unknown
// usernames and wrong passwords both come back as ErrInvalidCredentials
// so callers cannot enumerate accounts.
func (d *Directory) Login(s *Session, username, password string) (*Account, error) {
	a, ok := d.accounts[username]
	if !ok || !VerifyPassword(password, a.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	s.setAccount(a)
	return a, nil
}

// Get returns the account for username, or ErrNotFound.
func (d *Directory) Get(username string) (*Account, error) {
	a, ok := d.accounts[username]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

// All returns every account sorted by username.
func (d *Directory) All() []*Account {
	out := make([]*Account, 0, len(d.accounts))
	for _, a := range d.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// ResetPassword replaces the account's password digest directly.
func (d *Directory) ResetPassword(username, newPassword string) error {
	a, ok := d.accounts[username]
	if !ok {
		return ErrNotFound
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

// InitiateEmailReset generates a fresh 6-character reset code valid for
// ResetCodeTTL, replacing any outstanding code, and hands it to the
// mailer for delivery. It fails with ErrNotFound or ErrNoEmailOnFile.
func (d *Directory) InitiateEmailReset(username string, mailer Mailer) error {
	a, ok := d.accounts[username]
	if !ok {
		return ErrNotFound
	}
	if a.Email == "" {
		return ErrNoEmailOnFile
	}
	code, err := GenerateResetCode()
	if err != nil {
		return err
	}
	a.resetCode = code
	a.resetCodeExpiry = d.now().Add(ResetCodeTTL).Unix()

	body := fmt.Sprintf("Your library password reset code is %s. It expires in %d minutes.",
		code, int(ResetCodeTTL.Minutes()))
	if err := mailer.Send(a.Email, body); err != nil {
		return fmt.Errorf("deliver reset code: %w", err)
	}
	return nil
}

// CompleteEmailReset verifies the emailed code and sets the new password.
// The code is single-use: it is cleared on success and on expiry.
func (d *Directory) CompleteEmailReset(username, code, newPassword string) error {
	a, ok := d.accounts[username]
	if !ok {
		return ErrNotFound
	}
	if a.resetCode == "" {
		return ErrInvalidResetCode
	}
	if d.now().Unix() > a.resetCodeExpiry {
		a.resetCode = ""
		a.resetCodeExpiry = 0
		return ErrExpiredResetCode
	}
	if !strings.EqualFold(code, a.resetCode) {
		return ErrInvalidResetCode
	}
	a.resetCode = ""
	a.resetCodeExpiry = 0
	return d.ResetPassword(username, newPassword)
}

// SecurityQuestions returns the account's stored prompts in randomized
// order, or ErrNoSecurityQuestionsSet.
func (d *Directory) SecurityQuestions(username string) ([]string, error) {
	a, ok := d.accounts[username]
	if !ok {
		return nil, ErrNotFound
	}
	if len(a.SecurityQuestions) == 0 {
		return nil, ErrNoSecurityQuestionsSet
	}
	qs := append([]string(nil), a.SecurityQuestions...)
	rand.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	return qs, nil
}

// VerifySecurityAnswers checks the supplied question→answer pairs
// case-insensitively. Every stored question must be answered correctly;
// the first mismatch fails the whole attempt with ErrIncorrectAnswer.
func (d *Directory) VerifySecurityAnswers(username string, answers map[string]string) error {
	a, ok := d.accounts[username]
	if !ok {
		return ErrNotFound
	}
	if len(a.SecurityAnswers) == 0 {
		return ErrNoSecurityQuestionsSet
	}
	for q, want := range a.SecurityAnswers {
		got, ok := answers[q]
		if !ok || !strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want)) {
			return ErrIncorrectAnswer
		}
	}
	return nil
}
