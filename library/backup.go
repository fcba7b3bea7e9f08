package library

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// snapshot is the on-disk backup format: one flat JSON object holding the
// whole catalog and account directory plus the active session, if any.
type snapshot struct {
	Books        map[string]snapshotBook `json:"books"`
	Users        map[string]snapshotUser `json:"users"`
	LoggedInUser string                  `json:"logged_in_user,omitempty"`
}

type snapshotBook struct {
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Genre           string    `json:"genre"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	Ratings         []float64 `json:"ratings,omitempty"`
	Reviews         []string  `json:"reviews,omitempty"`
}

type snapshotUser struct {
	HashedPassword    string            `json:"hashed_password"`
	Email             string            `json:"email,omitempty"`
	Role              Role              `json:"role"`
	SecurityQuestions []string          `json:"security_questions,omitempty"`
	SecurityAnswers   map[string]string `json:"security_answers,omitempty"`
	BorrowLog         []string          `json:"borrow_log,omitempty"`
}

// Backup writes the catalog, directory and session to path as JSON. The
// file is written to a temp sibling and renamed so a crash mid-write can
// never leave a truncated backup behind. Transient reset codes are not
// persisted.
func Backup(path string, catalog *Catalog, directory *Directory, session *Session) error {
	snap := snapshot{
		Books:        make(map[string]snapshotBook, len(catalog.books)),
		Users:        make(map[string]snapshotUser, len(directory.accounts)),
		LoggedInUser: session.Username(),
	}
	for key, b := range catalog.books {
		snap.Books[key] = snapshotBook{
			Title:           b.Title,
			Author:          b.Author,
			Genre:           b.Genre,
			TotalCopies:     b.TotalCopies,
			AvailableCopies: b.AvailableCopies,
			Ratings:         b.Ratings,
			Reviews:         b.Reviews,
		}
	}
	for name, a := range directory.accounts {
		snap.Users[name] = snapshotUser{
			HashedPassword:    a.PasswordHash,
			Email:             a.Email,
			Role:              a.Role,
			SecurityQuestions: a.SecurityQuestions,
			SecurityAnswers:   a.SecurityAnswers,
			BorrowLog:         a.BorrowLog,
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace backup: %w", err)
	}
	return nil
}

// Restore reads a backup written by Backup and materializes a fresh
// catalog, directory and session. It either succeeds completely or fails
// without producing partial state: a missing file is ErrBackupNotFound and
// malformed or invariant-violating content is an error, so callers keep
// whatever they had in memory. A logged_in_user not present in users is
// skipped and the returned session is logged out.
func Restore(path string) (*Catalog, *Directory, *Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil, ErrBackupNotFound
		}
		return nil, nil, nil, fmt.Errorf("read backup: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil, nil, fmt.Errorf("decode backup: %w", err)
	}

	catalog := NewCatalog()
	keys := make([]string, 0, len(snap.Books))
	for key := range snap.Books {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		sb := snap.Books[key]
		if sb.TotalCopies < 1 || sb.AvailableCopies < 0 || sb.AvailableCopies > sb.TotalCopies {
			return nil, nil, nil, fmt.Errorf("backup book %q: bad copy counts %d/%d",
				key, sb.AvailableCopies, sb.TotalCopies)
		}
		title := sb.Title
		if title == "" {
			title = key
		}
		b := &Book{
			Title:           title,
			Author:          sb.Author,
			Genre:           sb.Genre,
			TotalCopies:     sb.TotalCopies,
			AvailableCopies: sb.AvailableCopies,
			Reviews:         sb.Reviews,
		}
		for _, r := range sb.Ratings {
			if r < 1 || r > 5 {
				return nil, nil, nil, fmt.Errorf("backup book %q: rating %v out of range", key, r)
			}
			b.addRating(r)
		}
		catalog.books[strings.ToLower(title)] = b
		catalog.order = append(catalog.order, strings.ToLower(title))
	}

	directory := NewDirectory()
	for name, su := range snap.Users {
		role := su.Role
		if role == "" {
			role = RoleMember
		}
		directory.accounts[name] = &Account{
			Username:          name,
			PasswordHash:      su.HashedPassword,
			Email:             su.Email,
			Role:              role,
			SecurityQuestions: su.SecurityQuestions,
			SecurityAnswers:   su.SecurityAnswers,
			BorrowLog:         su.BorrowLog,
		}
	}

	session := NewSession()
	if snap.LoggedInUser != "" {
		if a, ok := directory.accounts[snap.LoggedInUser]; ok {
			session.setAccount(a)
		}
	}

	return catalog, directory, session, nil
}
