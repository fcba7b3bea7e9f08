package library

import (
	"fmt"
	"log/slog"
)

// Circulation moves copies between available and lent state, appending to
// the borrower's audit log. A history store is optional; when present,
// events are archived across runs, and archiving failures are logged but
// never fail the circulation operation itself.
type Circulation struct {
	catalog *Catalog
	history *HistoryStore
	logger  *slog.Logger
}

// NewCirculation wires a borrowing engine over catalog. history and
// logger may be nil.
func NewCirculation(catalog *Catalog, history *HistoryStore, logger *slog.Logger) *Circulation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Circulation{catalog: catalog, history: history, logger: logger}
}

// Lend hands one copy of title to the session's account. It fails with
// ErrNotLoggedIn, ErrNotFound or ErrNoCopiesAvailable.
func (c *Circulation) Lend(s *Session, title string) error {
	if err := s.RequireLogin(); err != nil {
		return err
	}
	b, err := c.catalog.Get(title)
	if err != nil {
		return err
	}
	if b.AvailableCopies == 0 {
		return ErrNoCopiesAvailable
	}
	b.AvailableCopies--
	s.Account().BorrowLog = append(s.Account().BorrowLog, fmt.Sprintf("Lent '%s'", b.Title))
	c.archive(s.Username(), b.Title, EventLent)
	return nil
}

// ReturnOutcome reports the side-channel results of a return: the return
// itself succeeded, but the optional rating or review may still have been
// rejected.
type ReturnOutcome struct {
	RatingErr error
	ReviewErr error
}

// Return puts one copy of title back. A return with no outstanding lend
// is rejected with ErrNothingToReturn so AvailableCopies never exceeds
// TotalCopies. rating <= 0 means no rating; review "" means no review;
// their failures are collected in the outcome without aborting the return.
func (c *Circulation) Return(s *Session, title string, rating float64, review string) (ReturnOutcome, error) {
	var out ReturnOutcome
	if err := s.RequireLogin(); err != nil {
		return out, err
	}
	b, err := c.catalog.Get(title)
	if err != nil {
		return out, err
	}
	if b.AvailableCopies == b.TotalCopies {
		return out, ErrNothingToReturn
	}
	b.AvailableCopies++
	s.Account().BorrowLog = append(s.Account().BorrowLog, fmt.Sprintf("Returned '%s'", b.Title))
	c.archive(s.Username(), b.Title, EventReturned)

	if rating > 0 {
		out.RatingErr = c.catalog.Rate(title, rating)
	}
	if review != "" {
		out.ReviewErr = c.catalog.Review(title, review)
	}
	return out, nil
}

func (c *Circulation) archive(username, title string, action EventAction) {
	if c.history == nil {
		return
	}
	if err := c.history.Record(username, title, action); err != nil {
		c.logger.Warn("archive circulation event failed",
			"user", username, "title", title, "action", string(action), "err", err)
	}
}
