package library

// Role determines which gated operations an account may perform.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Book represents a titled work and the current state of its copies.
// Title keeps the casing it was first added with; the catalog keys
// books by lowercased title, so casing differences merge into one record.
type Book struct {
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Genre           string    `json:"genre"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	Ratings         []float64 `json:"ratings,omitempty"`
	Reviews         []string  `json:"reviews,omitempty"`

	// averageRating is folded incrementally as ratings arrive so it
	// never drifts from the ratings sequence.
	averageRating float64
}

// AverageRating returns the arithmetic mean of all ratings to date,
// or 0 when the book has never been rated.
func (b *Book) AverageRating() float64 {
	return b.averageRating
}

func (b *Book) addRating(r float64) {
	b.Ratings = append(b.Ratings, r)
	b.averageRating += (r - b.averageRating) / float64(len(b.Ratings))
}

// Account represents a registered user. The password is stored only as a
// bcrypt digest. BorrowLog is append-only; accounts are never deleted.
type Account struct {
	Username          string
	PasswordHash      string
	Email             string
	Role              Role
	SecurityQuestions []string
	SecurityAnswers   map[string]string
	BorrowLog         []string

	resetCode       string
	resetCodeExpiry int64 // unix seconds, zero when no code is outstanding
}
