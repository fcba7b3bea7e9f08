package library

import (
	"fmt"
	"sort"
	"strings"
)

// SearchField selects which book attribute a catalog search matches against.
type SearchField string

const (
	SearchByTitle  SearchField = "title"
	SearchByAuthor SearchField = "author"
	SearchByGenre  SearchField = "genre"
)

// Catalog owns every book record, keyed by lowercased title. Insertion
// order is preserved so search results come back in the order books were
// first added.
type Catalog struct {
	books map[string]*Book
	order []string // lowercased titles, insertion order
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{books: make(map[string]*Book)}
}

// Add creates a book or, when a case-insensitive title match already
// exists, merges by incrementing both copy counters. copies must be >= 1.
func (c *Catalog) Add(title, author, genre string, copies int) (*Book, error) {
	if copies < 1 {
		return nil, fmt.Errorf("copies must be at least 1, got %d", copies)
	}
	key := strings.ToLower(title)
	if b, ok := c.books[key]; ok {
		b.TotalCopies += copies
		b.AvailableCopies += copies
		return b, nil
	}
	b := &Book{
		Title:           title,
		Author:          author,
		Genre:           genre,
		TotalCopies:     copies,
		AvailableCopies: copies,
	}
	c.books[key] = b
	c.order = append(c.order, key)
	return b, nil
}

// Get returns the book with a case-insensitive title match.
func (c *Catalog) Get(title string) (*Book, error) {
	b, ok := c.books[strings.ToLower(title)]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

// Delete removes the book with a case-insensitive title match.
func (c *Catalog) Delete(title string) error {
	key := strings.ToLower(title)
	if _, ok := c.books[key]; !ok {
		return ErrNotFound
	}
	delete(c.books, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Search returns books whose field contains keyword, case-insensitively,
// in catalog insertion order.
func (c *Catalog) Search(keyword string, field SearchField) []*Book {
	needle := strings.ToLower(keyword)
	var results []*Book
	for _, key := range c.order {
		b := c.books[key]
		var haystack string
		switch field {
		case SearchByAuthor:
			haystack = b.Author
		case SearchByGenre:
			haystack = b.Genre
		default:
			haystack = b.Title
		}
		if strings.Contains(strings.ToLower(haystack), needle) {
			results = append(results, b)
		}
	}
	return results
}

// ListAll returns every book sorted by title, case-insensitive ascending.
func (c *Catalog) ListAll() []*Book {
	books := make([]*Book, 0, len(c.books))
	for _, b := range c.books {
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool {
		return strings.ToLower(books[i].Title) < strings.ToLower(books[j].Title)
	})
	return books
}

// Len returns the number of distinct titles in the catalog.
func (c *Catalog) Len() int { return len(c.books) }

// Rate appends a rating in [1,5] to the book's rating sequence and
// updates its running average.
func (c *Catalog) Rate(title string, rating float64) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	b, err := c.Get(title)
	if err != nil {
		return err
	}
	b.addRating(rating)
	return nil
}

// Review appends text verbatim to the book's review sequence. Empty
// reviews are silently skipped.
func (c *Catalog) Review(title, text string) error {
	b, err := c.Get(title)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	b.Reviews = append(b.Reviews, text)
	return nil
}
