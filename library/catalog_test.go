package library

import (
	"math"
	"testing"
)

func TestAddMergesCopiesCaseInsensitively(t *testing.T) {
	c := NewCatalog()
	if _, err := c.Add("Dune", "Frank Herbert", "Sci-Fi", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := c.Add("dune", "Frank Herbert", "Sci-Fi", 3); err != nil {
		t.Fatalf("merge add: %v", err)
	}

	b, err := c.Get("DUNE")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.TotalCopies != 5 || b.AvailableCopies != 5 {
		t.Fatalf("want 5/5 copies, got %d/%d", b.AvailableCopies, b.TotalCopies)
	}
	if c.Len() != 1 {
		t.Fatalf("want 1 title, got %d", c.Len())
	}
	if b.Title != "Dune" {
		t.Fatalf("merge should keep original casing, got %q", b.Title)
	}
}

func TestAddRejectsNonPositiveCopies(t *testing.T) {
	c := NewCatalog()
	if _, err := c.Add("Dune", "Frank Herbert", "Sci-Fi", 0); err == nil {
		t.Fatal("want error for 0 copies")
	}
	if c.Len() != 0 {
		t.Fatalf("failed add must not create a record")
	}
}

func TestDelete(t *testing.T) {
	c := NewCatalog()
	c.Add("Dune", "Frank Herbert", "Sci-Fi", 1)

	if err := c.Delete("dUnE"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.Delete("Dune"); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSearchFieldsAndOrder(t *testing.T) {
	c := NewCatalog()
	c.Add("The Hobbit", "J.R.R. Tolkien", "Fantasy", 1)
	c.Add("Dune", "Frank Herbert", "Sci-Fi", 1)
	c.Add("The Silmarillion", "J.R.R. Tolkien", "Fantasy", 1)

	byAuthor := c.Search("tolkien", SearchByAuthor)
	if len(byAuthor) != 2 {
		t.Fatalf("want 2 author matches, got %d", len(byAuthor))
	}
	// Insertion order, not alphabetical.
	if byAuthor[0].Title != "The Hobbit" || byAuthor[1].Title != "The Silmarillion" {
		t.Fatalf("want insertion order, got %q then %q", byAuthor[0].Title, byAuthor[1].Title)
	}

	if got := c.Search("fantasy", SearchByGenre); len(got) != 2 {
		t.Fatalf("want 2 genre matches, got %d", len(got))
	}
	if got := c.Search("une", SearchByTitle); len(got) != 1 || got[0].Title != "Dune" {
		t.Fatalf("substring title search failed: %v", got)
	}
	if got := c.Search("nothing here", SearchByTitle); len(got) != 0 {
		t.Fatalf("want no matches, got %d", len(got))
	}
}

func TestListAllSortedByTitle(t *testing.T) {
	c := NewCatalog()
	c.Add("zebra", "A", "G", 1)
	c.Add("Apple", "B", "G", 1)
	c.Add("mango", "C", "G", 1)

	books := c.ListAll()
	want := []string{"Apple", "mango", "zebra"}
	for i, w := range want {
		if books[i].Title != w {
			t.Fatalf("position %d: want %q, got %q", i, w, books[i].Title)
		}
	}
}

func TestRateRunningAverage(t *testing.T) {
	c := NewCatalog()
	c.Add("Dune", "Frank Herbert", "Sci-Fi", 1)

	if err := c.Rate("Dune", 4); err != nil {
		t.Fatalf("rate 4: %v", err)
	}
	if err := c.Rate("Dune", 5); err != nil {
		t.Fatalf("rate 5: %v", err)
	}
	b, _ := c.Get("Dune")
	if math.Abs(b.AverageRating()-4.5) > 1e-9 {
		t.Fatalf("want average 4.5, got %v", b.AverageRating())
	}

	c.Add("Emma", "Jane Austen", "Classic", 1)
	c.Rate("Emma", 3)
	e, _ := c.Get("Emma")
	if math.Abs(e.AverageRating()-3.0) > 1e-9 {
		t.Fatalf("want average 3.0, got %v", e.AverageRating())
	}
}

func TestRateRejectsOutOfRange(t *testing.T) {
	c := NewCatalog()
	c.Add("Dune", "Frank Herbert", "Sci-Fi", 1)
	c.Rate("Dune", 4)

	if err := c.Rate("Dune", 6); err != ErrInvalidRating {
		t.Fatalf("want ErrInvalidRating, got %v", err)
	}
	if err := c.Rate("Dune", 0.5); err != ErrInvalidRating {
		t.Fatalf("want ErrInvalidRating, got %v", err)
	}
	b, _ := c.Get("Dune")
	if len(b.Ratings) != 1 {
		t.Fatalf("rejected rating must not alter the sequence, got %v", b.Ratings)
	}
}

func TestUnratedAverageIsZero(t *testing.T) {
	c := NewCatalog()
	c.Add("Dune", "Frank Herbert", "Sci-Fi", 1)
	b, _ := c.Get("Dune")
	if b.AverageRating() != 0 {
		t.Fatalf("want 0 average for unrated book, got %v", b.AverageRating())
	}
}

func TestReviewAppendsVerbatimAndSkipsEmpty(t *testing.T) {
	c := NewCatalog()
	c.Add("Dune", "Frank Herbert", "Sci-Fi", 1)

	if err := c.Review("Dune", "  Loved it!  "); err != nil {
		t.Fatalf("review: %v", err)
	}
	if err := c.Review("Dune", ""); err != nil {
		t.Fatalf("empty review should be a silent no-op, got %v", err)
	}
	b, _ := c.Get("Dune")
	if len(b.Reviews) != 1 || b.Reviews[0] != "  Loved it!  " {
		t.Fatalf("want one verbatim review, got %v", b.Reviews)
	}

	if err := c.Review("Missing", "text"); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
