package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"syscall"

	"library-catalog/library"
	"library-catalog/mail"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	backupPath  string
	historyPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "library-catalog",
		Short:        "Interactive library catalog with accounts, borrowing and backups",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	rootCmd.Flags().StringVar(&backupPath, "backup", "library_backup.json", "path of the JSON backup file")
	rootCmd.Flags().StringVar(&historyPath, "history-db", "history.db", "path of the borrow-history database")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the core state the menu handlers operate on.
type app struct {
	catalog   *library.Catalog
	directory *library.Directory
	session   *library.Session
	circ      *library.Circulation
	history   *library.HistoryStore
	mailer    library.Mailer
	logger    *slog.Logger
	scanner   *bufio.Scanner
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	a := &app{
		catalog:   library.NewCatalog(),
		directory: library.NewDirectory(),
		session:   library.NewSession(),
		logger:    logger,
		scanner:   bufio.NewScanner(os.Stdin),
	}

	if catalog, directory, session, err := library.Restore(backupPath); err == nil {
		a.catalog, a.directory, a.session = catalog, directory, session
		fmt.Printf("Restored catalog from %s.\n", backupPath)
	} else if !errors.Is(err, library.ErrBackupNotFound) {
		fmt.Printf("Warning: could not restore backup: %v\n", err)
	}

	history, err := library.OpenHistory(historyPath)
	if err != nil {
		logger.Warn("borrow history unavailable", "path", historyPath, "err", err)
	} else {
		a.history = history
		defer history.Close()
	}
	a.circ = library.NewCirculation(a.catalog, a.history, logger)

	a.seedAdmin()

	fmt.Println("Welcome to the Library Catalog!")
	for {
		a.printMenu()
		fmt.Print("> ")
		if !a.scanner.Scan() {
			return nil
		}
		choice := strings.TrimSpace(a.scanner.Text())
		if choice == "" {
			continue
		}
		if !a.dispatch(choice) {
			fmt.Println("Goodbye!")
			return nil
		}
	}
}

// seedAdmin makes sure a fresh installation has an administrator. The
// password comes from LIBRARY_ADMIN_PASSWORD, defaulting to "admin" with
// a loud warning.
func (a *app) seedAdmin() {
	for _, acc := range a.directory.All() {
		if acc.Role == library.RoleAdmin {
			return
		}
	}
	password := os.Getenv("LIBRARY_ADMIN_PASSWORD")
	if password == "" {
		password = "admin"
		fmt.Println("Note: created default 'admin' account with password 'admin'.")
		fmt.Println("Set LIBRARY_ADMIN_PASSWORD before first run to choose your own.")
	}
	if _, err := a.directory.Create(library.CreateParams{
		Username:        "admin",
		Password:        password,
		ConfirmPassword: password,
		Role:            library.RoleAdmin,
	}); err != nil && !errors.Is(err, library.ErrDuplicateUsername) {
		fmt.Printf("Warning: could not seed admin account: %v\n", err)
	}
}

func (a *app) printMenu() {
	fmt.Println("\nLibrary Menu:")
	fmt.Println("  1. Display All Books")
	fmt.Println("  2. Search Books")
	if a.session.IsAdmin() {
		fmt.Println("  3. Add a Book")
		fmt.Println("  4. Delete a Book")
		fmt.Println("  5. Reset a User's Password")
		fmt.Println("  6. Backup Catalog")
		fmt.Println("  7. Restore Catalog")
	}
	if a.session.LoggedIn() {
		fmt.Println("  8. Lend a Book")
		fmt.Println("  9. Return a Book")
		fmt.Println(" 10. View Borrowed Log")
		fmt.Println(" 11. Logout")
	} else {
		fmt.Println(" 12. Create User Account")
		fmt.Println(" 13. Login")
		fmt.Println(" 14. Forgot Password (email code)")
		fmt.Println(" 15. Forgot Password (security questions)")
	}
	fmt.Println(" 16. Exit")
}

// dispatch runs the chosen menu entry and reports whether the loop should
// continue. Every entry re-checks authorization; the menu only hides
// options, it does not enforce anything.
func (a *app) dispatch(choice string) bool {
	switch choice {
	case "1":
		a.handleListBooks()
	case "2":
		a.handleSearch()
	case "3":
		a.handleAddBook()
	case "4":
		a.handleDeleteBook()
	case "5":
		a.handleAdminReset()
	case "6":
		a.handleBackup()
	case "7":
		a.handleRestore()
	case "8":
		a.handleLend()
	case "9":
		a.handleReturn()
	case "10":
		a.handleBorrowLog()
	case "11":
		a.session.Logout()
		fmt.Println("You have been logged out.")
	case "12":
		a.handleCreateAccount()
	case "13":
		a.handleLogin()
	case "14":
		a.handleEmailReset()
	case "15":
		a.handleQuestionReset()
	case "16", "exit", "quit":
		return false
	default:
		fmt.Println("Invalid choice. Please pick one of the listed numbers.")
	}
	return true
}

// ------------------ prompt helpers ------------------

func (a *app) readLine(prompt string) (string, bool) {
	fmt.Print(prompt)
	if !a.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.scanner.Text()), true
}

// readPassword securely reads a password with masking.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}

// ------------------ catalog handlers ------------------

func (a *app) handleListBooks() {
	books := a.catalog.ListAll()
	if len(books) == 0 {
		fmt.Println("No books in the catalog.")
		return
	}
	printBookTable(books)
}

func printBookTable(books []*library.Book) {
	fmt.Printf("%-30s %-25s %-15s %-10s %-10s %s\n", "Title", "Author", "Genre", "Copies", "Available", "Rating")
	fmt.Println(strings.Repeat("-", 105))
	for _, b := range books {
		rating := "unrated"
		if len(b.Ratings) > 0 {
			rating = fmt.Sprintf("%.1f (%d)", b.AverageRating(), len(b.Ratings))
		}
		fmt.Printf("%-30s %-25s %-15s %-10d %-10d %s\n",
			truncateString(b.Title, 30),
			truncateString(b.Author, 25),
			truncateString(b.Genre, 15),
			b.TotalCopies,
			b.AvailableCopies,
			rating)
	}
}

func (a *app) handleSearch() {
	field, ok := a.readLine("Search by (title/author/genre): ")
	if !ok {
		return
	}
	var sf library.SearchField
	switch strings.ToLower(field) {
	case "", "title":
		sf = library.SearchByTitle
	case "author":
		sf = library.SearchByAuthor
	case "genre":
		sf = library.SearchByGenre
	default:
		fmt.Printf("Unknown field '%s'. Use title, author or genre.\n", field)
		return
	}
	keyword, ok := a.readLine("Keyword: ")
	if !ok {
		return
	}
	books := a.catalog.Search(keyword, sf)
	if len(books) == 0 {
		fmt.Printf("No books found matching '%s'.\n", keyword)
		return
	}
	fmt.Printf("Found %d book(s) matching '%s':\n", len(books), keyword)
	printBookTable(books)
}

func (a *app) handleAddBook() {
	if err := a.session.RequireAdmin(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	title, ok := a.readLine("Title: ")
	if !ok || title == "" {
		fmt.Println("Title cannot be empty.")
		return
	}
	author, ok := a.readLine("Author: ")
	if !ok {
		return
	}
	genre, ok := a.readLine("Genre: ")
	if !ok {
		return
	}
	copiesStr, ok := a.readLine("Copies [1]: ")
	if !ok {
		return
	}
	copies := 1
	if copiesStr != "" {
		n, err := strconv.Atoi(copiesStr)
		if err != nil {
			fmt.Printf("Invalid copy count: %s\n", copiesStr)
			return
		}
		copies = n
	}
	b, err := a.catalog.Add(title, author, genre, copies)
	if err != nil {
		fmt.Printf("Error adding book: %v\n", err)
		return
	}
	fmt.Printf("Catalog now has %d cop(ies) of '%s'.\n", b.TotalCopies, b.Title)
}

func (a *app) handleDeleteBook() {
	if err := a.session.RequireAdmin(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	title, ok := a.readLine("Title to delete: ")
	if !ok {
		return
	}
	if err := a.catalog.Delete(title); err != nil {
		fmt.Printf("Error deleting '%s': %v\n", title, err)
		return
	}
	fmt.Printf("Book '%s' has been deleted from the catalog.\n", title)
}

// ------------------ circulation handlers ------------------

func (a *app) handleLend() {
	title, ok := a.readLine("Title to lend: ")
	if !ok {
		return
	}
	if err := a.circ.Lend(a.session, title); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Book '%s' has been lent to %s.\n", title, a.session.Username())
}

func (a *app) handleReturn() {
	title, ok := a.readLine("Title to return: ")
	if !ok {
		return
	}
	ratingStr, ok := a.readLine("Rating 1-5 (optional): ")
	if !ok {
		return
	}
	var rating float64
	if ratingStr != "" {
		r, err := strconv.ParseFloat(ratingStr, 64)
		if err != nil {
			fmt.Printf("Invalid rating: %s\n", ratingStr)
			return
		}
		rating = r
	}
	review, ok := a.readLine("Review (optional): ")
	if !ok {
		return
	}

	outcome, err := a.circ.Return(a.session, title, rating, review)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Book '%s' has been returned by %s.\n", title, a.session.Username())
	if outcome.RatingErr != nil {
		fmt.Printf("Rating was not recorded: %v\n", outcome.RatingErr)
	}
	if outcome.ReviewErr != nil {
		fmt.Printf("Review was not recorded: %v\n", outcome.ReviewErr)
	}
}

func (a *app) handleBorrowLog() {
	if err := a.session.RequireLogin(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	acc := a.session.Account()
	fmt.Printf("%s's borrowed books log:\n", acc.Username)
	if len(acc.BorrowLog) == 0 {
		fmt.Println("(empty this session)")
	}
	for _, entry := range acc.BorrowLog {
		fmt.Printf("- %s\n", entry)
	}

	if a.history == nil {
		return
	}
	events, err := a.history.ForUser(acc.Username)
	if err != nil {
		a.logger.Warn("read borrow history", "user", acc.Username, "err", err)
		return
	}
	if len(events) > 0 {
		fmt.Println("Archived history:")
		for _, e := range events {
			fmt.Printf("- %s  %s '%s'\n", e.At.Local().Format("2006-01-02 15:04"), e.Action, e.Title)
		}
	}
}

// ------------------ account handlers ------------------

func (a *app) handleCreateAccount() {
	username, ok := a.readLine("Username: ")
	if !ok || username == "" {
		fmt.Println("Username cannot be empty.")
		return
	}
	password, err := readPassword("Password: ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	email, ok := a.readLine("Email (optional, for password recovery): ")
	if !ok {
		return
	}

	params := library.CreateParams{
		Username:        username,
		Password:        password,
		ConfirmPassword: confirm,
		Email:           email,
	}

	setQuestions, ok := a.readLine("Set security questions for password recovery? (y/N): ")
	if !ok {
		return
	}
	if strings.EqualFold(setQuestions, "y") || strings.EqualFold(setQuestions, "yes") {
		for _, q := range library.DefaultSecurityQuestions {
			answer, ok := a.readLine(q + " ")
			if !ok {
				return
			}
			params.SecurityAnswers = append(params.SecurityAnswers, answer)
		}
	}

	if _, err := a.directory.Create(params); err != nil {
		fmt.Printf("Error creating account: %v\n", err)
		return
	}
	fmt.Printf("User '%s' has been created.\n", username)
}

func (a *app) handleLogin() {
	if a.session.LoggedIn() {
		fmt.Println("You are already logged in. Logout first to switch accounts.")
		return
	}
	username, ok := a.readLine("Username: ")
	if !ok {
		return
	}
	password, err := readPassword("Password: ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	if _, err := a.directory.Login(a.session, username, password); err != nil {
		fmt.Printf("Login failed: %v\n", err)
		return
	}
	fmt.Printf("User '%s' has been logged in.\n", username)
}

func (a *app) handleAdminReset() {
	if err := a.session.RequireAdmin(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	username, ok := a.readLine("Username: ")
	if !ok {
		return
	}
	newPassword, err := readPassword(fmt.Sprintf("New password for %s: ", username))
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	if newPassword == "" {
		fmt.Println("Error: password cannot be empty.")
		return
	}
	if err := a.directory.ResetPassword(username, newPassword); err != nil {
		fmt.Printf("Error resetting password: %v\n", err)
		return
	}
	fmt.Printf("Password for user '%s' has been updated.\n", username)
}

func (a *app) handleEmailReset() {
	if a.mailer == nil {
		mailer, err := mail.NewFromEnv(a.logger)
		if err != nil {
			fmt.Printf("Email reset unavailable: %v\n", err)
			return
		}
		a.mailer = mailer
	}

	username, ok := a.readLine("Username: ")
	if !ok {
		return
	}
	if err := a.directory.InitiateEmailReset(username, a.mailer); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("A reset code has been emailed. It expires in 15 minutes.")

	code, ok := a.readLine("Reset code: ")
	if !ok {
		return
	}
	newPassword, err := readPassword("New password: ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	if err := a.directory.CompleteEmailReset(username, code, newPassword); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Password for user '%s' has been updated.\n", username)
}

func (a *app) handleQuestionReset() {
	username, ok := a.readLine("Username: ")
	if !ok {
		return
	}
	questions, err := a.directory.SecurityQuestions(username)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	answers := make(map[string]string, len(questions))
	for _, q := range questions {
		answer, ok := a.readLine(q + " ")
		if !ok {
			return
		}
		answers[q] = answer
	}
	if err := a.directory.VerifySecurityAnswers(username, answers); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	newPassword, err := readPassword("New password: ")
	if err != nil {
		fmt.Printf("Error reading password: %v\n", err)
		return
	}
	if err := a.directory.ResetPassword(username, newPassword); err != nil {
		fmt.Printf("Error resetting password: %v\n", err)
		return
	}
	fmt.Printf("Password for user '%s' has been updated.\n", username)
}

// ------------------ persistence handlers ------------------

func (a *app) handleBackup() {
	if err := a.session.RequireAdmin(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if err := library.Backup(backupPath, a.catalog, a.directory, a.session); err != nil {
		fmt.Printf("Backup failed: %v\n", err)
		return
	}
	fmt.Printf("Catalog backed up to %s.\n", backupPath)
}

func (a *app) handleRestore() {
	if err := a.session.RequireAdmin(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	catalog, directory, session, err := library.Restore(backupPath)
	if err != nil {
		fmt.Printf("Restore failed: %v (in-memory state unchanged)\n", err)
		return
	}
	a.catalog, a.directory, a.session = catalog, directory, session
	a.circ = library.NewCirculation(a.catalog, a.history, a.logger)
	fmt.Printf("Catalog restored from %s.\n", backupPath)
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}
