package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"library-catalog/library"
)

// Bulk-loads a catalog backup from a CSV of title,author,genre[,copies]
// rows. An existing backup is extended; repeated titles merge their copy
// counts, same as interactive adds.
func main() {
	csvPath := "books.csv"
	backupPath := "library_backup.json"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	if len(os.Args) > 2 {
		backupPath = os.Args[2]
	}

	catalog := library.NewCatalog()
	directory := library.NewDirectory()
	session := library.NewSession()

	if c, d, s, err := library.Restore(backupPath); err == nil {
		catalog, directory, session = c, d, s
		fmt.Printf("Extending existing backup %s (%d titles).\n", backupPath, catalog.Len())
	} else if !errors.Is(err, library.ErrBackupNotFound) {
		fmt.Fprintf(os.Stderr, "Error reading backup: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", csvPath, err)
		os.Exit(1)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	successCount := 0
	errorCount := 0
	line := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			fmt.Printf("Line %d: ERROR - %v\n", line, err)
			errorCount++
			continue
		}
		if len(record) < 3 {
			fmt.Printf("Line %d: ERROR - want title,author,genre[,copies], got %d fields\n", line, len(record))
			errorCount++
			continue
		}

		title := strings.TrimSpace(record[0])
		author := strings.TrimSpace(record[1])
		genre := strings.TrimSpace(record[2])
		copies := 1
		if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
			copies, err = strconv.Atoi(strings.TrimSpace(record[3]))
			if err != nil {
				fmt.Printf("Line %d: ERROR - bad copy count %q\n", line, record[3])
				errorCount++
				continue
			}
		}

		fmt.Printf("Importing: %s by %s... ", title, author)
		if _, err := catalog.Add(title, author, genre, copies); err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Println("SUCCESS")
		successCount++
	}

	if err := library.Backup(backupPath, catalog, directory, session); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing backup: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d rows\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)

	books := catalog.ListAll()
	if len(books) > 0 {
		fmt.Printf("\n%-40s %-30s %-15s %s\n", "Title", "Author", "Genre", "Copies")
		fmt.Println(strings.Repeat("-", 95))
		for _, b := range books {
			fmt.Printf("%-40s %-30s %-15s %d\n",
				truncateString(b.Title, 40), truncateString(b.Author, 30), truncateString(b.Genre, 15), b.TotalCopies)
		}
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
