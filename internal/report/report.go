// Package report renders the plain-text export and the vault statistics.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	dom "Vault/internal/domain"
)

// TimestampLayout formats the export date and the last-modified time.
const TimestampLayout = "2006-01-02 15:04:05"

const notAvailable = "N/A"

// ExportFileName is the name printed in the export header.
const ExportFileName = "export.txt"

var (
	wideRule   = strings.Repeat("=", 60)
	recordRule = strings.Repeat("-", 40)
)

// WriteExport writes records in the export layout. now is the export date.
func WriteExport(w io.Writer, records []dom.Record, now time.Time) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, wideRule)
	fmt.Fprintln(bw, "           VAULT DATA EXPORT")
	fmt.Fprintln(bw, wideRule)
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "Export Date: %s\n", now.Format(TimestampLayout))
	fmt.Fprintf(bw, "Total Records: %d\n", len(records))
	fmt.Fprintf(bw, "File: %s\n", ExportFileName)
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, wideRule)
	fmt.Fprintln(bw)

	for i, rec := range records {
		fmt.Fprintf(bw, "Record %d:\n", i+1)
		fmt.Fprintf(bw, "  ID: %s\n", rec.ID)
		fmt.Fprintf(bw, "  Name: %s\n", rec.Name)
		fmt.Fprintf(bw, "  Created: %s\n", orNA(rec.CreatedAt))
		fmt.Fprintln(bw, recordRule)
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// Stats summarises the collection.
type Stats struct {
	Total           int
	LastModified    string
	LongestName     string
	LongestNameLen  int
	EarliestCreated string
	LatestCreated   string
}

// Compute builds Stats. The first of several equally long names wins; length
// counts runes. Records without a creation date are skipped for the date range.
func Compute(records []dom.Record, now time.Time) Stats {
	st := Stats{
		Total:           len(records),
		LastModified:    now.Format(TimestampLayout),
		EarliestCreated: notAvailable,
		LatestCreated:   notAvailable,
	}
	if len(records) == 0 {
		return st
	}

	st.LongestName = records[0].Name
	st.LongestNameLen = utf8.RuneCountInString(st.LongestName)
	var earliest, latest string
	for _, rec := range records {
		if n := utf8.RuneCountInString(rec.Name); n > st.LongestNameLen {
			st.LongestName, st.LongestNameLen = rec.Name, n
		}
		if rec.CreatedAt == "" {
			continue
		}
		if earliest == "" || rec.CreatedAt < earliest {
			earliest = rec.CreatedAt
		}
		if latest == "" || rec.CreatedAt > latest {
			latest = rec.CreatedAt
		}
	}
	st.EarliestCreated = orNA(earliest)
	st.LatestCreated = orNA(latest)
	return st
}

// RecordLine is the one-line listing used by the shell and the search and
// sort results.
func RecordLine(rec dom.Record) string {
	return fmt.Sprintf("ID: %s | Name: %s | Created: %s", rec.ID, rec.Name, orNA(rec.CreatedAt))
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
