// Package cli is the interactive numbered menu over the record service.
package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	dom "Vault/internal/domain"
	"Vault/internal/report"
)

// Records is the part of service.RecordService the shell drives.
type Records interface {
	AddRecord(ctx context.Context, name string) (dom.Record, error)
	ListRecords(ctx context.Context) ([]dom.Record, error)
	UpdateRecord(ctx context.Context, id, newName string) (*dom.Record, error)
	DeleteRecord(ctx context.Context, id string) (*dom.Record, error)
	SearchRecords(ctx context.Context, searchBy, keyword string) ([]dom.Record, error)
	SortRecords(ctx context.Context, field, order string) ([]dom.Record, error)
}

// Backups reports the newest backup file name, "" when there is none.
type Backups interface {
	Latest() (string, error)
}

// errInputClosed ends the session the same way as choosing Exit.
var errInputClosed = errors.New("input closed")

const menuHeader = "===== Vault ====="

var menuOptions = []string{
	"1. Add Record",
	"2. List Records",
	"3. Update Record",
	"4. Delete Record",
	"5. Search Records",
	"6. Sort Records",
	"7. Export Data",
	"8. View Vault Statistics",
	"9. Exit",
}

type Shell struct {
	records    Records
	backups    Backups
	exportPath string
	logger     *log.Logger

	in  *bufio.Reader
	out io.Writer
	st  styles
	now func() time.Time
}

// NewShell builds a shell reading commands from in and writing to out.
// backups may be nil.
func NewShell(records Records, backups Backups, exportPath string, in io.Reader, out io.Writer, logger *log.Logger) *Shell {
	if logger == nil {
		logger = log.New(os.Stderr, "[vault] ", log.LstdFlags)
	}
	if exportPath == "" {
		exportPath = report.ExportFileName
	}
	return &Shell{
		records:    records,
		backups:    backups,
		exportPath: exportPath,
		logger:     logger,
		in:         bufio.NewReader(in),
		out:        out,
		st:         newStyles(out),
		now:        time.Now,
	}
}

// Run shows the menu until Exit is chosen or input ends. Errors inside a
// command are printed and the menu is shown again; Run itself only fails when
// reading the menu choice fails.
func (s *Shell) Run(ctx context.Context) error {
	for {
		s.menu()
		choice, err := s.ask("Choose option: ")
		if errors.Is(err, errInputClosed) {
			s.goodbye()
			return nil
		}
		if err != nil {
			return fmt.Errorf("read menu choice: %w", err)
		}

		choice = strings.TrimSpace(choice)
		if choice == "9" {
			s.goodbye()
			return nil
		}
		if err := s.dispatch(ctx, choice); err != nil {
			if errors.Is(err, errInputClosed) {
				s.goodbye()
				return nil
			}
			s.logger.Printf("command %s failed: %v", choice, err)
			s.println(s.st.failure.Render("Error: " + err.Error()))
		}
	}
}

func (s *Shell) dispatch(ctx context.Context, choice string) error {
	switch choice {
	case "1":
		return s.add(ctx)
	case "2":
		return s.list(ctx)
	case "3":
		return s.update(ctx)
	case "4":
		return s.delete(ctx)
	case "5":
		return s.search(ctx)
	case "6":
		return s.sort(ctx)
	case "7":
		return s.export(ctx)
	case "8":
		return s.statistics(ctx)
	default:
		s.println("Invalid option.")
		return nil
	}
}

func (s *Shell) add(ctx context.Context) error {
	name, err := s.ask("Enter name: ")
	if err != nil {
		return err
	}
	if _, err := s.records.AddRecord(ctx, name); err != nil {
		return err
	}
	s.println(s.st.success.Render("Record added successfully!"))
	return nil
}

func (s *Shell) list(ctx context.Context) error {
	records, err := s.records.ListRecords(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		s.println("No records found.")
		return nil
	}
	for _, rec := range records {
		s.println(report.RecordLine(rec))
	}
	return nil
}

func (s *Shell) update(ctx context.Context) error {
	id, err := s.ask("Enter record ID to update: ")
	if err != nil {
		return err
	}
	name, err := s.ask("New name: ")
	if err != nil {
		return err
	}
	rec, err := s.records.UpdateRecord(ctx, id, name)
	if err != nil {
		return err
	}
	if rec == nil {
		s.println(s.st.failure.Render("Record not found."))
		return nil
	}
	s.println(s.st.success.Render("Record updated!"))
	return nil
}

func (s *Shell) delete(ctx context.Context) error {
	id, err := s.ask("Enter record ID to delete: ")
	if err != nil {
		return err
	}
	rec, err := s.records.DeleteRecord(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		s.println(s.st.failure.Render("Record not found."))
		return nil
	}
	s.println(s.st.success.Render("Record deleted!"))
	return nil
}

func (s *Shell) search(ctx context.Context) error {
	by, err := s.ask("Search by (id/name): ")
	if err != nil {
		return err
	}
	keyword, err := s.ask("Enter search keyword: ")
	if err != nil {
		return err
	}
	results, err := s.records.SearchRecords(ctx, strings.ToLower(strings.TrimSpace(by)), keyword)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		s.println("No records found.")
		return nil
	}
	s.println()
	s.println(s.st.heading.Render(fmt.Sprintf("Found %d matching record(s):", len(results))))
	s.println()
	s.numbered(results)
	return nil
}

func (s *Shell) sort(ctx context.Context) error {
	field, err := s.ask("Choose field to sort by (name/id/date): ")
	if err != nil {
		return err
	}
	order, err := s.ask("Choose order (Ascending/Descending): ")
	if err != nil {
		return err
	}
	sorted, err := s.records.SortRecords(ctx, strings.ToLower(field), strings.ToLower(order))
	if err != nil {
		return err
	}
	s.println()
	s.println(s.st.heading.Render("Sorted Records:"))
	s.println()
	s.numbered(sorted)
	return nil
}

func (s *Shell) export(ctx context.Context) error {
	records, err := s.records.ListRecords(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := report.WriteExport(&buf, records, s.now()); err != nil {
		return err
	}
	if err := os.WriteFile(s.exportPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	s.println(s.st.success.Render("Data exported successfully to " + s.exportPath))
	return nil
}

func (s *Shell) statistics(ctx context.Context) error {
	records, err := s.records.ListRecords(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		s.println("No records in vault.")
		return nil
	}
	st := report.Compute(records, s.now())
	rule := strings.Repeat("-", 50)

	s.println()
	s.println(s.st.heading.Render("Vault Statistics:"))
	s.println(rule)
	s.printf("Total Records: %d\n", st.Total)
	s.printf("Last Modified: %s\n", st.LastModified)
	s.printf("Longest Name: %s (%d characters)\n", st.LongestName, st.LongestNameLen)
	s.printf("Earliest Record: %s\n", st.EarliestCreated)
	s.printf("Latest Record: %s\n", st.LatestCreated)
	if s.backups != nil {
		latest, err := s.backups.Latest()
		if err != nil {
			s.logger.Printf("list backups: %v", err)
		} else if latest != "" {
			s.printf("Latest Backup: %s\n", latest)
		}
	}
	s.println(rule)
	return nil
}

func (s *Shell) numbered(records []dom.Record) {
	for i, rec := range records {
		s.printf("%d. %s\n", i+1, report.RecordLine(rec))
	}
}

func (s *Shell) menu() {
	s.println()
	s.println(s.st.title.Render(menuHeader))
	for _, opt := range menuOptions {
		s.println(opt)
	}
	s.println(s.st.title.Render(strings.Repeat("=", len(menuHeader))))
}

func (s *Shell) goodbye() {
	s.println(s.st.muted.Render("Exiting Vault..."))
}

// ask prints prompt and reads one line without its line ending. A last line
// without a newline is still returned; after that input is closed.
func (s *Shell) ask(prompt string) (string, error) {
	fmt.Fprint(s.out, s.st.prompt.Render(prompt))
	line, err := s.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", errInputClosed
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *Shell) println(a ...any) { fmt.Fprintln(s.out, a...) }

func (s *Shell) printf(format string, a ...any) { fmt.Fprintf(s.out, format, a...) }
