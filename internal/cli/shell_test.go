package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"Vault/internal/backup"
	"Vault/internal/config"
	dom "Vault/internal/domain"
	"Vault/internal/service"
	"Vault/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc     *service.RecordService
	backups *backup.Writer
	export  string
	logs    bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	quiet := log.New(io.Discard, "", 0)
	client := store.NewClient(config.StoreConfig{URI: "sqlite::memory:"}, quiet)
	t.Cleanup(func() { client.Close() })
	dir := t.TempDir()
	writer := backup.NewWriter(filepath.Join(dir, "backups"), quiet)
	return &fixture{
		svc:     service.NewRecordService(client, writer, nil, nil, quiet),
		backups: writer,
		export:  filepath.Join(dir, "export.txt"),
	}
}

// run feeds the input lines to a fresh shell and returns everything it printed.
func (f *fixture) run(t *testing.T, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	sh := NewShell(f.svc, f.backups, f.export, strings.NewReader(strings.Join(lines, "\n")+"\n"), &out, log.New(&f.logs, "", 0))
	sh.now = func() time.Time { return time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC) }
	require.NoError(t, sh.Run(context.Background()))
	return out.String()
}

var idPattern = regexp.MustCompile(`ID: (\d{6})`)

func TestShell_AddAndList(t *testing.T) {
	f := newFixture(t)
	out := f.run(t, "1", "Alice", "2", "9")

	assert.Contains(t, out, "===== Vault =====")
	assert.Contains(t, out, "Enter name: ")
	assert.Contains(t, out, "Record added successfully!")
	assert.Regexp(t, `ID: \d{6} \| Name: Alice \| Created: \d{4}-\d{2}-\d{2}`, out)
	assert.Contains(t, out, "Exiting Vault...")
}

func TestShell_ListEmpty(t *testing.T) {
	f := newFixture(t)
	out := f.run(t, "2", "9")
	assert.Contains(t, out, "No records found.")
}

func TestShell_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	out := f.run(t, "1", "Alice", "2", "9")
	m := idPattern.FindStringSubmatch(out)
	require.Len(t, m, 2)
	id := m[1]

	out = f.run(t, "3", id, "Alicia", "3", "000000", "Nobody", "2", "9")
	assert.Contains(t, out, "Record updated!")
	assert.Contains(t, out, "Record not found.")
	assert.Contains(t, out, "Name: Alicia")

	out = f.run(t, "4", id, "4", id, "2", "9")
	assert.Contains(t, out, "Record deleted!")
	assert.Contains(t, out, "Record not found.")
	assert.Contains(t, out, "No records found.")
}

func TestShell_SearchAndSort(t *testing.T) {
	f := newFixture(t)
	f.run(t, "1", "John", "1", "jolly", "1", "Amy", "9")

	out := f.run(t, "5", " NAME ", "jo", "9")
	assert.Contains(t, out, "Found 2 matching record(s):")
	assert.Regexp(t, `1\. ID: \d{6} \| Name: John`, out)
	assert.Regexp(t, `2\. ID: \d{6} \| Name: jolly`, out)

	out = f.run(t, "5", "id", "nope", "9")
	assert.Contains(t, out, "No records found.")

	out = f.run(t, "6", "Name", "Ascending", "9")
	assert.Contains(t, out, "Sorted Records:")
	amy := strings.Index(out, "Name: Amy")
	john := strings.Index(out, "Name: John")
	jolly := strings.Index(out, "Name: jolly")
	assert.True(t, amy < john && john < jolly, out)
}

func TestShell_AddEmptyNamePrintsError(t *testing.T) {
	f := newFixture(t)
	out := f.run(t, "1", "", "2", "9")

	assert.Contains(t, out, "Error: record must have a name")
	assert.Contains(t, out, "No records found.")
	assert.Contains(t, f.logs.String(), "command 1 failed")
	// the menu is shown again after the error
	assert.GreaterOrEqual(t, strings.Count(out, "===== Vault ====="), 3)
}

func TestShell_InvalidOption(t *testing.T) {
	f := newFixture(t)
	out := f.run(t, "42", "9")
	assert.Contains(t, out, "Invalid option.")
}

func TestShell_EOFExits(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer
	sh := NewShell(f.svc, nil, f.export, strings.NewReader("2\n"), &out, log.New(io.Discard, "", 0))
	require.NoError(t, sh.Run(context.Background()))
	assert.Contains(t, out.String(), "Exiting Vault...")

	// input ending in the middle of a command also exits
	out.Reset()
	sh = NewShell(f.svc, nil, f.export, strings.NewReader("1\n"), &out, log.New(io.Discard, "", 0))
	require.NoError(t, sh.Run(context.Background()))
	assert.Contains(t, out.String(), "Exiting Vault...")
	list, err := f.svc.ListRecords(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestShell_LastLineWithoutNewline(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer
	sh := NewShell(f.svc, nil, f.export, strings.NewReader("1\nBob"), &out, log.New(io.Discard, "", 0))
	require.NoError(t, sh.Run(context.Background()))

	list, err := f.svc.ListRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bob", list[0].Name)
}

func TestShell_Export(t *testing.T) {
	f := newFixture(t)
	out := f.run(t, "1", "Alice", "7", "9")
	assert.Contains(t, out, "Data exported successfully to "+f.export)

	data, err := os.ReadFile(f.export)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, strings.Repeat("=", 60)+"\n           VAULT DATA EXPORT\n"))
	assert.Contains(t, text, "Export Date: 2026-10-19 09:30:00\n")
	assert.Contains(t, text, "Total Records: 1\n")
	assert.Contains(t, text, "Record 1:\n")
	assert.Contains(t, text, "  Name: Alice\n")
}

func TestShell_ExportFailure(t *testing.T) {
	f := newFixture(t)
	f.export = filepath.Join(t.TempDir(), "missing", "export.txt")
	out := f.run(t, "7", "9")
	assert.Contains(t, out, "Error: write export:")
}

func TestShell_Statistics(t *testing.T) {
	f := newFixture(t)
	out := f.run(t, "8", "9")
	assert.Contains(t, out, "No records in vault.")

	out = f.run(t, "1", "Al", "1", "Bernadette", "8", "9")
	assert.Contains(t, out, "Vault Statistics:")
	assert.Contains(t, out, "Total Records: 2\n")
	assert.Contains(t, out, "Last Modified: 2026-10-19 09:30:00\n")
	assert.Contains(t, out, "Longest Name: Bernadette (10 characters)\n")
	assert.Regexp(t, `Earliest Record: \d{4}-\d{2}-\d{2}`, out)
	assert.Regexp(t, `Latest Backup: backup_\S+\.json`, out)
}

type failingRecords struct{ Records }

func (failingRecords) ListRecords(context.Context) ([]dom.Record, error) {
	return nil, errors.New("store: postgres connection failed: refused")
}

func TestShell_StoreErrorKeepsMenuRunning(t *testing.T) {
	var out bytes.Buffer
	sh := NewShell(failingRecords{}, nil, "", strings.NewReader("2\n9\n"), &out, log.New(io.Discard, "", 0))
	require.NoError(t, sh.Run(context.Background()))
	assert.Contains(t, out.String(), "Error: store: postgres connection failed: refused")
	assert.Contains(t, out.String(), "Exiting Vault...")
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("tty gone") }

func TestShell_ReadFailure(t *testing.T) {
	sh := NewShell(failingRecords{}, nil, "", brokenReader{}, io.Discard, log.New(io.Discard, "", 0))
	err := sh.Run(context.Background())
	assert.ErrorContains(t, err, "tty gone")
}
