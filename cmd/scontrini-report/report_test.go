package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scontrini/internal/core"
	"scontrini/internal/report"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "scontrini.db"))
	t.Setenv("DEFAULT_USER_ID", "local")
	t.Setenv("REPORT_LOCALE", "en-US")
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	return dir
}

// run executes the root command with fresh flag values.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	recordsSel, printSel = selection{}, selection{}
	flagXLSX, flagLimit = "", report.ColumnLimit
	flagAddRestaurant, flagAddDate = 0, ""
	flagUser, flagLocale, flagLogLevel, flagEvents = "", "", "error", false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestSelectionValidate(t *testing.T) {
	tests := []struct {
		name    string
		sel     selection
		wantErr error
	}{
		{"none", selection{}, errNoSelection},
		{"both", selection{restaurantID: 1, all: true}, errNoSelection},
		{"restaurant", selection{restaurantID: 1}, nil},
		{"all with range", selection{all: true, from: "2024-01-01", to: "2024-01-31"}, nil},
		{"end without start", selection{all: true, to: "2024-01-31"}, core.ErrEndWithoutStart},
		{"end before start", selection{all: true, from: "2024-02-01", to: "2024-01-31"}, core.ErrEndBeforeStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.sel.validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteRecords(t *testing.T) {
	f := report.NewFormatter("en-US")
	records := []core.Record{
		{ID: 1, IssuedAt: core.MustParseDate("2024-03-05"), Amounts: []core.Amount{core.MustParseAmount("10"), core.MustParseAmount("0.5")}},
		{ID: 2, IssuedAt: core.MustParseDate("2024-03-06"), Amounts: []core.Amount{core.MustParseAmount("4")}},
	}
	var buf bytes.Buffer
	writeRecords(&buf, f, records)
	out := buf.String()

	for _, want := range []string{"3/5/2024", "10 + 0.5", "10.5", "3/6/2024", "Total", "14.5"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	writeRecords(&buf, f, nil)
	if strings.TrimSpace(buf.String()) != "No records." {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestWriteGroups(t *testing.T) {
	f := report.NewFormatter("en-US")
	groups := core.GroupByDate([]core.RecordDetail{
		{Record: core.Record{ID: 1, IssuedAt: core.MustParseDate("2024-03-05"), Amounts: []core.Amount{core.MustParseAmount("12")}}, RestaurantName: "Trattoria"},
		{Record: core.Record{ID: 2, IssuedAt: core.MustParseDate("2024-03-05"), Amounts: []core.Amount{core.MustParseAmount("3")}}, RestaurantName: "Bar Centrale"},
	})
	var buf bytes.Buffer
	writeGroups(&buf, f, groups)
	out := buf.String()

	if strings.Count(out, "3/5/2024") != 1 {
		t.Errorf("expected a single date heading:\n%s", out)
	}
	for _, want := range []string{"Trattoria", "Bar Centrale", "15"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCommandsAgainstSQLite(t *testing.T) {
	dir := setupEnv(t)

	_, stderr, err := run(t, "add", "restaurant", "Trattoria")
	if err != nil {
		t.Fatalf("add restaurant: %v", err)
	}
	if !strings.Contains(stderr, "Restaurant successfully added") {
		t.Errorf("stderr = %q, want success notification", stderr)
	}

	out, _, err := run(t, "restaurants")
	if err != nil {
		t.Fatalf("restaurants: %v", err)
	}
	if !strings.Contains(out, "Trattoria") {
		t.Fatalf("restaurants output = %q", out)
	}

	if _, _, err := run(t, "add", "record", "-r", "1", "-d", "2024-03-05", "10"); err != nil {
		t.Fatalf("add record: %v", err)
	}
	out, stderr, err = run(t, "add", "record", "-r", "1", "-d", "2024-03-05", "0.5")
	if err != nil {
		t.Fatalf("add second record: %v", err)
	}
	if !strings.Contains(stderr, "Record successfully added") {
		t.Errorf("stderr = %q, want success notification", stderr)
	}
	if !strings.Contains(out, "10.5") {
		t.Errorf("merged record output = %q, want subtotal 10.5", out)
	}

	out, _, err = run(t, "records", "-r", "1")
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if strings.Count(out, "3/5/2024") != 1 {
		t.Errorf("same-day entries should merge into one record:\n%s", out)
	}

	out, _, err = run(t, "print", "--all")
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(out, "Total: 10.5") {
		t.Errorf("print output missing total:\n%s", out)
	}

	path := filepath.Join(dir, "records.xlsx")
	if _, _, err := run(t, "print", "-r", "1", "--xlsx", path); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Errorf("export is not a zip archive")
	}
}

func TestCommandErrors(t *testing.T) {
	setupEnv(t)
	if _, _, err := run(t, "add", "restaurant", "Osteria"); err != nil {
		t.Fatalf("add restaurant: %v", err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"no selection", []string{"records"}, errNoSelection},
		{"end without start", []string{"records", "--all", "--to", "2024-01-01"}, core.ErrEndWithoutStart},
		{"record without restaurant", []string{"add", "record", "-d", "2024-03-05", "5"}, core.ErrNoRestaurant},
		{"record without date", []string{"add", "record", "-r", "1", "5"}, core.ErrMissingDate},
		{"zero amount", []string{"add", "record", "-r", "1", "-d", "2024-03-05", "0"}, core.ErrIncompleteAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("foreign restaurant", func(t *testing.T) {
		_, _, err := run(t, "--user", "someone-else", "records", "-r", "1")
		if err == nil || !strings.Contains(err.Error(), "does not belong") {
			t.Errorf("error = %v, want ownership error", err)
		}
	})
}
