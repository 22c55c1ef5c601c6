package export

import (
	"archive/zip"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/worldcheck-sorter/internal/entity"
)

func TestWriteLedgers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finished.xlsx")
	l := entity.Ledgers{
		Individuals: []entity.IndividualRow{
			{Filename: "张三01", Name: "张三", Exists: "是", Reports: "Sanctioned", Bios: "Official"},
		},
		Organizations: []entity.OrganizationRow{
			{Filename: "No ACME", Name: "ACME", Exists: "否"},
			{Filename: "No Beta", Name: "Beta", Exists: "否"},
		},
	}
	if err := NewWriter(nil).WriteLedgers(l, path); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if got := f.GetSheetList(); !slices.Equal(got, []string{IndividualSheet, CompanySheet}) {
		t.Errorf("sheets = %v", got)
	}

	ind, err := f.GetRows(IndividualSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(ind) != 2 || !slices.Equal(ind[0], IndividualHeaders) {
		t.Fatalf("individual rows = %q", ind)
	}
	if ind[1][0] != "张三01" || ind[1][1] != "张三" || ind[1][3] != "是" || ind[1][4] != "Sanctioned" || ind[1][5] != "Official" {
		t.Errorf("individual data = %q", ind[1])
	}

	org, err := f.GetRows(CompanySheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(org) != 3 || !slices.Equal(org[0], CompanyHeaders) {
		t.Fatalf("company rows = %q", org)
	}
	if org[2][1] != "Beta" || org[2][3] != "否" {
		t.Errorf("company data = %q", org[2])
	}
}

func TestWriteLedgersEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := NewWriter(nil).WriteLedgers(entity.Ledgers{}, path); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, _ := f.GetRows(CompanySheet)
	if len(rows) != 1 {
		t.Errorf("expected header only, got %d rows", len(rows))
	}
}

func TestWriteLedgersBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.xlsx")
	if err := NewWriter(nil).WriteLedgers(entity.Ledgers{}, path); err == nil {
		t.Fatal("expected error")
	}
}

func TestArchiveDirectory(t *testing.T) {
	dir := t.TempDir()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(os.WriteFile(filepath.Join(dir, "张三01.pdf"), []byte("pdf one"), 0o644))
	must(os.WriteFile(filepath.Join(dir, "finished.xlsx"), []byte("sheet"), 0o644))
	must(os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	must(os.WriteFile(filepath.Join(dir, "nested", "b.pdf"), []byte("pdf two"), 0o644))

	w := NewWriter(nil)
	zipPath, err := w.ArchiveDirectory(dir, "finished.zip")
	must(err)
	if zipPath != filepath.Join(dir, "finished.zip") {
		t.Errorf("zipPath = %s", zipPath)
	}

	// A second run must not pick up the first archive.
	_, err = w.ArchiveDirectory(dir, "finished.zip")
	must(err)

	zr, err := zip.OpenReader(zipPath)
	must(err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	want := []string{"finished.xlsx", "nested/b.pdf", "张三01.pdf"}
	if !slices.Equal(names, want) {
		t.Errorf("entries = %q, want %q", names, want)
	}
}
