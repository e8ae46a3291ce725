package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/BryceStandley/ManifestToScale/internal/company"
	"github.com/BryceStandley/ManifestToScale/internal/config"
	"github.com/BryceStandley/ManifestToScale/internal/converter"
	"github.com/BryceStandley/ManifestToScale/internal/logging"
)

func manifestCSV(day int) string {
	return fmt.Sprintf(`"Ship Date","Store Num","Store Name","PO #","Cust #","Order #","Inv #","Qty","Crates"
%d/07/2025,332,COLES GARDEN CITY,25486091V,50113007,SO1,INV1,3,5
`, day)
}

func writeInputs(t *testing.T, contents map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, body := range contents {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestProcessFilesKeepsOrder(t *testing.T) {
	files := writeInputs(t, map[string]string{
		"a.csv": manifestCSV(7),
		"b.csv": manifestCSV(8),
		"c.csv": manifestCSV(9),
	})
	conv := converter.New(converter.Options{DefaultCompany: company.FreshToGo})

	results := processFiles(context.Background(), conv, files, 2, true)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.FilePath != files[i] {
			t.Fatalf("result %d is for %s, want %s", i, r.FilePath, files[i])
		}
		if !r.Success {
			t.Fatalf("%s failed: %s", r.FilePath, r.ErrorMessage)
		}
	}
}

func TestProcessFilesStopsAfterFailure(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for i, body := range []string{"broken", manifestCSV(8), manifestCSV(9)} {
		p := filepath.Join(dir, fmt.Sprintf("%d.csv", i))
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		files = append(files, p)
	}
	conv := converter.New(converter.Options{DefaultCompany: company.FreshToGo})

	results := processFiles(context.Background(), conv, files, 1, false)
	if len(results) != 1 || results[0].Success {
		t.Fatalf("expected only the failed file to run, got %d results", len(results))
	}
}

func TestOpenStore(t *testing.T) {
	st, err := openStore(context.Background(), config.DatabaseConfig{Driver: config.DriverNone})
	if err != nil || st != nil {
		t.Fatalf("none driver = %v, %v", st, err)
	}

	st, err = openStore(context.Background(), config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "m.db"),
	})
	if err != nil || st == nil {
		t.Fatalf("sqlite driver = %v, %v", st, err)
	}
	_ = st.Close()

	if _, err := openStore(context.Background(), config.DatabaseConfig{Driver: "mysql"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestNewAppWiresConverter(t *testing.T) {
	root := t.TempDir()
	cfg := &config.MainConfig{
		InputDir:         filepath.Join(root, "in"),
		OutputDir:        filepath.Join(root, "out"),
		InputArchiveDir:  filepath.Join(root, "in_archive"),
		OutputArchiveDir: filepath.Join(root, "out_archive"),
		Database:         config.DatabaseConfig{Driver: config.DriverSQLite, Path: filepath.Join(root, "m.db")},
		Processing: config.ProcessingConfig{
			CompanyPatterns: []config.CompanyPattern{{Pattern: "*azura*", Company: "caf"}},
		},
	}

	a, err := newApp(context.Background(), cfg, logging.Nop(), false, company.Unknown)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(func() {
		_ = a.Close()
	})

	if a.store == nil {
		t.Fatal("expected a sqlite store")
	}
	if _, err := os.Stat(cfg.OutputArchiveDir); err != nil {
		t.Fatalf("directories not created: %v", err)
	}
	got, err := a.converter.ResolveCompany("Azura 0807.pdf")
	if err != nil || got != company.AzuraFresh {
		t.Fatalf("ResolveCompany = %v, %v", got, err)
	}
}
