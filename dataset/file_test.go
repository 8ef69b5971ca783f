package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"homesweep/models"
)

const header = "price,address,bedrooms,bathrooms,square_feet,scraped_at\n"

func TestWrite_Header(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if buf.String() != header {
		t.Fatalf("unexpected header %q", buf.String())
	}
}

func TestWrite_SentinelAndQuoting(t *testing.T) {
	ts := time.Date(2026, 10, 19, 14, 5, 9, 0, time.Local)
	var buf bytes.Buffer
	err := Write(&buf, []models.Listing{{
		Price:     models.Some("$1,250,000"),
		Address:   models.Some("123 Main St, San Francisco, CA 94110"),
		Bedrooms:  models.Some("3"),
		ScrapedAt: ts,
	}})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	want := header + `"$1,250,000","123 Main St, San Francisco, CA 94110",3,N/A,N/A,2026-10-19 14:05:09` + "\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestRead_RoundTrip(t *testing.T) {
	ts := time.Date(2026, 10, 19, 14, 5, 9, 0, time.Local)
	rows := []models.Listing{
		{Price: models.Some("$1,250,000"), Address: models.Some("123 Main St"), Bedrooms: models.Some("3"), Bathrooms: models.Some("2"), SquareFeet: models.Some("1,200"), ScrapedAt: ts},
		{Address: models.Some("9 Pine St"), ScrapedAt: ts},
	}

	var buf bytes.Buffer
	if err := Write(&buf, rows); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if diff := cmp.Diff(rows, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_ReorderedAndExtraColumns(t *testing.T) {
	in := "address,zpid,price,scraped_at\n" +
		"1 Main St,42,$100,2026-01-02 03:04:05\n"

	got, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0].Address.String() != "1 Main St" || got[0].Price.String() != "$100" {
		t.Fatalf("unexpected row %+v", got[0])
	}
	if got[0].Bedrooms.Valid {
		t.Fatalf("expected missing column to read as absent")
	}
	if got[0].ScrapedAt.Format(models.ScrapedAtLayout) != "2026-01-02 03:04:05" {
		t.Fatalf("unexpected scraped_at %v", got[0].ScrapedAt)
	}
}

func TestRead_Errors(t *testing.T) {
	if _, err := Read(strings.NewReader("price,bedrooms\n$1,2\n")); err == nil {
		t.Fatalf("expected error for missing address column")
	}
	if _, err := Read(strings.NewReader(header + "$1,A,1,1,1,yesterday\n")); err == nil {
		t.Fatalf("expected error for bad scraped_at")
	}
}

func TestRead_Empty(t *testing.T) {
	got, err := Read(strings.NewReader(""))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty dataset, got %d rows", len(got))
	}
}

func TestFile_MergeCreatesAndRewrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "listings.csv")
	f := NewFile(path, nil)

	stats, err := f.Merge([]models.Listing{listing("1 Main St", "$100"), listing("2 Oak Ave", "$300")})
	if err != nil {
		t.Fatalf("first merge failed: %v", err)
	}
	if stats.Existing != 0 || stats.Total != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	stats, err = f.Merge([]models.Listing{listing("1 Main St", "$200")})
	if err != nil {
		t.Fatalf("second merge failed: %v", err)
	}
	if stats.Existing != 2 || stats.Incoming != 1 || stats.Total != 2 || stats.Replaced() != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	got, found, err := f.Load()
	if err != nil || !found {
		t.Fatalf("load failed: found=%v err=%v", found, err)
	}
	want := []models.Listing{listing("2 Oak Ave", "$300"), listing("1 Main St", "$200")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("dataset mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), header) {
		t.Fatalf("expected canonical header, got %q", string(data))
	}
}

func TestFile_MergeWithItselfIsStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")
	f := NewFile(path, nil)

	rows := []models.Listing{listing("A", "$1"), listing("B", "$2")}
	if err := f.Save(rows); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	before, _ := os.ReadFile(path)

	if _, err := f.Merge(rows); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	after, _ := os.ReadFile(path)

	if !bytes.Equal(before, after) {
		t.Fatalf("self-merge changed the file:\n%s\n---\n%s", before, after)
	}
}

func TestFile_LoadAbsent(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "missing.csv"), nil)
	rows, found, err := f.Load()
	if err != nil || found || rows != nil {
		t.Fatalf("expected absent dataset, got rows=%v found=%v err=%v", rows, found, err)
	}
}
