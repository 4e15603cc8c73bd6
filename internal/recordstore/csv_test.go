package recordstore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/garnizeh/jobboard/internal/recordstore"
)

var testSchema = recordstore.Schema{
	Name:   "people",
	Fields: []string{"id", "name", "city"},
	Key:    []string{"id"},
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestCSVBackend_InitializeCreatesHeader(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := recordstore.NewCSVBackend(dir, recordstore.RejectMalformed, nil)

	if err := b.Initialize(ctx, testSchema); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	got, err := os.ReadFile(b.Path(testSchema))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "id,name,city\n" {
		t.Fatalf("unexpected header file %q", string(got))
	}
}

func TestCSVBackend_InitializeKeepsExistingFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	content := "other,header\nx,y\n"
	p := writeFile(t, dir, "people.csv", content)

	b := recordstore.NewCSVBackend(dir, recordstore.RejectMalformed, nil)
	if err := b.Initialize(ctx, testSchema); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := b.Initialize(ctx, testSchema); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	got, _ := os.ReadFile(p)
	if string(got) != content {
		t.Fatalf("existing file changed: %q", string(got))
	}
}

func TestCSVBackend_LoadAbsentAndHeaderOnly(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := recordstore.NewCSVBackend(dir, recordstore.RejectMalformed, nil)

	recs, err := b.Load(ctx, testSchema)
	if err != nil {
		t.Fatalf("Load absent: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records for absent file, got %d", len(recs))
	}

	writeFile(t, dir, "people.csv", "id,name,city\n")
	recs, err = b.Load(ctx, testSchema)
	if err != nil {
		t.Fatalf("Load header only: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records for header-only file, got %d", len(recs))
	}

	writeFile(t, dir, "people.csv", "")
	recs, err = b.Load(ctx, testSchema)
	if err != nil {
		t.Fatalf("Load empty: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records for empty file, got %d", len(recs))
	}
}

func TestCSVBackend_RoundTripIsByteIdentical(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	content := "id,name,city\n" +
		"1,Ada,London\n" +
		"2,\"Smith, John\",Austin\n" +
		"3,,\n" +
		"4,\"say \"\"hi\"\"\",Paris\n"
	p := writeFile(t, dir, "people.csv", content)

	b := recordstore.NewCSVBackend(dir, recordstore.RejectMalformed, nil)
	recs, err := b.Load(ctx, testSchema)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("expected 4 records, got %d", len(recs))
	}
	if recs[1]["name"] != "Smith, John" || recs[3]["name"] != `say "hi"` {
		t.Fatalf("unexpected decoded values: %#v", recs)
	}

	if err := b.Save(ctx, testSchema, recs); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := os.ReadFile(p)
	if string(got) != content {
		t.Fatalf("round trip changed content:\nwant %q\ngot  %q", content, string(got))
	}
}

func TestCSVBackend_ReadsCRLFFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "people.csv", "id,name,city\r\n1,Ada,London\r\n")

	b := recordstore.NewCSVBackend(dir, recordstore.RejectMalformed, nil)
	recs, err := b.Load(ctx, testSchema)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 1 || recs[0]["city"] != "London" {
		t.Fatalf("unexpected records: %#v", recs)
	}
}

func TestCSVBackend_HeaderDrivesColumnMapping(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "people.csv", "name,id\nAda,1\n")

	b := recordstore.NewCSVBackend(dir, recordstore.RejectMalformed, nil)
	recs, err := b.Load(ctx, testSchema)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if recs[0]["id"] != "1" || recs[0]["name"] != "Ada" {
		t.Fatalf("columns mapped by position instead of header: %#v", recs[0])
	}
	if _, ok := recs[0]["city"]; ok {
		t.Fatalf("backend should not invent columns absent from the file")
	}
}

func TestCSVBackend_MalformedRejected(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "people.csv", "id,name,city\n1,Ada,London\n2,Bob\n3,Cy,Rome\n")

	b := recordstore.NewCSVBackend(dir, recordstore.RejectMalformed, nil)
	_, err := b.Load(ctx, testSchema)
	if !errors.Is(err, recordstore.ErrMalformedRecord) {
		t.Fatalf("expected ErrMalformedRecord, got %v", err)
	}
	var merr *recordstore.MalformedRecordError
	if !errors.As(err, &merr) {
		t.Fatalf("expected *MalformedRecordError, got %T", err)
	}
	if merr.Line != 3 || merr.Want != 3 || merr.Got != 2 {
		t.Fatalf("unexpected error detail: %+v", merr)
	}
}

func TestCSVBackend_MalformedSkipped(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, dir, "people.csv", "id,name,city\n1,Ada,London\n2,Bob\n3,Cy,Rome,extra\n4,Di,Oslo\n")

	b := recordstore.NewCSVBackend(dir, recordstore.SkipMalformed, nil)
	recs, err := b.Load(ctx, testSchema)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 2 || recs[0]["id"] != "1" || recs[1]["id"] != "4" {
		t.Fatalf("unexpected records after skip: %#v", recs)
	}
}

func TestParseMalformedPolicy(t *testing.T) {
	cases := map[string]recordstore.MalformedPolicy{
		"":       recordstore.RejectMalformed,
		"reject": recordstore.RejectMalformed,
		"SKIP":   recordstore.SkipMalformed,
	}
	for in, want := range cases {
		got, err := recordstore.ParseMalformedPolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseMalformedPolicy(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := recordstore.ParseMalformedPolicy("ignore"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
