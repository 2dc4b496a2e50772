package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"airbnb-dashboard/models"
	"airbnb-dashboard/utils"
)

func TestCSVWriterWritesHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	rows := []models.TableRow{
		{ID: "1", Neighbourhood: "Back Bay", Price: 50, MinimumNights: 2, Availability365: 250},
	}
	if err := w.WriteRows(rows); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := w.WriteRows([]models.TableRow{{ID: "2", Neighbourhood: "South End, East", Price: 30.5, MinimumNights: 1}}); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	want := "id,neighbourhood,price,minimum_nights,availability_365\n" +
		"1,Back Bay,50.00,2,250\n" +
		"2,\"South End, East\",30.50,1,0\n"
	if buf.String() != want {
		t.Errorf("csv output:\ngot  %q\nwant %q", buf.String(), want)
	}
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri         string
		bucket, key string
		wantErr     bool
	}{
		{"s3://data/boston/listings.csv", "data", "boston/listings.csv", false},
		{"s3://data/", "", "", true},
		{"s3://", "", "", true},
		{"./listings.csv", "", "", true},
	}
	for _, tt := range tests {
		bucket, key, err := ParseS3URI(tt.uri)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseS3URI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			continue
		}
		if bucket != tt.bucket || key != tt.key {
			t.Errorf("ParseS3URI(%q) = %q, %q; want %q, %q", tt.uri, bucket, key, tt.bucket, tt.key)
		}
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")
	if err := os.WriteFile(path, []byte("id\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rc, err := FileSource{Path: path}.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "id\n1\n" {
		t.Errorf("content: got %q", data)
	}

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.csv")}.Open(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v, want os.ErrNotExist", err)
	}
}

type fakeS3 struct {
	calls int
	errs  []error
	body  string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	if f.calls <= len(f.errs) {
		return nil, f.errs[f.calls-1]
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func testLogger() *utils.Logger { return utils.NewLoggerWithLevel(io.Discard, "error") }

func TestS3SourceRetriesTransientErrors(t *testing.T) {
	fake := &fakeS3{errs: []error{errors.New("connection reset")}, body: "id\n"}
	src := newS3Source(fake, "data", "listings.csv", 3, testLogger())
	src.retry.BaseDelay = 0

	rc, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rc.Close()
	if fake.calls != 2 {
		t.Errorf("calls: got %d, want 2", fake.calls)
	}
	if src.String() != "s3://data/listings.csv" {
		t.Errorf("String: got %q", src.String())
	}
}

func TestS3SourceMissingKeyIsNotRetried(t *testing.T) {
	fake := &fakeS3{errs: []error{&types.NoSuchKey{}}}
	src := newS3Source(fake, "data", "missing.csv", 5, testLogger())
	src.retry.BaseDelay = 0

	_, err := src.Open(context.Background())
	var noKey *types.NoSuchKey
	if !errors.As(err, &noKey) {
		t.Fatalf("error: got %v, want NoSuchKey", err)
	}
	if fake.calls != 1 {
		t.Errorf("calls: got %d, want 1", fake.calls)
	}
}

func TestInsertStatementPlaceholders(t *testing.T) {
	stmt := insertStatement(2)
	if !strings.Contains(stmt, "($1,$2,$3,$4,$5,$6,$7,$8),($9,$10,$11,$12,$13,$14,$15,$16)") {
		t.Errorf("placeholders: got %s", stmt)
	}
}

func TestResolveSourceLocalPath(t *testing.T) {
	src, err := ResolveSource(context.Background(), "./data/listings.csv", "us-east-1", "", 1, testLogger())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, ok := src.(FileSource); !ok {
		t.Errorf("local path: got %T, want FileSource", src)
	}
}
