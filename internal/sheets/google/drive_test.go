package google

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	goption "google.golang.org/api/option"

	ports "ytearnings/internal/sheets"
)

func TestParseFolderID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1AbC_d-9", want: "1AbC_d-9"},
		{in: "https://drive.google.com/drive/folders/1AbC_d-9?usp=sharing", want: "1AbC_d-9"},
		{in: "https://drive.google.com/drive/u/0/folders/XyZ", want: "XyZ"},
		{in: "https://drive.google.com/open?id=Q1w2", want: "Q1w2"},
		{in: "https://drive.google.com/drive/my-drive", wantErr: true},
		{in: "not a folder", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFolderID(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%q: got %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func testDrive(t *testing.T, h http.HandlerFunc) *DriveSource {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	d, err := NewDriveSourceWithOptions(context.Background(), "https://drive.google.com/drive/folders/F1", 2,
		goption.WithEndpoint(srv.URL+"/"), goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("new drive source: %v", err)
	}
	return d
}

func TestDriveSource_ListPaginates(t *testing.T) {
	var query string
	d := testDrive(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		if r.URL.Query().Get("pageToken") == "" {
			io.WriteString(w, `{"nextPageToken":"p2","files":[{"id":"a","name":"Ads Revenue Video Summary Jan-2025.csv","size":"12","modifiedTime":"2025-02-01T10:00:00Z"}]}`)
			return
		}
		io.WriteString(w, `{"files":[{"id":"b","name":"Paid Features Report Jan-2025.csv"}]}`)
	})
	files, err := d.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 || files[0].ID != "a" || files[1].ID != "b" {
		t.Fatalf("unexpected files %+v", files)
	}
	if files[0].Size != 12 || files[0].Modified.IsZero() {
		t.Fatalf("metadata not mapped: %+v", files[0])
	}
	if !strings.Contains(query, "'F1' in parents") {
		t.Fatalf("unexpected query %q", query)
	}
}

func TestDriveSource_PrefetchThenOpen(t *testing.T) {
	var downloads int32
	d := testDrive(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&downloads, 1)
		switch {
		case strings.HasSuffix(r.URL.Path, "/files/a"):
			io.WriteString(w, "Channel ID,Partner Revenue\nUC1,1.00\n")
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":{"code":404,"message":"not found"}}`)
		}
	})
	files := []ports.SourceFile{{ID: "a", Name: "a.csv"}, {ID: "missing", Name: "missing.csv"}}
	if err := d.Prefetch(context.Background(), files); err != nil {
		t.Fatalf("prefetch: %v", err)
	}
	if downloads != 2 {
		t.Fatalf("expected 2 downloads, got %d", downloads)
	}

	rc, err := d.Open(context.Background(), files[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if !strings.HasPrefix(string(b), "Channel ID") {
		t.Fatalf("unexpected content %q", b)
	}
	if downloads != 2 {
		t.Fatalf("open after prefetch must not download again")
	}
	if _, err := d.Open(context.Background(), files[1]); err == nil {
		t.Fatalf("expected prefetched error to surface on open")
	}
}
