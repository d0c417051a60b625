package google

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	ports "ytearnings/internal/sheets"

	"golang.org/x/sync/errgroup"
	drive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"
)

var (
	_ ports.ReportSource = (*DriveSource)(nil)
	_ ports.Prefetcher   = (*DriveSource)(nil)
)

var (
	folderPathRe = regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`)
	folderIDRe   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ParseFolderID accepts a bare folder id or a Drive folder URL.
func ParseFolderID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("empty folder id")
	}
	if m := folderPathRe.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		if id := u.Query().Get("id"); folderIDRe.MatchString(id) {
			return id, nil
		}
		return "", fmt.Errorf("no folder id in %q", s)
	}
	if !folderIDRe.MatchString(s) {
		return "", fmt.Errorf("invalid folder id %q", s)
	}
	return s, nil
}

// DriveSource lists the CSV exports stored in one Drive folder.
type DriveSource struct {
	svc         *drive.Service
	folderID    string
	concurrency int

	mu      sync.Mutex
	fetched map[string]fetchResult
}

type fetchResult struct {
	data []byte
	err  error
}

func NewDriveSource(ctx context.Context, folder string, concurrency int, creds Credentials) (*DriveSource, error) {
	copts, err := creds.ClientOptions(ctx)
	if err != nil {
		return nil, err
	}
	return NewDriveSourceWithOptions(ctx, folder, concurrency, copts...)
}

func NewDriveSourceWithOptions(ctx context.Context, folder string, concurrency int, copts ...goption.ClientOption) (*DriveSource, error) {
	id, err := ParseFolderID(folder)
	if err != nil {
		return nil, err
	}
	svc, err := drive.NewService(ctx, copts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &DriveSource{svc: svc, folderID: id, concurrency: concurrency, fetched: map[string]fetchResult{}}, nil
}

func (d *DriveSource) List(ctx context.Context) ([]ports.SourceFile, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType='text/csv' and trashed=false", d.folderID)
	var out []ports.SourceFile
	token := ""
	for {
		call := d.svc.Files.List().Q(q).
			Fields("nextPageToken, files(id, name, size, modifiedTime)").
			SupportsAllDrives(true).IncludeItemsFromAllDrives(true).
			PageSize(200).Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list drive folder %s: %w", d.folderID, err)
		}
		for _, f := range resp.Files {
			sf := ports.SourceFile{ID: f.Id, Name: f.Name, Size: f.Size}
			if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
				sf.Modified = t
			}
			out = append(out, sf)
		}
		if resp.NextPageToken == "" {
			break
		}
		token = resp.NextPageToken
	}
	slog.InfoContext(ctx, "Listed drive folder", "folder", d.folderID, "files", len(out))
	return out, nil
}

// Prefetch downloads files concurrently. Per-file failures are kept and
// returned by Open; only cancellation aborts the batch.
func (d *DriveSource) Prefetch(ctx context.Context, files []ports.SourceFile) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, f := range files {
		g.Go(func() error {
			data, err := d.download(gctx, f.ID)
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			d.mu.Lock()
			d.fetched[f.ID] = fetchResult{data: data, err: err}
			d.mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

func (d *DriveSource) Open(ctx context.Context, f ports.SourceFile) (io.ReadCloser, error) {
	d.mu.Lock()
	res, ok := d.fetched[f.ID]
	if ok {
		delete(d.fetched, f.ID)
	}
	d.mu.Unlock()
	if !ok {
		res.data, res.err = d.download(ctx, f.ID)
	}
	if res.err != nil {
		return nil, fmt.Errorf("download %s: %w", f.Name, res.err)
	}
	return io.NopCloser(bytes.NewReader(res.data)), nil
}

func (d *DriveSource) download(ctx context.Context, id string) ([]byte, error) {
	resp, err := d.svc.Files.Get(id).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
