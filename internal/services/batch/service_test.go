package batch

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/worldcheck-sorter/constants"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/async"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/common"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/core"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/entity"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/export"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/ingest"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/repository"
)

// plainText reads each fixture file as text, pages split on form feeds.
type plainText struct{}

func (plainText) PageTexts(_ context.Context, path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(string(b), "\f"), nil
}

func (p plainText) FirstPageText(ctx context.Context, path string) (string, error) {
	pages, err := p.PageTexts(ctx, path)
	if err != nil {
		return "", err
	}
	return pages[0], nil
}

const (
	foundReport = "WORLD-CHECK One\nWORLD-CHECK MATCH DETAILS REPORT\nCASE AND COMPARISON DATA\n" +
		"Name 李四 Li Si\nKEY DATA\n\fBIOGRAPHY\nBIOGRAPHY\nBanker.\nREPORTS\nFined.\nIDENTIFICATION\n"
	noMatchReport = "WORLD-CHECK One\nCASE REPORT\nUnresolved Matches 0\nName Jane Roe\n"
)

// newTestService returns a service and the only root it accepts source paths from.
func newTestService(t *testing.T, minBytes int64) (*Service, string) {
	t.Helper()
	sources := t.TempDir()
	svc, err := NewService(
		Config{WorkRoot: t.TempDir(), MinArchiveBytes: minBytes, RenameDefault: true, SourceRoots: []string{sources}},
		ingest.NewFSStager(nil),
		repository.NewBatchJobRepository(nil, nil),
		core.NewProcessor(nil, plainText{}),
		export.NewWriter(nil),
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	q := async.NewProcessorQueue(svc, nil, async.WithWorkers(1), async.WithProcessTimeout(10*time.Second))
	svc.SetQueue(q)
	t.Cleanup(func() { q.Shutdown(context.Background()) })
	return svc, sources
}

func sourceDir(t *testing.T, root string) string {
	t.Helper()
	dir, err := os.MkdirTemp(root, "src")
	if err != nil {
		t.Fatal(err)
	}
	files := map[string]string{"a.pdf": foundReport, "b.pdf": noMatchReport, "c.txt": "ignored"}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func waitTerminal(t *testing.T, svc *Service, id uuid.UUID) *entity.BatchJob {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.Get(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		if job.Status.Terminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("batch %s did not finish", id)
	return nil
}

func TestSubmitRunsBatchToCompletion(t *testing.T) {
	svc, sources := newTestService(t, 1)
	src := sourceDir(t, sources)

	job, err := svc.Submit(context.Background(), SubmitRequest{SourceDir: src})
	if err != nil {
		t.Fatal(err)
	}
	done := waitTerminal(t, svc, job.ID)
	if done.Status != constants.JobStatusCompleted || done.Progress != constants.ProgressDone {
		t.Fatalf("job = %+v", done)
	}
	if done.Individuals != 2 || done.Companies != 0 {
		t.Errorf("rows = %d/%d", done.Individuals, done.Companies)
	}

	path, err := svc.ArchivePath(context.Background(), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"李四01.pdf", "No Jane Roe.pdf", constants.DefaultSpreadsheetName} {
		if !names[want] {
			t.Errorf("archive missing %q: %v", want, names)
		}
	}

	// source directory is copied, never modified
	if _, err := os.Stat(filepath.Join(src, "a.pdf")); err != nil {
		t.Errorf("source touched: %v", err)
	}

	if err := svc.Cleanup(context.Background(), job.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ArchivePath(context.Background(), job.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("after cleanup err = %v", err)
	}
}

func TestSubmitSmallArchiveFails(t *testing.T) {
	svc, sources := newTestService(t, 1<<30)

	job, err := svc.Submit(context.Background(), SubmitRequest{SourceDir: sourceDir(t, sources)})
	if err != nil {
		t.Fatal(err)
	}
	done := waitTerminal(t, svc, job.ID)
	if done.Status != constants.JobStatusFailed || done.ErrorMessage == nil {
		t.Fatalf("job = %+v", done)
	}
	if _, err := svc.ArchivePath(context.Background(), job.ID); !errors.Is(err, ErrNotReady) {
		t.Errorf("err = %v, want ErrNotReady", err)
	}
}

func TestSubmitRejectsBadRequests(t *testing.T) {
	svc, sources := newTestService(t, 0)
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", `{}`},
		{"unknown field", `{"source_dir":"/tmp","color":"red"}`},
		{"wrong type", `{"source_dir":"/tmp","rename":"yes"}`},
		{"missing dir", `{"source_dir":"/definitely/not/here"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitJSON(ctx, []byte(tt.raw))
			if !errors.Is(err, common.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}

	empty, err := os.MkdirTemp(sources, "empty")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(ctx, SubmitRequest{SourceDir: empty}); !errors.Is(err, ErrNoReports) {
		t.Errorf("empty dir err = %v", err)
	}
}

func TestRenameOverride(t *testing.T) {
	svc, sources := newTestService(t, 0)
	off := false

	job, err := svc.Submit(context.Background(), SubmitRequest{Files: []string{filepath.Join(sourceDir(t, sources), "b.pdf")}, Rename: &off})
	if err != nil {
		t.Fatal(err)
	}
	done := waitTerminal(t, svc, job.ID)
	if done.Status != constants.JobStatusCompleted || done.Rename {
		t.Fatalf("job = %+v", done)
	}
	if _, err := os.Stat(filepath.Join(done.WorkDir, "b.pdf")); err != nil {
		t.Errorf("file should keep its name: %v", err)
	}
}

func TestSubmitRejectsPathsOutsideRoots(t *testing.T) {
	svc, sources := newTestService(t, 0)
	ctx := context.Background()

	outside := t.TempDir()
	victim := filepath.Join(outside, "keep.pdf")
	if err := os.WriteFile(victim, []byte(noMatchReport), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(sources, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		req  SubmitRequest
	}{
		{"moved file", SubmitRequest{Files: []string{victim}, Move: true}},
		{"directory", SubmitRequest{SourceDir: outside}},
		{"dot dot", SubmitRequest{Files: []string{filepath.Join(sources, "..", filepath.Base(outside), "keep.pdf")}, Move: true}},
		{"symlinked directory", SubmitRequest{SourceDir: link}},
		{"file through symlink", SubmitRequest{Files: []string{filepath.Join(link, "keep.pdf")}, Move: true}},
		{"one bad file among good", SubmitRequest{Files: []string{filepath.Join(sourceDir(t, sources), "b.pdf"), victim}, Move: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Submit(ctx, tt.req); !errors.Is(err, common.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
	if _, err := os.Stat(victim); err != nil {
		t.Errorf("file outside the roots was touched: %v", err)
	}
	if entries, _ := os.ReadDir(svc.cfg.WorkRoot); len(entries) != 0 {
		t.Errorf("work root should stay empty, has %d entries", len(entries))
	}
	if jobs, _ := svc.List(ctx, 10); len(jobs) != 0 {
		t.Errorf("jobs = %d, want 0", len(jobs))
	}

	svc.cfg.SourceRoots = nil
	if _, err := svc.Submit(ctx, SubmitRequest{SourceDir: sourceDir(t, sources)}); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("no roots err = %v, want ErrInvalidInput", err)
	}
}

func TestSubmitUploads(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	job, err := svc.SubmitUploads(ctx, []Upload{
		{Name: "a.pdf", Body: strings.NewReader(foundReport)},
		{Name: "notes.txt", Body: strings.NewReader("skip me")},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	done := waitTerminal(t, svc, job.ID)
	if done.Status != constants.JobStatusCompleted || !done.Rename {
		t.Fatalf("job = %+v", done)
	}
	if _, err := os.Stat(filepath.Join(done.WorkDir, "李四01.pdf")); err != nil {
		t.Errorf("upload not processed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(done.WorkDir, "notes.txt")); !os.IsNotExist(err) {
		t.Error("non-pdf upload should be skipped")
	}

	bad := []struct {
		name    string
		uploads []Upload
	}{
		{"none", nil},
		{"parent path", []Upload{{Name: "../escaped.pdf", Body: strings.NewReader("x")}}},
		{"absolute path", []Upload{{Name: "/tmp/x.pdf", Body: strings.NewReader("x")}}},
		{"blank name", []Upload{{Name: " ", Body: strings.NewReader("x")}}},
		{"only text", []Upload{{Name: "a.txt", Body: strings.NewReader("x")}}},
		{"duplicate", []Upload{{Name: "a.pdf", Body: strings.NewReader("x")}, {Name: "a.pdf", Body: strings.NewReader("y")}}},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.SubmitUploads(ctx, tt.uploads, nil); !errors.Is(err, common.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
	if entries, _ := os.ReadDir(svc.cfg.WorkRoot); len(entries) != 1 {
		t.Errorf("rejected uploads should leave no work dirs, have %d", len(entries))
	}
}

func TestGetUnknown(t *testing.T) {
	svc, _ := newTestService(t, 0)
	if _, err := svc.Get(context.Background(), uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestWatchInboxSubmitsBurst(t *testing.T) {
	svc, _ := newTestService(t, 0)
	inbox := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- svc.WatchInbox(ctx, InboxConfig{Dir: inbox, Debounce: 50 * time.Millisecond, Rename: true})
	}()
	// let the watcher register the directory
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(inbox, "x.pdf"), []byte(noMatchReport), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(10 * time.Second)
	var jobs []*entity.BatchJob
	for time.Now().Before(deadline) {
		jobs, _ = svc.List(context.Background(), 10)
		if len(jobs) == 1 && jobs[0].Status.Terminal() {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(jobs) != 1 || jobs[0].Status != constants.JobStatusCompleted {
		t.Fatalf("jobs = %+v", jobs)
	}
	if _, err := os.Stat(filepath.Join(inbox, "x.pdf")); !os.IsNotExist(err) {
		t.Error("inbox file should have been moved")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
