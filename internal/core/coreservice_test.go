package core

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jo-hoe/logomigrator/internal/common"
	"github.com/jo-hoe/logomigrator/internal/fetcher"
	"github.com/jo-hoe/logomigrator/internal/imageprocessing"
	"github.com/jo-hoe/logomigrator/internal/storage"
)

type storedObject struct {
	data        []byte
	contentType string
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string]storedObject
	// paths containing reject are answered with 403
	reject string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]storedObject{}}
}

func (s *fakeStore) Upload(_ context.Context, path string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject != "" && strings.Contains(path, s.reject) {
		return "", &common.UploadError{Path: path, StatusCode: http.StatusForbidden, Body: "denied"}
	}
	s.objects[path] = storedObject{data: data, contentType: contentType}
	return "/storage/v1/object/public/images/" + path, nil
}

type recordURLs struct {
	imageURL     string
	thumbnailURL string
}

type fakeRecords struct {
	rows map[string]recordURLs
	err  error
}

func (r *fakeRecords) UpdateImageURLs(_ context.Context, id, imageURL, thumbnailURL string) error {
	if r.err != nil {
		return r.err
	}
	r.rows[id] = recordURLs{imageURL: imageURL, thumbnailURL: thumbnailURL}
	return nil
}

type reportedFailure struct {
	entry string
	stage string
	err   error
}

type fakeReporter struct {
	failures []reportedFailure
}

func (r *fakeReporter) ReportFailure(entry, stage string, err error) {
	r.failures = append(r.failures, reportedFailure{entry: entry, stage: stage, err: err})
}

func testLogoPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode logo: %v", err)
	}
	return buf.Bytes()
}

// newImageHost serves a PNG for every path except /missing.png.
func newImageHost(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(hostURL string, paths ...string) *ServiceConfig {
	ids := []string{
		"2b826f9e-3858-4a78-bb2a-f061831fb056",
		"6bdc683d-4573-4aee-b7a9-7a60341a8596",
		"43f76b93-6324-4c78-b5e9-fdd0f2fb68de",
	}
	config := &ServiceConfig{Variants: defaultVariants()}
	for i, p := range paths {
		config.Logos = append(config.Logos, LogoEntry{ID: ids[i], Name: "logo" + p, URL: hostURL + p})
	}
	return config
}

func newTestService(t *testing.T, config *ServiceConfig, store *fakeStore, records *fakeRecords, reporter FailureReporter) *CoreService {
	t.Helper()
	service, err := newCoreService(config, fetcher.NewFetcher(fetcher.Config{}, nil), store, records, reporter)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service
}

func TestRun_MigratesEveryLogo(t *testing.T) {
	payload := testLogoPNG(t, 800, 200)
	host := newImageHost(t, payload)
	config := testConfig(host.URL, "/a.png", "/b.png")
	store := newFakeStore()
	records := &fakeRecords{rows: map[string]recordURLs{}}

	report := newTestService(t, config, store, records, nil).Run(context.Background())

	if report.Succeeded() != 2 || report.Failed() != 0 {
		t.Fatalf("succeeded=%d failed=%d, want 2/0", report.Succeeded(), report.Failed())
	}
	if len(store.objects) != 4 {
		t.Fatalf("stored %d objects, want 4", len(store.objects))
	}

	converter, err := imageprocessing.NewPngConverterCommand(map[string]any{})
	if err != nil {
		t.Fatalf("failed to create converter: %v", err)
	}
	wantOriginal, err := converter.Execute(payload)
	if err != nil {
		t.Fatalf("converter failed: %v", err)
	}

	for _, result := range report.Results {
		original, ok := store.objects[storage.OriginalPath(result.ObjectID)]
		if !ok {
			t.Fatalf("original for %s not stored", result.Entry.Name)
		}
		if !bytes.Equal(original.data, wantOriginal) {
			t.Errorf("original of %s differs from converter output", result.Entry.Name)
		}
		if original.contentType != "image/png" {
			t.Errorf("content type = %q", original.contentType)
		}

		thumb, ok := store.objects[storage.ThumbnailPath(result.ObjectID)]
		if !ok {
			t.Fatalf("thumbnail for %s not stored", result.Entry.Name)
		}
		img, err := png.Decode(bytes.NewReader(thumb.data))
		if err != nil {
			t.Fatalf("thumbnail is not a PNG: %v", err)
		}
		if img.Bounds().Dx() != 400 || img.Bounds().Dy() != 100 {
			t.Errorf("thumbnail size = %dx%d, want 400x100", img.Bounds().Dx(), img.Bounds().Dy())
		}

		row := records.rows[result.Entry.ID]
		if row.imageURL != "/storage/v1/object/public/images/originals/"+result.ObjectID+".png" {
			t.Errorf("image_url = %q", row.imageURL)
		}
		if row.thumbnailURL != "/storage/v1/object/public/images/"+result.ObjectID+".png" {
			t.Errorf("thumbnail_url = %q", row.thumbnailURL)
		}
	}
}

func TestRun_ContinuesAfterFailures(t *testing.T) {
	host := newImageHost(t, testLogoPNG(t, 50, 50))
	config := testConfig(host.URL, "/missing.png", "/a.png", "/b.png")
	store := newFakeStore()
	records := &fakeRecords{rows: map[string]recordURLs{}}
	reporter := &fakeReporter{}
	service := newTestService(t, config, store, records, reporter)

	ids := []string{"first", "second"}
	service.newID = func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}
	store.reject = "originals/first"

	report := service.Run(context.Background())

	if report.Succeeded() != 1 || report.Failed() != 2 {
		t.Fatalf("succeeded=%d failed=%d, want 1/2", report.Succeeded(), report.Failed())
	}

	fetchFailure := report.Results[0]
	if fetchFailure.Stage != StageFetch || common.ErrorKind(fetchFailure.Err) != "network" {
		t.Errorf("first result: stage=%s err=%v", fetchFailure.Stage, fetchFailure.Err)
	}
	uploadFailure := report.Results[1]
	var uploadErr *common.UploadError
	if uploadFailure.Stage != StageUploadOriginal || !errors.As(uploadFailure.Err, &uploadErr) {
		t.Errorf("second result: stage=%s err=%v", uploadFailure.Stage, uploadFailure.Err)
	}

	if len(records.rows) != 1 {
		t.Errorf("updated %d rows, want 1", len(records.rows))
	}
	if _, ok := records.rows[config.Logos[2].ID]; !ok {
		t.Error("expected the entry after the failures to be migrated")
	}

	if len(reporter.failures) != 2 {
		t.Fatalf("reported %d failures, want 2", len(reporter.failures))
	}
	if reporter.failures[1].stage != StageUploadOriginal || reporter.failures[1].entry != config.Logos[1].Name {
		t.Errorf("unexpected failure report: %+v", reporter.failures[1])
	}
}

func TestRun_RecordFailureKeepsUploads(t *testing.T) {
	host := newImageHost(t, testLogoPNG(t, 20, 20))
	store := newFakeStore()
	records := &fakeRecords{rows: map[string]recordURLs{}, err: &common.DatabaseError{Op: "update", Err: errors.New("relation does not exist")}}

	report := newTestService(t, testConfig(host.URL, "/a.png"), store, records, nil).Run(context.Background())

	if report.Failed() != 1 || report.Results[0].Stage != StageUpdateRecord {
		t.Fatalf("unexpected report: %+v", report.Results)
	}
	if len(store.objects) != 2 {
		t.Errorf("expected uploaded objects to remain, got %d", len(store.objects))
	}
}

func TestRun_RepeatedRunsCreateNewObjects(t *testing.T) {
	host := newImageHost(t, testLogoPNG(t, 20, 20))
	config := testConfig(host.URL, "/a.png")
	store := newFakeStore()
	records := &fakeRecords{rows: map[string]recordURLs{}}
	service := newTestService(t, config, store, records, nil)

	first := service.Run(context.Background())
	second := service.Run(context.Background())

	firstID := first.Results[0].ObjectID
	secondID := second.Results[0].ObjectID
	if firstID == "" || firstID == secondID {
		t.Fatalf("expected distinct object ids, got %q and %q", firstID, secondID)
	}
	if len(store.objects) != 4 {
		t.Errorf("expected objects of both runs to remain, got %d", len(store.objects))
	}
	if records.rows[config.Logos[0].ID].imageURL != second.Results[0].ImageURL {
		t.Errorf("record holds %q, want latest %q", records.rows[config.Logos[0].ID].imageURL, second.Results[0].ImageURL)
	}
}

func TestRun_CancelledSkipsRemaining(t *testing.T) {
	host := newImageHost(t, testLogoPNG(t, 20, 20))
	store := newFakeStore()
	records := &fakeRecords{rows: map[string]recordURLs{}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := newTestService(t, testConfig(host.URL, "/a.png", "/b.png"), store, records, nil).Run(ctx)

	if report.Skipped() != 2 {
		t.Errorf("skipped = %d, want 2", report.Skipped())
	}
	if len(store.objects) != 0 || len(records.rows) != 0 {
		t.Error("expected no side effects after cancellation")
	}
}

func TestNewCoreService_EndToEnd(t *testing.T) {
	host := newImageHost(t, testLogoPNG(t, 40, 30))

	var uploads []string
	var mu sync.Mutex
	storageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		uploads = append(uploads, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"Key":"images` + strings.TrimPrefix(r.URL.Path, "/storage/v1/object/images") + `"}`))
	}))
	defer storageServer.Close()

	dbPath := filepath.Join(t.TempDir(), "entities.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE entities (id TEXT PRIMARY KEY, image_url TEXT, thumbnail_url TEXT)`); err != nil {
		t.Fatalf("create table error: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO entities (id) VALUES (?)`, "2b826f9e-3858-4a78-bb2a-f061831fb056"); err != nil {
		t.Fatalf("insert error: %v", err)
	}
	_ = db.Close()

	config, err := LoadConfig(writeConfig(t, `
storage:
  type: supabase
  endpoint: `+storageServer.URL+`
  bucket: images
  serviceKey: secret
database:
  type: sqlite
  table: entities
  connectionString: `+dbPath+`
logos:
  - id: 2b826f9e-3858-4a78-bb2a-f061831fb056
    name: Operation Overdrive
    url: `+host.URL+`/overdrive.png
`))
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	service, err := NewCoreService(context.Background(), config, nil)
	if err != nil {
		t.Fatalf("NewCoreService error: %v", err)
	}
	defer func() { _ = service.Close() }()

	report := service.Run(context.Background())
	if report.Succeeded() != 1 {
		t.Fatalf("expected success, got %+v", report.Results)
	}
	if len(uploads) != 2 {
		t.Fatalf("expected 2 uploads, got %v", uploads)
	}

	db, err = sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	defer func() { _ = db.Close() }()

	var imageURL, thumbnailURL string
	if err := db.QueryRow(`SELECT image_url, thumbnail_url FROM entities`).Scan(&imageURL, &thumbnailURL); err != nil {
		t.Fatalf("select error: %v", err)
	}
	id := report.Results[0].ObjectID
	if imageURL != "/storage/v1/object/public/images/originals/"+id+".png" {
		t.Errorf("image_url = %q", imageURL)
	}
	if thumbnailURL != "/storage/v1/object/public/images/"+id+".png" {
		t.Errorf("thumbnail_url = %q", thumbnailURL)
	}
}

func TestNewCoreService_FlushesCacheOnStart(t *testing.T) {
	t.Setenv("TEST_SERVICE_KEY", "secret")
	mr := miniredis.RunT(t)
	if err := mr.Set("logomigrator:https://example.com/old.png", "stale"); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}
	if err := mr.Set("unrelated", "keep"); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}

	config, err := LoadConfig(writeConfig(t, minimalConfig+`
cache:
  address: `+mr.Addr()+`
  flushOnStart: true
`))
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	service, err := NewCoreService(context.Background(), config, nil)
	if err != nil {
		t.Fatalf("NewCoreService error: %v", err)
	}
	defer func() { _ = service.Close() }()

	if service.cache == nil {
		t.Fatal("expected download cache to be enabled")
	}
	if mr.Exists("logomigrator:https://example.com/old.png") {
		t.Error("expected cached download to be flushed")
	}
	if !mr.Exists("unrelated") {
		t.Error("flush must only touch the cache namespace")
	}
}
