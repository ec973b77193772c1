package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventregistration/internal/domain"
	"eventregistration/internal/validation"
)

const maxNamePart = 40

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

type fileRelay struct {
	sinks  map[domain.FileSinkKind]domain.FileSink
	now    func() time.Time
	logger *slog.Logger
}

// NewFileRelay returns a FileRelay sending each event's files to the sink it names.
func NewFileRelay(sinks map[domain.FileSinkKind]domain.FileSink, logger *slog.Logger) domain.FileRelay {
	return &fileRelay{sinks: sinks, now: time.Now, logger: logger}
}

func (r *fileRelay) Relay(ctx context.Context, event *domain.Event, file *domain.UploadedFile, prefix string, owner domain.Participant, required bool) (string, error) {
	if file == nil {
		if required {
			return "", &domain.UploadError{Field: prefix, Err: domain.ErrFileMissing}
		}
		return "", nil
	}
	// Files are checked again here; the relay is also reachable without the validator.
	if reason := validation.CheckFile(file); reason != "" {
		return "", &domain.UploadError{Field: prefix, Filename: file.Filename, Err: fmt.Errorf("%w: %s", domain.ErrInvalidInput, reason)}
	}
	sink, ok := r.sinks[event.FileSink]
	if !ok || sink == nil {
		return "", &domain.UploadError{Field: prefix, Filename: file.Filename, Err: fmt.Errorf("no %s file sink configured", event.FileSink)}
	}

	contentType := validation.ContentType(file)
	name := BuildFileName(prefix, owner.Name, owner.Institution(), event.Name, extensionFor(contentType, file.Filename), r.now())
	url, err := sink.Put(ctx, &domain.FileObject{
		Name:         name,
		OriginalName: file.Filename,
		ContentType:  contentType,
		Section:      event.ID,
		Data:         file.Data,
	})
	if err != nil {
		return "", &domain.UploadError{Field: prefix, Filename: file.Filename, Err: err}
	}
	r.logger.DebugContext(ctx, "file relayed", "event_id", event.ID, "sink", event.FileSink, "name", name)
	return url, nil
}

func extensionFor(contentType, original string) string {
	if ext := validation.Extension(contentType); ext != "" {
		return ext
	}
	return strings.ToLower(filepath.Ext(original))
}

// Slug lower-cases s and collapses everything but letters and digits into dashes.
func Slug(s string) string {
	s = nonSlug.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxNamePart {
		s = strings.TrimRight(s[:maxNamePart], "-")
	}
	if s == "" {
		return "na"
	}
	return s
}

// BuildFileName returns prefix_name_institution_event_millis_rand.ext. The
// random suffix keeps names unique within the same millisecond.
func BuildFileName(prefix, name, institution, event, ext string, now time.Time) string {
	parts := []string{
		Slug(prefix),
		Slug(name),
		Slug(institution),
		Slug(event),
		strconv.FormatInt(now.UnixMilli(), 10),
		strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
	}
	return strings.Join(parts, "_") + ext
}

// databaseSink keeps files as blobs and serves them from /files/{name}.
type databaseSink struct {
	repo domain.FileRepository
	now  func() time.Time
}

// NewDatabaseFileSink returns a FileSink storing blobs through repo.
func NewDatabaseFileSink(repo domain.FileRepository) domain.FileSink {
	return &databaseSink{repo: repo, now: time.Now}
}

func (s *databaseSink) Put(ctx context.Context, obj *domain.FileObject) (string, error) {
	f := &domain.StoredFile{
		Filename:     obj.Name,
		OriginalName: obj.OriginalName,
		ContentType:  obj.ContentType,
		Section:      obj.Section,
		Size:         int64(len(obj.Data)),
		Data:         obj.Data,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return "", fmt.Errorf("store file blob: %w", err)
	}
	return "/files/" + obj.Name, nil
}

type fileService struct {
	repo domain.FileRepository
}

// NewFileService returns a FileService over repo.
func NewFileService(repo domain.FileRepository) domain.FileService {
	return &fileService{repo: repo}
}

func (s *fileService) Get(ctx context.Context, filename string) (*domain.StoredFile, error) {
	return s.repo.GetByFilename(ctx, filename)
}

func (s *fileService) Delete(ctx context.Context, filename string) error {
	return s.repo.Delete(ctx, filename)
}
