package domain

import (
	"context"
	"time"
)

// StoredFile is a file persisted as a database blob.
type StoredFile struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	ContentType  string    `json:"contentType"`
	Section      string    `json:"section"`
	Size         int64     `json:"size"`
	Data         []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FileRepository defines blob storage for uploaded files.
type FileRepository interface {
	Create(ctx context.Context, f *StoredFile) error
	GetByFilename(ctx context.Context, filename string) (*StoredFile, error)
	Delete(ctx context.Context, filename string) error
}

// FileObject is a validated file ready for transfer to a sink.
type FileObject struct {
	Name         string
	OriginalName string
	ContentType  string
	Section      string
	Data         []byte
}

// FileSink transfers bytes to durable storage and returns a stable reference URL.
type FileSink interface {
	Put(ctx context.Context, obj *FileObject) (string, error)
}

// FileRelay validates uploads and relays them to the event's sink.
type FileRelay interface {
	// Relay returns "" with a nil error when file is nil and not required.
	Relay(ctx context.Context, event *Event, file *UploadedFile, prefix string, owner Participant, required bool) (string, error)
}

// FileService serves and deletes database-blob uploads.
type FileService interface {
	Get(ctx context.Context, filename string) (*StoredFile, error)
	Delete(ctx context.Context, filename string) error
}
