package google

import (
	"bytes"
	"context"
	"fmt"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"eventregistration/internal/domain"
)

// driveAPI is the subset of the Drive API the sink needs.
type driveAPI interface {
	Upload(ctx context.Context, folderID string, obj *domain.FileObject) (id, link string, err error)
	ShareWithAnyone(ctx context.Context, fileID string) error
}

type serviceDrive struct {
	svc *drive.Service
}

func (d *serviceDrive) Upload(ctx context.Context, folderID string, obj *domain.FileObject) (string, string, error) {
	f := &drive.File{Name: obj.Name, MimeType: obj.ContentType}
	if folderID != "" {
		f.Parents = []string{folderID}
	}
	created, err := d.svc.Files.Create(f).
		Media(bytes.NewReader(obj.Data), googleapi.ContentType(obj.ContentType)).
		Fields("id", "webViewLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", "", err
	}
	return created.Id, created.WebViewLink, nil
}

func (d *serviceDrive) ShareWithAnyone(ctx context.Context, fileID string) error {
	_, err := d.svc.Permissions.Create(fileID, &drive.Permission{Type: "anyone", Role: "reader"}).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	return err
}

// DriveSink stores files in a Drive folder and returns a public view link.
type DriveSink struct {
	connect  func(ctx context.Context) (driveAPI, error)
	folderID string
}

var _ domain.FileSink = (*DriveSink)(nil)

// NewDriveSink returns a sink uploading into folderID with the provider's credential.
func NewDriveSink(provider *ClientProvider, folderID string) *DriveSink {
	return &DriveSink{
		connect: func(ctx context.Context) (driveAPI, error) {
			c, err := provider.Clients(ctx)
			if err != nil {
				return nil, err
			}
			return &serviceDrive{svc: c.Drive}, nil
		},
		folderID: folderID,
	}
}

func (s *DriveSink) Put(ctx context.Context, obj *domain.FileObject) (string, error) {
	api, err := s.connect(ctx)
	if err != nil {
		return "", err
	}
	id, link, err := api.Upload(ctx, s.folderID, obj)
	if err != nil {
		return "", fmt.Errorf("drive upload %s: %w", obj.Name, err)
	}
	if err := api.ShareWithAnyone(ctx, id); err != nil {
		return "", fmt.Errorf("drive share %s: %w", obj.Name, err)
	}
	if link == "" {
		link = "https://drive.google.com/file/d/" + id + "/view"
	}
	return link, nil
}
