package workflow

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/domain/estimate"
	"github.com/wardadevcode/buildwise-backend/internal/domain/policy"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
	"github.com/wardadevcode/buildwise-backend/internal/repository"
)

// MaxDocumentSize caps a single upload.
const MaxDocumentSize = 25 << 20

// DocumentUpload is a file attached to a project, optionally as the document
// of one of its estimates.
type DocumentUpload struct {
	ProjectID   string
	EstimateID  string
	Name        string
	ContentType string
	Data        []byte
}

// AttachDocument stores the upload in blob storage and records it against
// the project. The blob is written before the unit of work starts; a failed
// commit leaves an unreferenced blob behind.
func (e *Engine) AttachDocument(ctx context.Context, a actor.Actor, up DocumentUpload) (*project.Attachment, error) {
	if e.blobs == nil {
		return nil, errors.New("workflow: blob storage is not configured")
	}
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(up.Name), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return nil, fmt.Errorf("%w: document name is required", ErrInvalidInput)
	}
	if len(up.Data) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrInvalidInput)
	}
	if len(up.Data) > MaxDocumentSize {
		return nil, fmt.Errorf("%w: document exceeds %d bytes", ErrInvalidInput, MaxDocumentSize)
	}
	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var out *project.Attachment
	err := e.run(ctx, "attach_document", up.ProjectID, func(ctx context.Context) error {
		err := e.uow.Do(ctx, func(r Repositories) error {
			proj, err := loadProject(ctx, r, up.ProjectID)
			if err != nil {
				return err
			}
			return e.policy.Authorize(a, policy.OpUploadAttachment, proj.Scope())
		})
		if err != nil {
			return err
		}

		att := &project.Attachment{
			ID:          e.newID(),
			ProjectID:   up.ProjectID,
			EstimateID:  up.EstimateID,
			Name:        name,
			ContentType: contentType,
			Size:        int64(len(up.Data)),
			UploadedBy:  a.DisplayName(),
			CreatedAt:   e.now(),
		}
		url, err := e.blobs.Put(ctx, path.Join("projects", att.ProjectID, att.ID, name), contentType, up.Data)
		if err != nil {
			return fmt.Errorf("storing document: %w", err)
		}
		att.URL = url

		return e.retry(ctx, "attach_document", func(ctx context.Context, r Repositories) error {
			if att.EstimateID != "" {
				est, err := r.Estimates.Get(ctx, att.EstimateID)
				if err != nil {
					if errors.Is(err, repository.ErrNotFound) {
						return estimate.ErrEstimateNotFound
					}
					return fmt.Errorf("getting estimate: %w", err)
				}
				if est.ProjectID != att.ProjectID {
					return fmt.Errorf("%w: estimate belongs to another project", ErrInvalidInput)
				}
				if err := r.Estimates.SetDocumentURL(ctx, est.ID, url); err != nil {
					return fmt.Errorf("linking estimate document: %w", err)
				}
			}
			if err := r.Projects.AddAttachment(ctx, att); err != nil {
				return fmt.Errorf("adding attachment: %w", err)
			}
			if err := e.record(ctx, r, att.ProjectID, timeline.TypeDocument, a, att.CreatedAt,
				fmt.Sprintf("Document %q uploaded by %s", att.Name, a.DisplayName())); err != nil {
				return err
			}
			out = att
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
