package listing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"propscout/internal/catalog"
)

// Catalog is the slice of the catalog client the workflow needs.
type Catalog interface {
	CreateProperty(ctx context.Context, req catalog.CreateRequest) (string, error)
	AttachMedia(ctx context.Context, propertyID string, files []catalog.MediaFile) error
}

// Status tags the overall outcome of a submission.
type Status int

const (
	// StatusCreated: listing created and, when a batch was staged, all media
	// attached.
	StatusCreated Status = iota
	// StatusMediaFailed: the listing exists on the server but the media batch
	// could not be attached. The caller may retry the attachment alone.
	StatusMediaFailed
)

// Result is the outcome of a completed submission. A media failure is a
// distinct outcome, not an error: the listing was created and its id is
// valid.
type Result struct {
	Status     Status
	PropertyID string
	// MediaErr holds the attach failure when Status is StatusMediaFailed.
	MediaErr error
}

// Workflow validates a draft and runs the two-phase submission against the
// catalog. The submitter identity is fixed at construction rather than read
// from ambient state.
type Workflow struct {
	client Catalog
	userID string
	logger *zap.Logger
}

// NewWorkflow creates a submission workflow for one submitter.
func NewWorkflow(client Catalog, userID string, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{client: client, userID: userID, logger: logger}
}

// Submit runs the full submission:
//
//  1. Normalize and validate the draft. A validation failure is returned
//     before any network call and the draft is untouched.
//  2. Create the listing (no media). On failure the whole workflow aborts:
//     no media upload is attempted and the draft stays intact for retry.
//  3. Attach the staged media batch, if any. On failure the listing already
//     exists, so the result is StatusMediaFailed with the created id and the
//     draft is NOT reset.
//
// On full success the draft is reset to defaults (the submitter identity is
// workflow state and survives for the next listing).
func (w *Workflow) Submit(ctx context.Context, draft *Draft) (*Result, error) {
	req, err := draft.Normalize(w.userID)
	if err != nil {
		return nil, err
	}

	id, err := w.client.CreateProperty(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	w.logger.Info("listing created", zap.String("id", id), zap.String("user", w.userID))

	if len(draft.Images) > 0 {
		if err := w.client.AttachMedia(ctx, id, draft.Images); err != nil {
			w.logger.Warn("media attach failed after create",
				zap.String("id", id), zap.Error(err))
			return &Result{Status: StatusMediaFailed, PropertyID: id, MediaErr: err}, nil
		}
	}

	draft.Reset()
	return &Result{Status: StatusCreated, PropertyID: id}, nil
}

// RetryMedia retries only the media attachment for a listing whose create
// phase already succeeded. On success the draft is reset as a normal
// completion.
func (w *Workflow) RetryMedia(ctx context.Context, draft *Draft, propertyID string) (*Result, error) {
	if err := w.client.AttachMedia(ctx, propertyID, draft.Images); err != nil {
		return &Result{Status: StatusMediaFailed, PropertyID: propertyID, MediaErr: err}, nil
	}
	draft.Reset()
	return &Result{Status: StatusCreated, PropertyID: propertyID}, nil
}
