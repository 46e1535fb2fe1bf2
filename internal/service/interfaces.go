package service

import (
	"context"
	"io"

	"admctl/internal/domain"
)

// Uploader posts one raw asset to the remote object-upload endpoint and
// returns the public URL of the stored copy.
type Uploader interface {
	UploadAsset(ctx context.Context, filename string, data io.Reader) (*domain.UploadResult, error)
}

// ActivationWriter dispatches create or update requests for one record.
type ActivationWriter interface {
	CreateActivation(ctx context.Context, draft domain.ActivationDraft) (*domain.Activation, error)
	UpdateActivation(ctx context.Context, activationID string, draft domain.ActivationDraft) (*domain.Activation, error)
}

// ActivationReader fetches canonical records.
type ActivationReader interface {
	GetActivation(ctx context.Context, activationID string) (*domain.Activation, error)
	ListActivations(ctx context.Context, partnerID string) ([]domain.Activation, error)
}
