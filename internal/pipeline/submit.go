package pipeline

import (
	"context"

	"admctl/internal/domain"
	"admctl/internal/service"
	"admctl/pkg/errors"
	"admctl/pkg/logger"
)

// Submitter validates an assembled draft and dispatches it to the remote
// API as a create or an update.
type Submitter struct {
	writer service.ActivationWriter
	cache  *service.CacheService // nil when no cache backend is configured
	log    *logger.Logger
}

// NewSubmitter creates a submitter. cache may be nil.
func NewSubmitter(writer service.ActivationWriter, cache *service.CacheService, log *logger.Logger) *Submitter {
	return &Submitter{writer: writer, cache: cache, log: log}
}

// Submit performs one explicit submission of the draft held in state.
// activationID selects update mode when non-empty, create mode otherwise.
//
// Field validation runs first, then the resource checks; both abort before
// any network call. The update payload is always the full merged draft. On
// success the cached copy of the record is invalidated so subsequent reads
// see fresh data; on failure the draft is left untouched for a retry.
func (s *Submitter) Submit(ctx context.Context, state *DraftState, activationID string) (*domain.Activation, error) {
	draft := state.Snapshot()

	if err := draft.ValidateFields(); err != nil {
		return nil, err
	}

	if !draft.HasTriggeringImage() {
		state.setResourceError(errors.CodeMissingImage)
		return nil, errors.NewMissingImageError()
	}
	if !draft.HasVideo() {
		state.setResourceError(errors.CodeMissingVideo)
		return nil, errors.NewMissingVideoError()
	}

	var (
		activation *domain.Activation
		err        error
	)
	if activationID != "" {
		activation, err = s.writer.UpdateActivation(ctx, activationID, draft)
	} else {
		activation, err = s.writer.CreateActivation(ctx, draft)
	}
	if err != nil {
		s.log.WithError(err).Warn("Activation submission failed")
		return nil, err
	}

	if s.cache != nil {
		s.cache.InvalidateActivation(activation.ID)
	}

	s.log.WithFields(map[string]interface{}{
		"activation_id": activation.ID,
		"updated":       activationID != "",
	}).Info("Activation submitted")

	return activation, nil
}
