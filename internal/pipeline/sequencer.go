package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"admctl/internal/domain"
	"admctl/internal/imaging"
	"admctl/internal/service"
	"admctl/pkg/errors"
	"admctl/pkg/logger"
)

// DefaultVideoDelay is the settle delay between selecting a video and
// starting its upload. Not a timing contract, just breathing room for the
// surface that triggered the selection.
const DefaultVideoDelay = 500 * time.Millisecond

// Sequencer orchestrates the asset uploads for one draft. The trigger-image
// chain is strictly ordered: original, then AR, ghost and thumb, each
// derivative cut from the original bytes. Video and external-link uploads run
// independently of the chain and of each other.
//
// The scope context is the edit surface's lifetime: once it is cancelled,
// in-flight uploads are not aborted but their results are no longer
// committed into the draft.
type Sequencer struct {
	state    *DraftState
	uploader service.Uploader
	log      *logger.Logger
	scope    context.Context

	// VideoDelay overrides DefaultVideoDelay; tests shrink it.
	VideoDelay time.Duration

	wg sync.WaitGroup
}

// NewSequencer creates a sequencer bound to one draft and upload endpoint.
func NewSequencer(scope context.Context, state *DraftState, uploader service.Uploader, log *logger.Logger) *Sequencer {
	return &Sequencer{
		state:      state,
		uploader:   uploader,
		log:        log,
		scope:      scope,
		VideoDelay: DefaultVideoDelay,
	}
}

// Wait blocks until every started upload has resolved or been dropped.
func (s *Sequencer) Wait() {
	s.wg.Wait()
}

// StartImageChain begins the trigger-image pipeline for a newly selected
// source image. Steps run strictly in order; a failed step surfaces its
// error and stops the chain without rolling back fields committed by earlier
// steps. Re-selecting a file restarts the whole chain from the original.
func (s *Sequencer) StartImageChain(filename string, src []byte) {
	s.state.beginUpload(SlotImage)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// Original bytes first; derivatives only start once the original
		// upload has resolved.
		result, err := s.uploader.UploadAsset(s.scope, filename, bytes.NewReader(src))
		if err != nil {
			s.failSlot(SlotImage, errors.NewUploadError(string(SlotImage), err))
			return
		}
		if !s.alive() {
			return
		}
		s.state.commitImageURL(SlotImage, result.URL)

		if !s.deriveAndUpload(SlotAR, filename, src, imaging.ARSize, nil) {
			return
		}
		if !s.deriveAndUpload(SlotGhost, filename, src, imaging.GhostSize, s.state.commitGhostPreview) {
			return
		}
		s.deriveAndUpload(SlotThumb, filename, src, imaging.ThumbSize, nil)
	}()
}

// deriveAndUpload cuts one derivative from the original bytes and uploads
// it. Returns false when the chain must stop (failure or torn-down scope).
func (s *Sequencer) deriveAndUpload(slot Slot, filename string, src []byte, size imaging.Size, preview func([]byte)) bool {
	s.state.beginUpload(slot)

	derived, err := imaging.Resize(src, size)
	if err != nil {
		s.failSlot(slot, err)
		return false
	}

	result, err := s.uploader.UploadAsset(s.scope, derivativeName(filename, slot), bytes.NewReader(derived.Data))
	if err != nil {
		s.failSlot(slot, errors.NewUploadError(string(slot), err))
		return false
	}
	if !s.alive() {
		return false
	}

	s.state.commitImageURL(slot, result.URL)
	if preview != nil {
		preview(derived.Data)
	}

	s.log.WithFields(map[string]interface{}{
		"slot":   string(slot),
		"width":  derived.Width,
		"height": derived.Height,
	}).Debug("Derivative uploaded")
	return true
}

// StartVideoUpload schedules the raw video upload after the settle delay.
// size is the raw file size in bytes and is checked against the ceiling
// before any bytes leave the machine; at or above the ceiling open is never
// called and the upload is never attempted.
func (s *Sequencer) StartVideoUpload(filename string, size int64, open func() (io.ReadCloser, error)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(s.VideoDelay)
		defer timer.Stop()
		select {
		case <-s.scope.Done():
			return
		case <-timer.C:
		}

		if size >= domain.MaxVideoBytes {
			s.state.failUpload(SlotVideo, errors.CodeVideoTooBig)
			s.log.WithFields(map[string]interface{}{
				"filename": filename,
				"size":     size,
			}).Warn("Video exceeds upload ceiling, upload not attempted")
			return
		}

		s.state.beginUpload(SlotVideo)

		source, err := open()
		if err != nil {
			s.failSlot(SlotVideo, errors.NewUploadError(string(SlotVideo), err))
			return
		}
		defer source.Close()

		result, err := s.uploader.UploadAsset(s.scope, filename, source)
		if err != nil {
			s.failSlot(SlotVideo, errors.NewUploadError(string(SlotVideo), err))
			return
		}
		if !s.alive() {
			return
		}
		s.state.commitVideoURL(result.URL, filename)
	}()
}

// UploadExternalImage uploads one external-link image and merges the
// resulting URL at the given index. Independent of every other slot: a
// failure here neither halts the chain nor marks the image/video slots, but
// it does raise the standing error so the draft cannot be submitted with a
// silently missing link image.
func (s *Sequencer) UploadExternalImage(index int, filename string, src []byte) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		result, err := s.uploader.UploadAsset(s.scope, filename, bytes.NewReader(src))
		if err != nil {
			s.log.WithFields(map[string]interface{}{
				"index":    index,
				"filename": filename,
			}).WithError(err).Warn("External image upload failed")
			if s.alive() {
				s.state.setResourceError(errors.CodeUpload)
			}
			return
		}
		if !s.alive() {
			return
		}
		s.state.commitExternalImage(index, result.URL, filename)
	}()
}

// alive reports whether the edit surface still exists. Late completions
// after teardown are dropped rather than committed.
func (s *Sequencer) alive() bool {
	return s.scope.Err() == nil
}

// failSlot records a failure unless the surface is already gone.
func (s *Sequencer) failSlot(slot Slot, err error) {
	if !s.alive() {
		return
	}
	code := errors.CodeOf(err)
	if code == "" {
		code = errors.CodeUpload
	}
	s.state.failUpload(slot, code)
	s.log.WithField("slot", string(slot)).WithError(err).Warn("Upload failed")
}

// derivativeName tags a derivative filename with its slot, keeping the
// original extension so the stored object's type stays recognizable.
func derivativeName(filename string, slot Slot) string {
	ext := path.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	return fmt.Sprintf("%s_%s%s", base, slot, ext)
}
