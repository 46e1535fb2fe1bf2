package pipeline

import (
	"sync"

	"admctl/internal/domain"
	"admctl/pkg/errors"
)

// Slot identifies one upload target on the draft.
type Slot string

const (
	SlotImage Slot = "image"
	SlotThumb Slot = "thumb"
	SlotGhost Slot = "ghost"
	SlotAR    Slot = "ar"
	SlotVideo Slot = "video"
)

// SlotStatus tracks one slot through its upload lifecycle.
type SlotStatus int

const (
	SlotEmpty SlotStatus = iota
	SlotUploading
	SlotUploaded
	SlotFailed
)

// DraftState owns the in-progress activation draft for one edit surface.
// Upload completions and field edits arrive from interleaved goroutines;
// every mutation goes through the mutex and applies against the latest
// committed state, so indexed merges never clobber each other.
type DraftState struct {
	mu sync.Mutex

	draft domain.ActivationDraft
	slots map[Slot]SlotStatus

	// resourceErr is the standing inline error condition. Cleared whenever
	// a form field changes.
	resourceErr errors.Code

	previewImage     []byte   // ghost derivative bytes for the live preview
	videoPreview     string   // local reference of the selected video
	externalPreviews []string // local references per external link index
}

// NewDraftState creates an empty draft (create mode).
func NewDraftState() *DraftState {
	return &DraftState{
		draft: domain.ActivationDraft{ExternalLinks: []domain.ExternalLink{}},
		slots: make(map[Slot]SlotStatus),
	}
}

// NewDraftStateFrom seeds a draft from a fetched record (edit mode).
// Already-populated asset fields count as uploaded.
func NewDraftStateFrom(activation *domain.Activation) *DraftState {
	s := NewDraftState()
	s.draft = activation.Draft()
	if s.draft.ExternalLinks == nil {
		s.draft.ExternalLinks = []domain.ExternalLink{}
	}

	seeded := map[Slot]string{
		SlotImage: s.draft.TriggeringImage,
		SlotThumb: s.draft.TriggeringImageThumb,
		SlotGhost: s.draft.TriggeringImageGhost,
		SlotAR:    s.draft.TriggeringImageAr,
		SlotVideo: s.draft.VideoResource,
	}
	for slot, url := range seeded {
		if url != "" {
			s.slots[slot] = SlotUploaded
		}
	}

	s.videoPreview = s.draft.VideoResource
	s.externalPreviews = make([]string, len(s.draft.ExternalLinks))
	for i, link := range s.draft.ExternalLinks {
		s.externalPreviews[i] = link.Image
	}
	return s
}

// Snapshot returns a deep copy of the current draft.
func (s *DraftState) Snapshot() domain.ActivationDraft {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.draft
	draft.ExternalLinks = append([]domain.ExternalLink(nil), s.draft.ExternalLinks...)
	return draft
}

// Status reports the upload lifecycle state of one slot.
func (s *DraftState) Status(slot Slot) SlotStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[slot]
}

// ResourceError returns the standing inline error condition, or "".
func (s *DraftState) ResourceError() errors.Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resourceErr
}

// Uploading reports whether any slot upload is still in flight.
func (s *DraftState) Uploading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, status := range s.slots {
		if status == SlotUploading {
			return true
		}
	}
	return false
}

// PreviewImage returns the local ghost preview bytes, if any.
func (s *DraftState) PreviewImage() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previewImage
}

// VideoPreview returns the local video reference, if any.
func (s *DraftState) VideoPreview() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoPreview
}

// ExternalPreviews returns a copy of the per-index local previews.
func (s *DraftState) ExternalPreviews() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.externalPreviews...)
}

// Form-field edits. Changing any form field clears the standing error, the
// way the dashboard dismisses its banner on the next input.

func (s *DraftState) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Name = name
	s.resourceErr = ""
}

func (s *DraftState) SetDescription(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Description = description
	s.resourceErr = ""
}

func (s *DraftState) SetCollection(collectionID *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Collection = collectionID
	s.resourceErr = ""
}

// AddExternalLink appends an empty link entry and returns its index.
func (s *DraftState) AddExternalLink() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.ExternalLinks = append(s.draft.ExternalLinks, domain.ExternalLink{})
	s.externalPreviews = append(s.externalPreviews, "")
	s.resourceErr = ""
	return len(s.draft.ExternalLinks) - 1
}

// RemoveExternalLink deletes the entry at index, preserving order of the
// rest. Out-of-range indices are ignored.
func (s *DraftState) RemoveExternalLink(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.draft.ExternalLinks) {
		return
	}
	s.draft.ExternalLinks = append(s.draft.ExternalLinks[:index], s.draft.ExternalLinks[index+1:]...)
	s.externalPreviews = append(s.externalPreviews[:index], s.externalPreviews[index+1:]...)
	s.resourceErr = ""
}

// SetExternalLinkFields updates the name and link of one entry.
func (s *DraftState) SetExternalLinkFields(index int, name, link string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.draft.ExternalLinks) {
		return
	}
	s.draft.ExternalLinks[index].Name = name
	s.draft.ExternalLinks[index].Link = link
	s.resourceErr = ""
}

// Commit paths used by the sequencer. These apply against the latest
// committed state under the lock; a stale caller cannot resurrect an old
// slice or overwrite a sibling index.

func (s *DraftState) beginUpload(slot Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot] = SlotUploading
}

func (s *DraftState) commitImageURL(slot Slot, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch slot {
	case SlotImage:
		s.draft.TriggeringImage = url
	case SlotThumb:
		s.draft.TriggeringImageThumb = url
	case SlotGhost:
		s.draft.TriggeringImageGhost = url
	case SlotAR:
		s.draft.TriggeringImageAr = url
	}
	s.slots[slot] = SlotUploaded
}

func (s *DraftState) commitVideoURL(url, localPreview string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.VideoResource = url
	s.videoPreview = localPreview
	s.slots[SlotVideo] = SlotUploaded
}

func (s *DraftState) commitGhostPreview(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previewImage = data
}

// commitExternalImage merges one resolved upload into the link at index. The
// merge targets the list as it exists now; concurrent resolutions for other
// indices are untouched. Links removed while the upload was in flight are
// dropped on the floor.
func (s *DraftState) commitExternalImage(index int, url, localPreview string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.draft.ExternalLinks) {
		return
	}
	s.draft.ExternalLinks[index].Image = url
	if index < len(s.externalPreviews) {
		s.externalPreviews[index] = localPreview
	}
}

func (s *DraftState) failUpload(slot Slot, code errors.Code) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot] = SlotFailed
	s.resourceErr = code
}

func (s *DraftState) setResourceError(code errors.Code) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resourceErr = code
}
