package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"admctl/pkg/errors"
)

// Field limits enforced before any submission is dispatched.
const (
	MaxNameLength        = 25
	MaxDescriptionLength = 250
)

// MaxVideoBytes is the upload ceiling for video resources. Files at or above
// this size are rejected before any network call.
const MaxVideoBytes int64 = 25_000_000

const (
	httpPrefix  = "http://"
	httpsPrefix = "https://"
)

// ExternalLink is a free-form auxiliary reference attached to an activation.
// Order is user-significant and duplicates are permitted.
type ExternalLink struct {
	Image string `json:"image"`
	Link  string `json:"link"`
	Name  string `json:"name"`
}

// UploadResult is the per-asset response of the remote upload endpoint.
type UploadResult struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// ActivationDraft is the client-held, in-progress representation of an
// activation being created or edited. Image URL fields are populated
// one-by-one as the upload pipeline resolves.
type ActivationDraft struct {
	Name                 string         `json:"name"`
	Description          string         `json:"description"`
	TriggeringImage      string         `json:"triggeringImage"`
	TriggeringImageThumb string         `json:"triggeringImageThumb"`
	TriggeringImageGhost string         `json:"triggeringImageGhost"`
	TriggeringImageAr    string         `json:"triggeringImageAr"`
	VideoResource        string         `json:"videoResource"`
	ExternalLinks        []ExternalLink `json:"externalLinks"`
	Collection           *string        `json:"collection"`
}

// Activation is the server-canonical record. The counters are owned by the
// server and never written from this client.
type Activation struct {
	ActivationDraft
	ID         string `json:"_id"`
	QRCodeURL  string `json:"qrCodeUrl"`
	TotalViews int    `json:"totalViews"`
	TotalScans int    `json:"totalScans"`
	TotalLikes int    `json:"totalLikes"`
	CreatedAt  string `json:"createdAt"`
}

// Draft seeds an editable draft from a fetched record.
func (a *Activation) Draft() ActivationDraft {
	d := a.ActivationDraft
	d.ExternalLinks = append([]ExternalLink(nil), a.ExternalLinks...)
	return d
}

// ValidateFields enforces the form-level constraints on name and description.
// These run before the resource checks and before any network call.
func (d *ActivationDraft) ValidateFields() error {
	if d.Name == "" {
		return errors.NewValidationError("name is required")
	}
	if utf8.RuneCountInString(d.Name) > MaxNameLength {
		return errors.NewValidationError(fmt.Sprintf("name must not exceed %d characters", MaxNameLength))
	}
	if d.Description == "" {
		return errors.NewValidationError("description is required")
	}
	if utf8.RuneCountInString(d.Description) > MaxDescriptionLength {
		return errors.NewValidationError(fmt.Sprintf("description must not exceed %d characters", MaxDescriptionLength))
	}
	return nil
}

// HasTriggeringImage reports whether the original trigger image upload has
// resolved.
func (d *ActivationDraft) HasTriggeringImage() bool {
	return d.TriggeringImage != ""
}

// HasVideo reports whether the video upload has resolved.
func (d *ActivationDraft) HasVideo() bool {
	return d.VideoResource != ""
}

// ImageSetComplete reports whether the derivative pipeline has finished: the
// four image URL fields are either all empty or all populated. A partially
// populated set means a chain is still in flight or has failed midway.
func (d *ActivationDraft) ImageSetComplete() bool {
	fields := []string{
		d.TriggeringImage,
		d.TriggeringImageThumb,
		d.TriggeringImageGhost,
		d.TriggeringImageAr,
	}
	populated := 0
	for _, f := range fields {
		if f != "" {
			populated++
		}
	}
	return populated == 0 || populated == len(fields)
}

// BuildVideoURL resolves a stored video reference for playback. Absolute
// http(s) references are used verbatim; anything else is treated as a
// relative path and prefixed with https://.
func BuildVideoURL(videoResource string) string {
	if videoResource == "" {
		return videoResource
	}
	if strings.HasPrefix(videoResource, httpPrefix) || strings.HasPrefix(videoResource, httpsPrefix) {
		return videoResource
	}
	return httpsPrefix + videoResource
}
