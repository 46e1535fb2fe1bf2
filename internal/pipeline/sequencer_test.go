package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"admctl/internal/domain"
	"admctl/pkg/errors"
	"admctl/pkg/logger"
)

// fakeUploader records upload calls in order and returns canned URLs. Uploads
// listed in failOn fail; a non-nil gate blocks every upload until released.
type fakeUploader struct {
	mu     sync.Mutex
	calls  []string
	failOn map[string]bool
	gate   chan struct{}
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{failOn: make(map[string]bool)}
}

func (f *fakeUploader) UploadAsset(ctx context.Context, filename string, data io.Reader) (*domain.UploadResult, error) {
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	f.calls = append(f.calls, filename)
	fail := f.failOn[filename]
	f.mu.Unlock()

	if _, err := io.Copy(io.Discard, data); err != nil {
		return nil, err
	}
	if fail {
		return nil, fmt.Errorf("server rejected %s", filename)
	}
	return &domain.UploadResult{URL: "https://cdn.example.com/" + filename, Message: "ok"}, nil
}

func (f *fakeUploader) callNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func nopLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestSequencer(t *testing.T, state *DraftState, uploader *fakeUploader) *Sequencer {
	t.Helper()
	seq := NewSequencer(context.Background(), state, uploader, nopLogger())
	seq.VideoDelay = time.Millisecond
	return seq
}

func TestImageChain_StrictOrderAndFields(t *testing.T) {
	state := NewDraftState()
	uploader := newFakeUploader()
	seq := newTestSequencer(t, state, uploader)

	seq.StartImageChain("trigger.png", pngBytes(t, 2000, 1000))
	seq.Wait()

	// Original first, then AR, ghost, thumb; never interleaved.
	assert.Equal(t, []string{
		"trigger.png",
		"trigger_ar.png",
		"trigger_ghost.png",
		"trigger_thumb.png",
	}, uploader.callNames())

	draft := state.Snapshot()
	assert.Equal(t, "https://cdn.example.com/trigger.png", draft.TriggeringImage)
	assert.Equal(t, "https://cdn.example.com/trigger_ar.png", draft.TriggeringImageAr)
	assert.Equal(t, "https://cdn.example.com/trigger_ghost.png", draft.TriggeringImageGhost)
	assert.Equal(t, "https://cdn.example.com/trigger_thumb.png", draft.TriggeringImageThumb)
	assert.True(t, draft.ImageSetComplete())

	for _, slot := range []Slot{SlotImage, SlotAR, SlotGhost, SlotThumb} {
		assert.Equal(t, SlotUploaded, state.Status(slot), string(slot))
	}
	assert.Empty(t, state.ResourceError())
}

func TestImageChain_GhostPreviewCaptured(t *testing.T) {
	state := NewDraftState()
	uploader := newFakeUploader()
	seq := newTestSequencer(t, state, uploader)

	seq.StartImageChain("trigger.png", pngBytes(t, 2000, 1000))
	seq.Wait()

	preview := state.PreviewImage()
	require.NotEmpty(t, preview)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(preview))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 600, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}

func TestImageChain_FailureAtARStopsChainWithoutRollback(t *testing.T) {
	state := NewDraftState()
	uploader := newFakeUploader()
	uploader.failOn["trigger_ar.png"] = true
	seq := newTestSequencer(t, state, uploader)

	seq.StartImageChain("trigger.png", pngBytes(t, 400, 400))
	seq.Wait()

	// Ghost and thumb are never attempted.
	assert.Equal(t, []string{"trigger.png", "trigger_ar.png"}, uploader.callNames())

	// The already-committed original stays; no rollback.
	draft := state.Snapshot()
	assert.NotEmpty(t, draft.TriggeringImage)
	assert.Empty(t, draft.TriggeringImageAr)
	assert.Empty(t, draft.TriggeringImageGhost)
	assert.Empty(t, draft.TriggeringImageThumb)
	assert.False(t, draft.ImageSetComplete())

	assert.Equal(t, SlotFailed, state.Status(SlotAR))
	assert.Equal(t, errors.CodeUpload, state.ResourceError())
}

func TestImageChain_OriginalFailureStopsEverything(t *testing.T) {
	state := NewDraftState()
	uploader := newFakeUploader()
	uploader.failOn["trigger.png"] = true
	seq := newTestSequencer(t, state, uploader)

	seq.StartImageChain("trigger.png", pngBytes(t, 400, 400))
	seq.Wait()

	assert.Equal(t, []string{"trigger.png"}, uploader.callNames())
	assert.Equal(t, SlotFailed, state.Status(SlotImage))
	assert.Empty(t, state.Snapshot().TriggeringImage)
}

func TestImageChain_UndecodableSourceFailsDerivativeStep(t *testing.T) {
	state := NewDraftState()
	uploader := newFakeUploader()
	seq := newTestSequencer(t, state, uploader)

	// The raw upload succeeds (bytes are bytes); the AR derivative cannot
	// be cut from an undecodable source.
	seq.StartImageChain("trigger.png", []byte("not an image"))
	seq.Wait()

	assert.Equal(t, []string{"trigger.png"}, uploader.callNames())
	assert.NotEmpty(t, state.Snapshot().TriggeringImage)
	assert.Equal(t, SlotFailed, state.Status(SlotAR))
	assert.Equal(t, errors.CodeDecode, state.ResourceError())
}

func TestVideoUpload_AtCeilingNeverAttempted(t *testing.T) {
	state := NewDraftState()
	uploader := newFakeUploader()
	seq := newTestSequencer(t, state, uploader)

	opened := false
	seq.StartVideoUpload("big.mp4", domain.MaxVideoBytes, func() (io.ReadCloser, error) {
		opened = true
		return io.NopCloser(strings.NewReader("")), nil
	})
	seq.Wait()

	assert.Empty(t, uploader.callNames())
	assert.False(t, opened)
	assert.Equal(t, errors.CodeVideoTooBig, state.ResourceError())
	assert.Equal(t, SlotFailed, state.Status(SlotVideo))
	assert.Empty(t, state.Snapshot().VideoResource)
}

func TestVideoUpload_JustUnderCeilingProceeds(t *testing.T) {
	state := NewDraftState()
	uploader := newFakeUploader()
	seq := newTestSequencer(t, state, uploader)

	seq.StartVideoUpload("clip.mp4", domain.MaxVideoBytes-1, func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("video-bytes")), nil
	})
	seq.Wait()

	assert.Equal(t, []string{"clip.mp4"}, uploader.callNames())
	assert.Equal(t, "https://cdn.example.com/clip.mp4", state.Snapshot().VideoResource)
	assert.Equal(t, "clip.mp4", state.VideoPreview())
	assert.Equal(t, SlotUploaded, state.Status(SlotVideo))
}

func TestVideoUpload_DeferredBySettleDelay(t *testing.T) {
	state := NewDraftState()
	uploader := newFakeUploader()
	seq := newTestSequencer(t, state, uploader)
	seq.VideoDelay = 100 * time.Millisecond

	seq.StartVideoUpload("clip.mp4", 1024, func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("v")), nil
	})

	// Nothing fires before the delay elapses.
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, uploader.callNames())

	seq.Wait()
	assert.Equal(t, []string{"clip.mp4"}, uploader.callNames())
}

func TestExternalImage_IndexIsolation(t *testing.T) {
	state := NewDraftState()
	state.AddExternalLink()
	state.AddExternalLink()
	state.SetExternalLinkFields(0, "first", "https://example.com/0")
	state.SetExternalLinkFields(1, "second", "https://example.com/1")

	uploader := newFakeUploader()
	seq := newTestSequencer(t, state, uploader)

	seq.UploadExternalImage(0, "zero.png", pngBytes(t, 10, 10))
	seq.UploadExternalImage(1, "one.png", pngBytes(t, 10, 10))
	seq.Wait()

	draft := state.Snapshot()
	assert.Equal(t, "https://cdn.example.com/zero.png", draft.ExternalLinks[0].Image)
	assert.Equal(t, "https://cdn.example.com/one.png", draft.ExternalLinks[1].Image)

	// Text fields untouched by the merges.
	assert.Equal(t, "first", draft.ExternalLinks[0].Name)
	assert.Equal(t, "second", draft.ExternalLinks[1].Name)
}

func TestExternalImage_UploadForOneIndexLeavesOthersUnchanged(t *testing.T) {
	state := NewDraftState()
	state.AddExternalLink()
	state.AddExternalLink()
	state.commitExternalImage(0, "https://cdn.example.com/existing.png", "existing.png")

	uploader := newFakeUploader()
	seq := newTestSequencer(t, state, uploader)

	seq.UploadExternalImage(1, "new.png", pngBytes(t, 10, 10))
	seq.Wait()

	draft := state.Snapshot()
	assert.Equal(t, "https://cdn.example.com/existing.png", draft.ExternalLinks[0].Image)
	assert.Equal(t, "https://cdn.example.com/new.png", draft.ExternalLinks[1].Image)
}

func TestExternalImage_FailureRaisesErrorWithoutFailingSlots(t *testing.T) {
	state := NewDraftState()
	state.AddExternalLink()

	uploader := newFakeUploader()
	uploader.failOn["ext.png"] = true
	seq := newTestSequencer(t, state, uploader)

	seq.UploadExternalImage(0, "ext.png", pngBytes(t, 10, 10))
	seq.Wait()

	// The standing error blocks submission, but no asset slot is marked
	// failed: the trigger image and video are untouched by link uploads.
	assert.Equal(t, errors.CodeUpload, state.ResourceError())
	assert.Equal(t, SlotEmpty, state.Status(SlotImage))
	assert.Equal(t, SlotEmpty, state.Status(SlotVideo))
	assert.Empty(t, state.Snapshot().ExternalLinks[0].Image)
}

func TestTornDownScopeDropsLateCommits(t *testing.T) {
	state := NewDraftState()
	uploader := newFakeUploader()
	uploader.gate = make(chan struct{})

	scope, cancel := context.WithCancel(context.Background())
	seq := NewSequencer(scope, state, uploader, nopLogger())
	seq.VideoDelay = time.Millisecond

	seq.StartImageChain("trigger.png", pngBytes(t, 100, 100))

	// Tear down the surface while the original upload is still in flight,
	// then let it finish.
	cancel()
	close(uploader.gate)
	seq.Wait()

	assert.Empty(t, state.Snapshot().TriggeringImage)
	assert.Empty(t, state.ResourceError())
}

func TestVideoAndImageChainRunIndependently(t *testing.T) {
	state := NewDraftState()
	uploader := newFakeUploader()
	seq := newTestSequencer(t, state, uploader)

	seq.StartImageChain("trigger.png", pngBytes(t, 800, 400))
	seq.StartVideoUpload("clip.mp4", 1024, func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("v")), nil
	})
	seq.Wait()

	draft := state.Snapshot()
	assert.True(t, draft.ImageSetComplete())
	assert.NotEmpty(t, draft.TriggeringImage)
	assert.NotEmpty(t, draft.VideoResource)
}
