package preview

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"admctl/internal/domain"
	"admctl/pkg/logger"
)

func testActivation() *domain.Activation {
	return &domain.Activation{
		ActivationDraft: domain.ActivationDraft{
			Name:                 "Launch poster",
			Description:          "Scan to play",
			TriggeringImageGhost: "https://cdn.example.com/img_ghost.png",
			VideoResource:        "cdn.example.com/clip.mp4",
		},
		ID:        "a1",
		QRCodeURL: "https://cdn.example.com/qr.png",
	}
}

func newTestServer(activation *domain.Activation, ghost []byte) *httptest.Server {
	s := New(activation, ghost, &logger.Logger{Logger: zap.NewNop()})
	return httptest.NewServer(s.Routes())
}

func TestPage_ShowsQRGhostAndResolvedVideoURL(t *testing.T) {
	ts := newTestServer(testActivation(), nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	html := string(body)
	assert.Contains(t, html, "Launch poster")
	assert.Contains(t, html, `src="https://cdn.example.com/qr.png"`)
	// No local ghost bytes: the stored URL is used.
	assert.Contains(t, html, `src="https://cdn.example.com/img_ghost.png"`)
	// Relative video reference resolved to https.
	assert.Contains(t, html, `src="https://cdn.example.com/clip.mp4"`)
}

func TestPage_PrefersLocalGhostBytes(t *testing.T) {
	ghost := []byte("\x89PNG\r\n\x1a\nfake")
	ts := newTestServer(testActivation(), ghost)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `src="/ghost.png"`)

	img, err := http.Get(ts.URL + "/ghost.png")
	require.NoError(t, err)
	defer img.Body.Close()

	require.Equal(t, http.StatusOK, img.StatusCode)
	data, err := io.ReadAll(img.Body)
	require.NoError(t, err)
	assert.Equal(t, ghost, data)
}

func TestGhostImage_NotFoundWithoutLocalBytes(t *testing.T) {
	ts := newTestServer(testActivation(), nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ghost.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
