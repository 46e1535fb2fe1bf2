package preview

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"admctl/internal/domain"
	"admctl/pkg/logger"
)

// Server is a small read-only localhost server showing one submitted
// activation: its QR code, the ghost preview and the video. It exists so the
// operator can eyeball the result of a create or update without leaving the
// terminal.
type Server struct {
	activation *domain.Activation
	ghost      []byte // local ghost derivative bytes, may be nil
	log        *logger.Logger
}

// New creates a preview server for one activation. ghost carries the locally
// cut ghost derivative when the record was just assembled; pass nil to fall
// back to the stored ghost URL.
func New(activation *domain.Activation, ghost []byte, log *logger.Logger) *Server {
	return &Server{activation: activation, ghost: ghost, log: log}
}

// Routes builds the router. Split out so tests can drive it with httptest.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(10 * time.Second))

	r.Get("/", s.page)
	r.Get("/ghost.png", s.ghostImage)
	return r
}

// Serve runs the server on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.log.WithField("addr", addr).Info("Preview server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

var pageTemplate = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Name}}</title></head>
<body>
<h1>{{.Name}}</h1>
<p>{{.Description}}</p>
<section>
  <h2>QR code</h2>
  <img id="qr" src="{{.QRCodeURL}}" alt="QR code">
</section>
<section>
  <h2>Ghost preview</h2>
  <img id="ghost" src="{{.GhostURL}}" alt="ghost preview">
</section>
<section>
  <h2>Video</h2>
  <video id="video" src="{{.VideoURL}}" controls></video>
</section>
</body>
</html>
`))

type pageData struct {
	Name        string
	Description string
	QRCodeURL   string
	GhostURL    string
	VideoURL    string
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	ghostURL := s.activation.TriggeringImageGhost
	if len(s.ghost) > 0 {
		ghostURL = "/ghost.png"
	}

	data := pageData{
		Name:        s.activation.Name,
		Description: s.activation.Description,
		QRCodeURL:   s.activation.QRCodeURL,
		GhostURL:    ghostURL,
		VideoURL:    domain.BuildVideoURL(s.activation.VideoResource),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.log.WithError(err).Error("Failed to render preview page")
	}
}

func (s *Server) ghostImage(w http.ResponseWriter, r *http.Request) {
	if len(s.ghost) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(s.ghost))
	if _, err := w.Write(s.ghost); err != nil {
		s.log.WithError(err).Error("Failed to write ghost preview")
	}
}
