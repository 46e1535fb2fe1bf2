package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"admctl/internal/config"
	"admctl/internal/domain"
	"admctl/internal/session"
	"admctl/pkg/errors"
	"admctl/pkg/logger"
)

// Endpoint paths of the remote activation API.
const (
	uploadPath               = "/api/upload"
	activationsCreatePath    = "/api/activations"
	activationsByIDPath      = "/api/activations/id/"
	activationsByPartnerPath = "/api/activations/partner/"
	collectionsCreatePath    = "/api/collections"
	collectionsByPartnerPath = "/api/collections/partner/"
	partnersPath             = "/api/partners"
	usersPath                = "/api/users"
	currentUserPath          = "/api/users/me"
	userStatsPath            = "/api/users/me/stats"
	loginPath                = "/api/auth/login"
)

// APIClient handles all interactions with the remote activation API. Every
// authorized call carries the session's bearer token; failures are terminal
// per call (no retries anywhere in the upload or submission paths).
type APIClient struct {
	baseURL    string
	httpClient *http.Client // bearer-injecting transport
	plainHTTP  *http.Client // unauthenticated, for login only
	log        *logger.Logger
}

// NewAPIClient creates a client bound to the configured server and session.
func NewAPIClient(cfg *config.Config, sess *session.Session, log *logger.Logger) *APIClient {
	base := &http.Client{Timeout: 60 * time.Second}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	return &APIClient{
		baseURL:    cfg.ServerURL,
		httpClient: oauth2.NewClient(ctx, sess.TokenSource()),
		plainHTTP:  base,
		log:        log,
	}
}

// Login exchanges credentials for a bearer token. The only unauthenticated
// call in the client.
func (c *APIClient) Login(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.plainHTTP.Do(req)
	if err != nil {
		return nil, errors.NewExternalError("login request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errors.NewAuthenticationError("invalid credentials")
	}
	if resp.StatusCode >= 300 {
		return nil, statusError(loginPath, resp)
	}

	var login domain.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return nil, errors.NewExternalError("failed to parse login response", err)
	}
	return &login, nil
}

// UploadAsset posts one file to the upload endpoint as multipart form data
// under the field name "file" and returns the public URL of the stored copy.
func (c *APIClient) UploadAsset(ctx context.Context, filename string, data io.Reader) (*domain.UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, fmt.Errorf("failed to read asset: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	requestID := uuid.NewString()
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewExternalError("upload request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, statusError(uploadPath, resp)
	}

	var result domain.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.NewExternalError("failed to parse upload response", err)
	}

	c.log.WithFields(map[string]interface{}{
		"request_id": requestID,
		"filename":   filename,
		"duration":   time.Since(start),
	}).Debug("Asset uploaded")

	return &result, nil
}

// Activations

// CreateActivation issues a create request with the full draft payload.
func (c *APIClient) CreateActivation(ctx context.Context, draft domain.ActivationDraft) (*domain.Activation, error) {
	var activation domain.Activation
	if err := c.doJSON(ctx, http.MethodPost, activationsCreatePath, draft, &activation); err != nil {
		return nil, err
	}
	return &activation, nil
}

// UpdateActivation issues an update keyed by the record's identifier. The
// payload is the full merged draft, not a diff.
func (c *APIClient) UpdateActivation(ctx context.Context, activationID string, draft domain.ActivationDraft) (*domain.Activation, error) {
	var activation domain.Activation
	if err := c.doJSON(ctx, http.MethodPatch, activationsByIDPath+activationID, draft, &activation); err != nil {
		return nil, err
	}
	return &activation, nil
}

// GetActivation fetches a single record.
func (c *APIClient) GetActivation(ctx context.Context, activationID string) (*domain.Activation, error) {
	var activation domain.Activation
	if err := c.doJSON(ctx, http.MethodGet, activationsByIDPath+activationID, nil, &activation); err != nil {
		return nil, err
	}
	return &activation, nil
}

// ListActivations fetches all activations owned by a partner.
func (c *APIClient) ListActivations(ctx context.Context, partnerID string) ([]domain.Activation, error) {
	var activations []domain.Activation
	if err := c.doJSON(ctx, http.MethodGet, activationsByPartnerPath+partnerID, nil, &activations); err != nil {
		return nil, err
	}
	return activations, nil
}

// DeleteActivation removes a record.
func (c *APIClient) DeleteActivation(ctx context.Context, activationID string) error {
	return c.doJSON(ctx, http.MethodDelete, activationsByIDPath+activationID, nil, nil)
}

// Collections

func (c *APIClient) ListCollections(ctx context.Context, partnerID string) ([]domain.Collection, error) {
	var collections []domain.Collection
	if err := c.doJSON(ctx, http.MethodGet, collectionsByPartnerPath+partnerID, nil, &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

func (c *APIClient) GetCollection(ctx context.Context, collectionID string) (*domain.Collection, error) {
	var collection domain.Collection
	if err := c.doJSON(ctx, http.MethodGet, collectionsCreatePath+"/"+collectionID, nil, &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}

func (c *APIClient) CreateCollection(ctx context.Context, data domain.CollectionData) (*domain.Collection, error) {
	var collection domain.Collection
	if err := c.doJSON(ctx, http.MethodPost, collectionsCreatePath, data, &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}

func (c *APIClient) UpdateCollection(ctx context.Context, collectionID string, data domain.CollectionData) (*domain.Collection, error) {
	var collection domain.Collection
	if err := c.doJSON(ctx, http.MethodPatch, collectionsCreatePath+"/"+collectionID, data, &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}

func (c *APIClient) DeleteCollection(ctx context.Context, collectionID string) error {
	return c.doJSON(ctx, http.MethodDelete, collectionsCreatePath+"/"+collectionID, nil, nil)
}

// Partners and users (admin surface)

func (c *APIClient) ListPartners(ctx context.Context) ([]domain.Partner, error) {
	var partners []domain.Partner
	if err := c.doJSON(ctx, http.MethodGet, partnersPath, nil, &partners); err != nil {
		return nil, err
	}
	return partners, nil
}

func (c *APIClient) CreatePartner(ctx context.Context, data domain.CreatePartner) (*domain.Partner, error) {
	var partner domain.Partner
	if err := c.doJSON(ctx, http.MethodPost, partnersPath, data, &partner); err != nil {
		return nil, err
	}
	return &partner, nil
}

func (c *APIClient) UpdatePartner(ctx context.Context, partnerID string, data domain.PartnerData) (*domain.Partner, error) {
	var partner domain.Partner
	if err := c.doJSON(ctx, http.MethodPatch, partnersPath+"/"+partnerID, data, &partner); err != nil {
		return nil, err
	}
	return &partner, nil
}

func (c *APIClient) DeletePartner(ctx context.Context, partnerID string) error {
	return c.doJSON(ctx, http.MethodDelete, partnersPath+"/"+partnerID, nil, nil)
}

// AddPartnerUser provisions an account under an existing partner.
func (c *APIClient) AddPartnerUser(ctx context.Context, partnerID string, user domain.CreateUser) (*domain.User, error) {
	var created domain.User
	if err := c.doJSON(ctx, http.MethodPost, partnersPath+"/"+partnerID+"/users", user, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *APIClient) CreateUser(ctx context.Context, user domain.CreateUser) (*domain.User, error) {
	var created domain.User
	if err := c.doJSON(ctx, http.MethodPost, usersPath, user, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *APIClient) UpdateUser(ctx context.Context, userID string, user domain.CreateUser) (*domain.User, error) {
	var updated domain.User
	if err := c.doJSON(ctx, http.MethodPatch, usersPath+"/"+userID, user, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *APIClient) DeleteUser(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodDelete, usersPath+"/"+userID, nil, nil)
}

// CurrentUser fetches the authenticated account; role gating for the admin
// surface is decided from its role field.
func (c *APIClient) CurrentUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, http.MethodGet, currentUserPath, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserStats fetches the dashboard aggregate counters for the current user.
func (c *APIClient) UserStats(ctx context.Context) (*domain.Stats, error) {
	var stats domain.Stats
	if err := c.doJSON(ctx, http.MethodGet, userStatsPath, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// PartnerStats fetches the aggregate counters for one partner.
func (c *APIClient) PartnerStats(ctx context.Context, partnerID string) (*domain.Stats, error) {
	var stats domain.Stats
	if err := c.doJSON(ctx, http.MethodGet, partnersPath+"/"+partnerID+"/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// doJSON issues one authorized JSON request. in may be nil for bodyless
// methods; out may be nil when the response body is irrelevant (deletes).
func (c *APIClient) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestID := uuid.NewString()
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewExternalError(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	c.log.WithFields(map[string]interface{}{
		"request_id": requestID,
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"duration":   time.Since(start),
	}).Debug("API call")

	if resp.StatusCode == http.StatusUnauthorized {
		return errors.NewAuthenticationError("session rejected by the API")
	}
	if resp.StatusCode >= 300 {
		return statusError(path, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewExternalError("failed to parse API response", err)
	}
	return nil
}

// statusError folds a non-2xx response into an external error carrying a
// bounded slice of the body for diagnostics.
func statusError(path string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return errors.NewExternalError(
		fmt.Sprintf("%s returned status %d: %s", path, resp.StatusCode, string(body)),
		nil,
	)
}
