package container

import (
	"admctl/internal/config"
	"admctl/internal/service"
	"admctl/internal/session"
	"admctl/pkg/logger"
	"admctl/pkg/redis"
)

// Container holds all toolkit dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	Session     *session.Session
	APIClient   *service.APIClient
	RedisClient *redis.Client
}

// New creates a new dependency injection container
func New(cfg *config.Config, log *logger.Logger) (*Container, error) {
	// Initialize Redis client if Redis URL is configured
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize Redis client, proceeding without caching")
		} else {
			redisClient = client
			log.Info("Redis client initialized successfully")
		}
	} else {
		log.Debug("Redis URL not configured, proceeding without caching")
	}

	sess := session.New(cfg.TokenPath)

	return &Container{
		Config:      cfg,
		Logger:      log,
		Session:     sess,
		APIClient:   service.NewAPIClient(cfg, sess, log),
		RedisClient: redisClient,
	}, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetSession returns the persisted auth session
func (c *Container) GetSession() *session.Session {
	return c.Session
}

// GetAPIClient returns the remote API client
func (c *Container) GetAPIClient() *service.APIClient {
	return c.APIClient
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}

// GetCacheService returns a cache service instance (returns nil if Redis is not available)
func (c *Container) GetCacheService() *service.CacheService {
	if c.RedisClient == nil {
		return nil
	}
	return service.NewCacheService(c.RedisClient, c.Logger.Logger)
}

// Close releases held connections.
func (c *Container) Close() error {
	if c.RedisClient != nil {
		return c.RedisClient.Close()
	}
	return nil
}
