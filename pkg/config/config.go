package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	idx "github.com/therealutkarshpriyadarshi/vector/pkg/index"
	"github.com/therealutkarshpriyadarshi/vector/pkg/vector"
)

// Config holds all server configuration
type Config struct {
	Server   ServerConfig
	REST     RESTConfig
	Index    IndexConfig
	Cache    CacheConfig
	Database DatabaseConfig
}

// RESTConfig holds the demo HTTP API's listener, auth, and rate-limit
// settings (spec.md §6's external interface, carried by pkg/api/rest).
type RESTConfig struct {
	Enabled     bool
	Host        string
	Port        int
	CORSEnabled bool
	CORSOrigins []string

	AuthEnabled bool
	JWTSecret   string
	PublicPaths []string
	AdminPaths  []string

	RateLimitEnabled bool
	RateLimitPerSec  float64
	RateLimitBurst   int
	RateLimitPerIP   bool
	RateLimitPerUser bool
	RateLimitGlobal  bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        // Server host (default: "0.0.0.0")
	Port            int           // Server port (default: 50051)
	MaxConnections  int           // Max concurrent connections
	RequestTimeout  time.Duration // Request timeout
	ShutdownTimeout time.Duration // Graceful shutdown timeout
	EnableTLS       bool          // Enable TLS
	CertFile        string        // TLS certificate file
	KeyFile         string        // TLS key file
}

// IndexConfig selects the default ANN algorithm new namespaces are
// created with and carries that algorithm's typed parameter record,
// replacing the single-algorithm HNSW-only config the teacher shipped
// (spec.md §9's "Dynamic parameter bag... do not carry this forward").
// Dimensions is informational only: namespaces infer their own
// dimension from the first inserted vector.
type IndexConfig struct {
	Algorithm  string // "hnsw" (default), "ssg", "pq", "ivfpq", "bpt", "bruteforce"
	Metric     string // "euclidean" (default), "manhattan", "dot_product", "cosine_similarity", "angular"
	Dimensions int

	HNSW       idx.HNSWParams
	SSG        idx.SSGParams
	PQ         idx.PQParams
	IVFPQ      idx.IVFPQParams
	BPT        idx.BPTParams
	BruteForce idx.BruteForceParams
}

// ParsedMetric resolves the configured metric name, defaulting to
// Euclidean for an empty or unrecognized string.
func (c IndexConfig) ParsedMetric() vector.Metric {
	switch c.Metric {
	case "manhattan":
		return vector.Manhattan
	case "dot_product":
		return vector.DotProduct
	case "cosine_similarity":
		return vector.CosineSimilarity
	case "angular":
		return vector.Angular
	default:
		return vector.Euclidean
	}
}

// CacheConfig holds query cache configuration
type CacheConfig struct {
	Enabled  bool          // Enable query caching
	Capacity int           // Max cache entries
	TTL      time.Duration // Time to live for cache entries
}

// DatabaseConfig holds storage configuration
type DatabaseConfig struct {
	DataDir       string // Data directory path
	EnableWAL     bool   // Enable write-ahead log
	SyncWrites    bool   // Sync writes to disk
	MaxNamespaces int    // Max number of namespaces
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            50051,
			MaxConnections:  1000,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			EnableTLS:       false,
		},
		REST: RESTConfig{
			Enabled:          true,
			Host:             "0.0.0.0",
			Port:             8080,
			CORSEnabled:      true,
			CORSOrigins:      []string{"*"},
			AuthEnabled:      false,
			PublicPaths:      []string{"/v1/health", "/docs"},
			RateLimitEnabled: true,
			RateLimitPerSec:  50,
			RateLimitBurst:   100,
			RateLimitPerIP:   true,
		},
		Index: IndexConfig{
			Algorithm:  "hnsw",
			Metric:     "euclidean",
			Dimensions: 768,
			HNSW:       idx.DefaultHNSWParams(100000),
			SSG: idx.SSGParams{
				AngleDegrees: 60, InitK: 20, IndexSize: 30,
				NeighborNeighborSize: 100, RootSize: 10,
			},
			PQ: idx.PQParams{NSub: 8, SubBits: 8, TrainEpoch: 25},
			IVFPQ: idx.IVFPQParams{
				PQParams:      idx.PQParams{NSub: 8, SubBits: 8, TrainEpoch: 25},
				NKmeansCenter: 256, SearchNCenter: 16,
			},
			BPT:        idx.BPTParams{TreeNum: -1, CandidateSize: 0},
			BruteForce: idx.BruteForceParams{},
		},
		Cache: CacheConfig{
			Enabled:  true,
			Capacity: 1000,
			TTL:      5 * time.Minute,
		},
		Database: DatabaseConfig{
			DataDir:       "./data",
			EnableWAL:     true,
			SyncWrites:    false,
			MaxNamespaces: 100,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := Default()

	// Server configuration
	if host := os.Getenv("VECTOR_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("VECTOR_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if maxConn := os.Getenv("VECTOR_MAX_CONNECTIONS"); maxConn != "" {
		if mc, err := strconv.Atoi(maxConn); err == nil {
			cfg.Server.MaxConnections = mc
		}
	}
	if timeout := os.Getenv("VECTOR_REQUEST_TIMEOUT"); timeout != "" {
		if t, err := time.ParseDuration(timeout); err == nil {
			cfg.Server.RequestTimeout = t
		}
	}
	if enableTLS := os.Getenv("VECTOR_ENABLE_TLS"); enableTLS == "true" {
		cfg.Server.EnableTLS = true
		cfg.Server.CertFile = os.Getenv("VECTOR_TLS_CERT")
		cfg.Server.KeyFile = os.Getenv("VECTOR_TLS_KEY")
	}

	// REST configuration
	if restEnabled := os.Getenv("VECTOR_REST_ENABLED"); restEnabled == "false" {
		cfg.REST.Enabled = false
	}
	if restPort := os.Getenv("VECTOR_REST_PORT"); restPort != "" {
		if p, err := strconv.Atoi(restPort); err == nil {
			cfg.REST.Port = p
		}
	}
	if jwtSecret := os.Getenv("VECTOR_JWT_SECRET"); jwtSecret != "" {
		cfg.REST.JWTSecret = jwtSecret
		cfg.REST.AuthEnabled = true
	}

	// Index configuration
	if algo := os.Getenv("VECTOR_ALGORITHM"); algo != "" {
		cfg.Index.Algorithm = algo
	}
	if metric := os.Getenv("VECTOR_METRIC"); metric != "" {
		cfg.Index.Metric = metric
	}
	if dims := os.Getenv("VECTOR_DIMENSIONS"); dims != "" {
		if d, err := strconv.Atoi(dims); err == nil {
			cfg.Index.Dimensions = d
		}
	}
	if m := os.Getenv("VECTOR_HNSW_M"); m != "" {
		if mVal, err := strconv.Atoi(m); err == nil {
			cfg.Index.HNSW.NNeighbor = mVal
		}
	}
	if ef := os.Getenv("VECTOR_HNSW_EF_CONSTRUCTION"); ef != "" {
		if efVal, err := strconv.Atoi(ef); err == nil {
			cfg.Index.HNSW.EfBuild = efVal
		}
	}

	// Cache configuration
	if cacheEnabled := os.Getenv("VECTOR_CACHE_ENABLED"); cacheEnabled == "false" {
		cfg.Cache.Enabled = false
	}
	if capacity := os.Getenv("VECTOR_CACHE_CAPACITY"); capacity != "" {
		if c, err := strconv.Atoi(capacity); err == nil {
			cfg.Cache.Capacity = c
		}
	}
	if ttl := os.Getenv("VECTOR_CACHE_TTL"); ttl != "" {
		if t, err := time.ParseDuration(ttl); err == nil {
			cfg.Cache.TTL = t
		}
	}

	// Database configuration
	if dataDir := os.Getenv("VECTOR_DATA_DIR"); dataDir != "" {
		cfg.Database.DataDir = dataDir
	}
	if wal := os.Getenv("VECTOR_ENABLE_WAL"); wal == "false" {
		cfg.Database.EnableWAL = false
	}
	if sync := os.Getenv("VECTOR_SYNC_WRITES"); sync == "true" {
		cfg.Database.SyncWrites = true
	}

	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.MaxConnections < 1 {
		return fmt.Errorf("invalid max connections: %d (must be > 0)", c.Server.MaxConnections)
	}
	if c.Server.EnableTLS {
		if c.Server.CertFile == "" || c.Server.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert or key file not specified")
		}
	}

	// Index validation
	if c.Index.Dimensions < 1 {
		return fmt.Errorf("invalid dimensions: %d (must be > 0)", c.Index.Dimensions)
	}
	switch c.Index.Algorithm {
	case "hnsw":
		if err := c.Index.HNSW.Validate(); err != nil {
			return fmt.Errorf("invalid hnsw params: %w", err)
		}
	case "ssg":
		if err := c.Index.SSG.Validate(); err != nil {
			return fmt.Errorf("invalid ssg params: %w", err)
		}
	case "pq":
		if err := c.Index.PQ.Validate(); err != nil {
			return fmt.Errorf("invalid pq params: %w", err)
		}
	case "ivfpq":
		if err := c.Index.IVFPQ.Validate(); err != nil {
			return fmt.Errorf("invalid ivfpq params: %w", err)
		}
	case "bpt":
		if err := c.Index.BPT.Validate(); err != nil {
			return fmt.Errorf("invalid bpt params: %w", err)
		}
	case "bruteforce":
		// no tunables
	default:
		return fmt.Errorf("unknown algorithm: %q", c.Index.Algorithm)
	}

	// Cache validation
	if c.Cache.Enabled && c.Cache.Capacity < 1 {
		return fmt.Errorf("invalid cache capacity: %d (must be > 0)", c.Cache.Capacity)
	}

	// Database validation
	if c.Database.DataDir == "" {
		return fmt.Errorf("data directory not specified")
	}

	return nil
}

// Address returns the server address (host:port)
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
