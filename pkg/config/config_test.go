package config

import (
	"os"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	// Test Server defaults
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 50051 {
		t.Errorf("Expected port 50051, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxConnections != 1000 {
		t.Errorf("Expected max connections 1000, got %d", cfg.Server.MaxConnections)
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("Expected request timeout 30s, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected shutdown timeout 10s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.EnableTLS {
		t.Error("Expected TLS disabled by default")
	}

	// Test Index defaults
	if cfg.Index.Algorithm != "hnsw" {
		t.Errorf("Expected algorithm hnsw, got %s", cfg.Index.Algorithm)
	}
	if cfg.Index.HNSW.NNeighbor != 16 {
		t.Errorf("Expected HNSW NNeighbor=16, got %d", cfg.Index.HNSW.NNeighbor)
	}
	if cfg.Index.HNSW.EfBuild != 200 {
		t.Errorf("Expected HNSW EfBuild=200, got %d", cfg.Index.HNSW.EfBuild)
	}
	if cfg.Index.HNSW.EfSearch != 50 {
		t.Errorf("Expected HNSW EfSearch=50, got %d", cfg.Index.HNSW.EfSearch)
	}
	if cfg.Index.Dimensions != 768 {
		t.Errorf("Expected Dimensions=768, got %d", cfg.Index.Dimensions)
	}
	if cfg.Index.ParsedMetric() != 1 { // vector.Euclidean
		t.Errorf("Expected default metric euclidean, got %v", cfg.Index.ParsedMetric())
	}

	// Test Cache defaults
	if !cfg.Cache.Enabled {
		t.Error("Expected cache enabled by default")
	}
	if cfg.Cache.Capacity != 1000 {
		t.Errorf("Expected cache capacity 1000, got %d", cfg.Cache.Capacity)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Expected cache TTL 5m, got %v", cfg.Cache.TTL)
	}

	// Test Database defaults
	if cfg.Database.DataDir != "./data" {
		t.Errorf("Expected data dir ./data, got %s", cfg.Database.DataDir)
	}
	if !cfg.Database.EnableWAL {
		t.Error("Expected WAL enabled by default")
	}
	if cfg.Database.SyncWrites {
		t.Error("Expected sync writes disabled by default")
	}
	if cfg.Database.MaxNamespaces != 100 {
		t.Errorf("Expected max namespaces 100, got %d", cfg.Database.MaxNamespaces)
	}
}

func TestLoadFromEnv(t *testing.T) {
	// Save original environment
	originalEnv := make(map[string]string)
	envVars := []string{
		"VECTOR_HOST", "VECTOR_PORT", "VECTOR_MAX_CONNECTIONS",
		"VECTOR_REQUEST_TIMEOUT", "VECTOR_ENABLE_TLS",
		"VECTOR_ALGORITHM", "VECTOR_METRIC", "VECTOR_HNSW_M", "VECTOR_HNSW_EF_CONSTRUCTION", "VECTOR_DIMENSIONS",
		"VECTOR_CACHE_ENABLED", "VECTOR_CACHE_CAPACITY", "VECTOR_CACHE_TTL",
		"VECTOR_DATA_DIR", "VECTOR_ENABLE_WAL", "VECTOR_SYNC_WRITES",
	}

	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
	}

	defer func() {
		for key, value := range originalEnv {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	}()

	os.Setenv("VECTOR_HOST", "127.0.0.1")
	os.Setenv("VECTOR_PORT", "8080")
	os.Setenv("VECTOR_MAX_CONNECTIONS", "5000")
	os.Setenv("VECTOR_REQUEST_TIMEOUT", "60s")
	os.Setenv("VECTOR_ENABLE_TLS", "true")

	os.Setenv("VECTOR_ALGORITHM", "ssg")
	os.Setenv("VECTOR_METRIC", "cosine_similarity")
	os.Setenv("VECTOR_HNSW_M", "32")
	os.Setenv("VECTOR_HNSW_EF_CONSTRUCTION", "400")
	os.Setenv("VECTOR_DIMENSIONS", "1536")

	os.Setenv("VECTOR_CACHE_ENABLED", "false")
	os.Setenv("VECTOR_CACHE_CAPACITY", "5000")
	os.Setenv("VECTOR_CACHE_TTL", "10m")

	os.Setenv("VECTOR_DATA_DIR", "/var/lib/vectordb")
	os.Setenv("VECTOR_ENABLE_WAL", "false")
	os.Setenv("VECTOR_SYNC_WRITES", "true")

	cfg := LoadFromEnv()

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected host 127.0.0.1, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxConnections != 5000 {
		t.Errorf("Expected max connections 5000, got %d", cfg.Server.MaxConnections)
	}
	if cfg.Server.RequestTimeout != 60*time.Second {
		t.Errorf("Expected request timeout 60s, got %v", cfg.Server.RequestTimeout)
	}
	if !cfg.Server.EnableTLS {
		t.Error("Expected TLS enabled")
	}

	if cfg.Index.Algorithm != "ssg" {
		t.Errorf("Expected algorithm ssg, got %s", cfg.Index.Algorithm)
	}
	if cfg.Index.Metric != "cosine_similarity" {
		t.Errorf("Expected metric cosine_similarity, got %s", cfg.Index.Metric)
	}
	if cfg.Index.HNSW.NNeighbor != 32 {
		t.Errorf("Expected HNSW NNeighbor=32, got %d", cfg.Index.HNSW.NNeighbor)
	}
	if cfg.Index.HNSW.EfBuild != 400 {
		t.Errorf("Expected HNSW EfBuild=400, got %d", cfg.Index.HNSW.EfBuild)
	}
	if cfg.Index.Dimensions != 1536 {
		t.Errorf("Expected Dimensions=1536, got %d", cfg.Index.Dimensions)
	}

	if cfg.Cache.Enabled {
		t.Error("Expected cache disabled")
	}
	if cfg.Cache.Capacity != 5000 {
		t.Errorf("Expected cache capacity 5000, got %d", cfg.Cache.Capacity)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("Expected cache TTL 10m, got %v", cfg.Cache.TTL)
	}

	if cfg.Database.DataDir != "/var/lib/vectordb" {
		t.Errorf("Expected data dir /var/lib/vectordb, got %s", cfg.Database.DataDir)
	}
	if cfg.Database.EnableWAL {
		t.Error("Expected WAL disabled")
	}
	if !cfg.Database.SyncWrites {
		t.Error("Expected sync writes enabled")
	}
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	originalPort := os.Getenv("VECTOR_PORT")
	defer func() {
		if originalPort == "" {
			os.Unsetenv("VECTOR_PORT")
		} else {
			os.Setenv("VECTOR_PORT", originalPort)
		}
	}()

	os.Setenv("VECTOR_PORT", "invalid")
	cfg := LoadFromEnv()

	if cfg.Server.Port != 50051 {
		t.Errorf("Expected default port 50051 for invalid value, got %d", cfg.Server.Port)
	}
}

func TestLoadFromEnv_DefaultsWhenNotSet(t *testing.T) {
	envVars := []string{
		"VECTOR_HOST", "VECTOR_PORT", "VECTOR_MAX_CONNECTIONS",
		"VECTOR_REQUEST_TIMEOUT", "VECTOR_ENABLE_TLS",
		"VECTOR_ALGORITHM", "VECTOR_METRIC", "VECTOR_HNSW_M", "VECTOR_HNSW_EF_CONSTRUCTION", "VECTOR_DIMENSIONS",
		"VECTOR_CACHE_ENABLED", "VECTOR_CACHE_CAPACITY", "VECTOR_CACHE_TTL",
		"VECTOR_DATA_DIR", "VECTOR_ENABLE_WAL", "VECTOR_SYNC_WRITES",
	}

	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		os.Unsetenv(key)
	}

	defer func() {
		for key, value := range originalEnv {
			if value != "" {
				os.Setenv(key, value)
			}
		}
	}()

	cfg := LoadFromEnv()
	defaults := Default()

	if cfg.Server.Host != defaults.Server.Host {
		t.Errorf("Expected default host, got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != defaults.Server.Port {
		t.Errorf("Expected default port, got %d", cfg.Server.Port)
	}
	if cfg.Index.Algorithm != defaults.Index.Algorithm {
		t.Errorf("Expected default algorithm, got %s", cfg.Index.Algorithm)
	}
	if cfg.Index.HNSW.NNeighbor != defaults.Index.HNSW.NNeighbor {
		t.Errorf("Expected default HNSW NNeighbor, got %d", cfg.Index.HNSW.NNeighbor)
	}
	if cfg.Cache.Enabled != defaults.Cache.Enabled {
		t.Errorf("Expected default cache enabled, got %v", cfg.Cache.Enabled)
	}
	if cfg.Database.DataDir != defaults.Database.DataDir {
		t.Errorf("Expected default data dir, got %s", cfg.Database.DataDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "Valid default config",
			config:  Default(),
			wantErr: false,
		},
		{
			name: "Invalid port (too low)",
			config: &Config{
				Server: ServerConfig{Port: 0},
				Index:  Default().Index,
			},
			wantErr: true,
		},
		{
			name: "Invalid port (too high)",
			config: &Config{
				Server: ServerConfig{Port: 70000},
				Index:  Default().Index,
			},
			wantErr: true,
		},
		{
			name: "Invalid dimensions",
			config: &Config{
				Server:   ServerConfig{Port: 50051},
				Index:    IndexConfig{Algorithm: "hnsw", Dimensions: 0, HNSW: Default().Index.HNSW},
				Database: DatabaseConfig{DataDir: "./data"},
			},
			wantErr: true,
		},
		{
			name: "Unknown algorithm",
			config: &Config{
				Server:   ServerConfig{Port: 50051},
				Index:    IndexConfig{Algorithm: "made-up", Dimensions: 8},
				Database: DatabaseConfig{DataDir: "./data"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{
		Host: "localhost",
		Port: 8080,
	}

	addr := cfg.Address()
	expected := "localhost:8080"

	if addr != expected {
		t.Errorf("Expected address %s, got %s", expected, addr)
	}

	defaultCfg := Default()
	addr = defaultCfg.Server.Address()
	expected = "0.0.0.0:50051"

	if addr != expected {
		t.Errorf("Expected default address %s, got %s", expected, addr)
	}
}
