package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	RecordsBackendREST     = "rest"
	RecordsBackendPostgres = "postgres"

	BlobBackendB2    = "b2"
	BlobBackendMinIO = "minio"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type DB struct {
	DbHOST         string
	DbPORT         string
	DbUSER         string
	DbPASSWORD     string
	DbNAME         string
	DbSSLMODE      string
	MigrationsPath string
}

// Records describes the hosted records service (PostgREST-style API).
type Records struct {
	Backend         string
	URL             string
	ServiceKey      string
	Timeout         time.Duration
	RetryMaxElapsed time.Duration
}

type B2 struct {
	AuthURL    string
	KeyID      string
	AppKey     string
	BucketID   string
	BucketName string
	AuthMaxAge time.Duration
}

type MinIO struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	UseSSL     bool
	Region     string
}

type Blob struct {
	Backend string
	B2      B2
	MinIO   MinIO
}

type Cache struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Size          int
	ProductTTL    time.Duration
	ImageTTL      time.Duration
	ImageMaxBytes int64
}

type Config struct {
	ServerPort      int
	Env             string
	JWTSecretKey    string
	TokenDuration   time.Duration
	MaxUploadSize   int64
	LoginRateLimit  int
	LoginRateWindow time.Duration
	TrustedProxies  []string
	SweepInterval   time.Duration
	DB              DB
	Records         Records
	Blob            Blob
	Cache           Cache
}

func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// getEnvDuration accepts Go durations ("8h", "90s") and falls back to the
// default when the value is missing or malformed.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil || duration <= 0 {
		return defaultValue
	}
	return duration
}

func LoadDB() DB {
	return DB{
		DbHOST:         getEnv("DB_HOST", "localhost"),
		DbPORT:         getEnv("DB_PORT", "5432"),
		DbUSER:         getEnv("DB_USER", "postgres"),
		DbPASSWORD:     getEnv("DB_PASSWORD", "password"),
		DbNAME:         getEnv("DB_NAME", "tesatiki"),
		DbSSLMODE:      getEnv("DB_SSLMODE", "disable"),
		MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "migrations"),
	}
}

func LoadRecords() Records {
	return Records{
		Backend:         getEnv("RECORDS_BACKEND", RecordsBackendREST),
		URL:             strings.TrimSuffix(getEnv("RECORDS_URL", "http://localhost:3000"), "/"),
		ServiceKey:      getEnv("RECORDS_SERVICE_KEY", ""),
		Timeout:         getEnvDuration("RECORDS_TIMEOUT", 10*time.Second),
		RetryMaxElapsed: getEnvDuration("RECORDS_RETRY_MAX_ELAPSED", 3*time.Second),
	}
}

func LoadBlob() Blob {
	return Blob{
		Backend: getEnv("BLOB_BACKEND", BlobBackendB2),
		B2: B2{
			AuthURL:    strings.TrimSuffix(getEnv("B2_AUTH_URL", "https://api.backblazeb2.com"), "/"),
			KeyID:      getEnv("B2_KEY_ID", ""),
			AppKey:     getEnv("B2_APP_KEY", ""),
			BucketID:   getEnv("B2_BUCKET_ID", ""),
			BucketName: getEnv("B2_BUCKET", "tesatiki-products"),
			AuthMaxAge: getEnvDuration("B2_AUTH_MAX_AGE", 23*time.Hour),
		},
		MinIO: MinIO{
			Endpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:  getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:  getEnv("MINIO_SECRET_KEY", "minioadmin"),
			BucketName: getEnv("MINIO_BUCKET_NAME", "tesatiki-products"),
			UseSSL:     getEnvBool("MINIO_USE_SSL", false),
			Region:     getEnv("MINIO_REGION", "us-east-1"),
		},
	}
}

func LoadCache() Cache {
	return Cache{
		Backend:       getEnv("CACHE_BACKEND", CacheBackendMemory),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		Size:          getEnvAsInt("CACHE_SIZE", 512),
		ProductTTL:    getEnvDuration("PRODUCT_CACHE_TTL", 10*time.Minute),
		ImageTTL:      getEnvDuration("IMAGE_CACHE_TTL", 365*24*time.Hour),
		ImageMaxBytes: getEnvAsInt64("IMAGE_CACHE_MAX_BYTES", 2*1024*1024),
	}
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	return &Config{
		ServerPort:      getEnvAsInt("SERVER_PORT", 8080),
		Env:             getEnv("APP_ENV", "development"),
		JWTSecretKey:    getEnv("JWT_SECRET", ""),
		TokenDuration:   getEnvDuration("TOKEN_TTL", 8*time.Hour),
		MaxUploadSize:   getEnvAsInt64("MAX_UPLOAD_SIZE", 10*1024*1024),
		LoginRateLimit:  getEnvAsInt("LOGIN_RATE_LIMIT", 5),
		LoginRateWindow: getEnvDuration("LOGIN_RATE_WINDOW", 15*time.Minute),
		TrustedProxies:  getEnvList("TRUSTED_PROXIES"),
		SweepInterval:   getEnvDuration("SWEEP_INTERVAL", time.Hour),
		DB:              LoadDB(),
		Records:         LoadRecords(),
		Blob:            LoadBlob(),
		Cache:           LoadCache(),
	}
}
