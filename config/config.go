package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	S3       S3Config
	Inicis   InicisConfig
	KFTC     KFTCConfig
	Kakao    KakaoConfig
	SMS      SMSConfig
	Business BusinessConfig
	Frontend FrontendConfig
	Policy   Policy
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig Host가 비어 있으면 Redis 없이 동작한다.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type InicisConfig struct {
	MID      string
	SignKey  string
	APIKey   string
	APIIV    string
	BaseURL  string
	TestMode bool
}

type KFTCConfig struct {
	ClientID     string
	ClientSecret string
	UseCode      string
	TestMode     bool
}

type KakaoConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type SMSConfig struct {
	ServiceID  string
	AccessKey  string
	SecretKey  string
	FromNumber string
}

type BusinessConfig struct {
	APIKey string
}

type FrontendConfig struct {
	URL string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	policy, err := LoadPolicy(getEnv("POLICY_FILE", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "dungji"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "dungjimarket"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "1h")),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h")),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-northeast-2"),
			Bucket:          getEnv("AWS_S3_BUCKET", "dungjimarket-media"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Inicis: InicisConfig{
			MID:      getEnv("INICIS_MID", "INIpayTest"),
			SignKey:  getEnv("INICIS_SIGN_KEY", "SU5JTElURV9UUklQTEVERVNfS0VZU1RS"),
			APIKey:   getEnv("INICIS_API_KEY", "ItEQKi3rY7uvDS8l"),
			APIIV:    getEnv("INICIS_API_IV", "HYb3yQ4f65QL89=="),
			BaseURL:  getEnv("INICIS_API_URL", "https://stginiapi.inicis.com"),
			TestMode: parseBool(getEnv("INICIS_TEST_MODE", "true")),
		},
		KFTC: KFTCConfig{
			ClientID:     getEnv("KFTC_CLIENT_ID", ""),
			ClientSecret: getEnv("KFTC_CLIENT_SECRET", ""),
			UseCode:      getEnv("KFTC_USE_CODE", "T991666190"),
			TestMode:     parseBool(getEnv("KFTC_TEST_MODE", "true")),
		},
		Kakao: KakaoConfig{
			ClientID:     getEnv("KAKAO_CLIENT_ID", ""),
			ClientSecret: getEnv("KAKAO_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("KAKAO_REDIRECT_URI", "http://localhost:3000/auth/kakao/callback"),
		},
		SMS: SMSConfig{
			ServiceID:  getEnv("NAVER_SENS_SERVICE_ID", ""),
			AccessKey:  getEnv("NAVER_SENS_ACCESS_KEY", ""),
			SecretKey:  getEnv("NAVER_SENS_SECRET_KEY", ""),
			FromNumber: getEnv("NAVER_SENS_FROM_NUMBER", ""),
		},
		Business: BusinessConfig{
			APIKey: getEnv("BUSINESS_VERIFICATION_API_KEY", ""),
		},
		Frontend: FrontendConfig{
			URL: getEnv("FRONTEND_URL", "https://dungjimarket.com"),
		},
		Policy: *policy,
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default 15m", s)
		return 15 * time.Minute
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
