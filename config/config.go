package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"
)

const DefaultFile = "config/config.yaml"

type ServerConfig struct {
	Port            string        `yaml:"port"`
	UploadDir       string        `yaml:"upload_dir"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type MongoConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// Transactions 需要replica set，單機MongoDB請關閉
	Transactions bool `yaml:"transactions"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	Database int    `yaml:"database"`
}

type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenExpiration time.Duration `yaml:"token_expiration"`
	SaltRounds      int           `yaml:"salt_rounds"`
}

type OrdersConfig struct {
	StrictTransitions bool `yaml:"strict_transitions"`
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Mongo  MongoConfig  `yaml:"mongo"`
	Redis  RedisConfig  `yaml:"redis"`
	Auth   AuthConfig   `yaml:"auth"`
	Orders OrdersConfig `yaml:"orders"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "3000",
			UploadDir:       "./uploads",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "storefront",
			ConnectTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			TokenExpiration: 24 * time.Hour,
			SaltRounds:      10,
		},
		Orders: OrdersConfig{StrictTransitions: true},
	}
}

// LoadConfig 讀取yaml設定檔，檔案不存在時使用預設值，最後套用環境變數
func LoadConfig(filename string) (Config, error) {
	config := Default()
	file, err := os.Open(filename)
	switch {
	case err == nil:
		defer file.Close()
		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(&config); err != nil {
			return config, fmt.Errorf("decode %s: %w", filename, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return config, err
	}

	if err := applyEnv(&config); err != nil {
		return config, err
	}
	return config, config.Validate()
}

func applyEnv(config *Config) error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString("PORT", &config.Server.Port)
	setString("UPLOAD_DIR", &config.Server.UploadDir)
	setString("MONGO_URI", &config.Mongo.URI)
	setString("MONGO_DATABASE", &config.Mongo.Database)
	setString("REDIS_ADDR", &config.Redis.Addr)
	setString("REDIS_PASSWORD", &config.Redis.Password)
	setString("JWT_SECRET", &config.Auth.JWTSecret)

	if v := os.Getenv("SALT_ROUNDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SALT_ROUNDS: %w", err)
		}
		config.Auth.SaltRounds = n
	}
	if v := os.Getenv("TOKEN_EXPIRATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKEN_EXPIRATION: %w", err)
		}
		config.Auth.TokenExpiration = d
	}
	return nil
}

func (c Config) Validate() error {
	var problems []error
	if c.Mongo.URI == "" {
		problems = append(problems, errors.New("mongo.uri is required"))
	}
	if c.Mongo.Database == "" {
		problems = append(problems, errors.New("mongo.database is required"))
	}
	if c.Auth.JWTSecret == "" {
		problems = append(problems, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.SaltRounds < 4 || c.Auth.SaltRounds > 31 {
		problems = append(problems, fmt.Errorf("auth.salt_rounds %d out of range [4,31]", c.Auth.SaltRounds))
	}
	if c.Auth.TokenExpiration <= 0 {
		problems = append(problems, errors.New("auth.token_expiration must be positive"))
	}
	return errors.Join(problems...)
}

// SetupMongoConnection 連線並ping，失敗時不啟動HTTP服務
func SetupMongoConnection(ctx context.Context, cfg MongoConfig) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, client.Database(cfg.Database), nil
}

// SetupRedisConnection 未設定addr時回傳nil，改用本機替代實作
func SetupRedisConnection(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.Database,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, err
	}
	return redisClient, nil
}
