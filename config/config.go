package config

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// SysConfig system configuration
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
	Seed     bool   `yaml:"seed"` // create default product types and carriers on startup
}

// WebConfig admin api server configuration
type WebConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	JwtSecret string `yaml:"jwt_secret"` // empty disables the admin guard
}

// DBConfig database configuration used by the gorm backend
type DBConfig struct {
	Type     string `yaml:"type"` // postgres or sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// BackendConfig selects where resource data lives.
// Mode "rest" talks to the hosted PostgREST endpoint, "gorm" uses the Database section.
type BackendConfig struct {
	Mode    string        `yaml:"mode"`
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig product image storage
type StorageConfig struct {
	Mode    string `yaml:"mode"` // rest or local
	Bucket  string `yaml:"bucket"`
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`
}

// CacheConfig query cache
type CacheConfig struct {
	Mode      string        `yaml:"mode"` // memory or redis
	RedisAddr string        `yaml:"redis_addr"`
	Prefix    string        `yaml:"prefix"`
	StaleTime time.Duration `yaml:"stale_time"`
	GCTime    time.Duration `yaml:"gc_time"`
}

// LogConfig logging configuration
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type AppConfig struct {
	System   SysConfig     `yaml:"system"`
	Web      WebConfig     `yaml:"web"`
	Database DBConfig      `yaml:"database"`
	Backend  BackendConfig `yaml:"backend"`
	Storage  StorageConfig `yaml:"storage"`
	Cache    CacheConfig   `yaml:"cache"`
	Logger   LogConfig     `yaml:"logger"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) GetUploadDir() string {
	if c.Storage.Dir != "" {
		return c.Storage.Dir
	}
	return path.Join(c.System.Workdir, "uploads")
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "Storefront",
		Location: "America/Sao_Paulo",
		Workdir:  "/var/storefront",
		Debug:    true,
		Seed:     true,
	},
	Web: WebConfig{
		Host: "0.0.0.0",
		Port: 1816,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "storefront",
		User:     "postgres",
		Passwd:   "postgres",
		MaxConn:  100,
		IdleConn: 10,
	},
	Backend: BackendConfig{
		Mode:    "gorm",
		Timeout: 10 * time.Second,
	},
	Storage: StorageConfig{
		Mode:   "local",
		Bucket: "product-images",
	},
	Cache: CacheConfig{
		Mode:      "memory",
		RedisAddr: "127.0.0.1:6379",
		Prefix:    "storefront:",
		StaleTime: 30 * time.Second,
		GCTime:    5 * time.Minute,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: false,
		Filename:   "/var/storefront/storefront.log",
	},
}

// LoadConfig reads the yaml file at cfile (missing file keeps the defaults),
// then applies .env and STOREFRONT_* environment overrides.
func LoadConfig(cfile string) (*AppConfig, error) {
	cfg := *DefaultAppConfig
	if cfile == "" {
		cfile = "storefront.yml"
	}
	if data, err := os.ReadFile(cfile); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", cfile)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "read config %s", cfile)
	}

	// .env is optional
	_ = godotenv.Load()
	applyEnv(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *AppConfig) {
	setEnvString("STOREFRONT_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvString("STOREFRONT_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvBool("STOREFRONT_SYSTEM_DEBUG", &cfg.System.Debug)
	setEnvBool("STOREFRONT_SYSTEM_SEED", &cfg.System.Seed)

	setEnvString("STOREFRONT_WEB_HOST", &cfg.Web.Host)
	setEnvInt("STOREFRONT_WEB_PORT", &cfg.Web.Port)
	setEnvString("STOREFRONT_WEB_JWT_SECRET", &cfg.Web.JwtSecret)

	setEnvString("STOREFRONT_DB_TYPE", &cfg.Database.Type)
	setEnvString("STOREFRONT_DB_HOST", &cfg.Database.Host)
	setEnvInt("STOREFRONT_DB_PORT", &cfg.Database.Port)
	setEnvString("STOREFRONT_DB_NAME", &cfg.Database.Name)
	setEnvString("STOREFRONT_DB_USER", &cfg.Database.User)
	setEnvString("STOREFRONT_DB_PWD", &cfg.Database.Passwd)
	setEnvBool("STOREFRONT_DB_DEBUG", &cfg.Database.Debug)

	setEnvString("STOREFRONT_BACKEND_MODE", &cfg.Backend.Mode)
	setEnvString("SUPABASE_URL", &cfg.Backend.URL)
	setEnvString("SUPABASE_KEY", &cfg.Backend.APIKey)
	setEnvDuration("STOREFRONT_BACKEND_TIMEOUT", &cfg.Backend.Timeout)

	setEnvString("STOREFRONT_STORAGE_MODE", &cfg.Storage.Mode)
	setEnvString("STOREFRONT_STORAGE_BUCKET", &cfg.Storage.Bucket)
	setEnvString("STOREFRONT_STORAGE_DIR", &cfg.Storage.Dir)

	setEnvString("STOREFRONT_CACHE_MODE", &cfg.Cache.Mode)
	setEnvString("STOREFRONT_REDIS_ADDR", &cfg.Cache.RedisAddr)
	setEnvDuration("STOREFRONT_CACHE_STALE_TIME", &cfg.Cache.StaleTime)
	setEnvDuration("STOREFRONT_CACHE_GC_TIME", &cfg.Cache.GCTime)

	setEnvString("STOREFRONT_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBool("STOREFRONT_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)
	setEnvString("STOREFRONT_LOGGER_FILENAME", &cfg.Logger.Filename)
}

func setEnvString(name string, val *string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*val = v
	}
}

func setEnvInt(name string, val *int) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if i, err := cast.ToIntE(v); err == nil {
			*val = i
		}
	}
}

func setEnvBool(name string, val *bool) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			*val = b
		}
	}
}

func setEnvDuration(name string, val *time.Duration) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		if d, err := cast.ToDurationE(v); err == nil {
			*val = d
		}
	}
}
