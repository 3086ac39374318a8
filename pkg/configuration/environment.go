package configuration

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		panic(err)
	}
	return c
})

// Use returns the process-wide configuration, loading it on first call.
func Use() *Configuration {
	return singleton()
}

type DatabaseOptions struct {
	Name     string `env:"DB_NAME" envDefault:"stratify"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

// PolicyOptions configures the remote policy evaluator. Timeout bounds
// every evaluation call; on unreachability the gateway falls back to
// local role authorization.
type PolicyOptions struct {
	EndpointURL string        `env:"POLICY_ENDPOINT_URL" envDefault:"http://localhost:8181/v1/evaluate"`
	Timeout     time.Duration `env:"POLICY_TIMEOUT" envDefault:"5s"`
}

type EventOptions struct {
	Exchange string `env:"EVENT_EXCHANGE" envDefault:"stratify.domain"`
}

type Configuration struct {
	Database DatabaseOptions
	Policy   PolicyOptions
	Events   EventOptions

	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	ServerPort    int    `env:"PORT" envDefault:"3200"`
	GoAppEnv      string `env:"GO_APP_ENV" envDefault:"development"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogPath       string `env:"LOG_PATH"`

	// RLSEnforce toggles per-transaction row-level-security scoping:
	// "enforce" sets the tenant GUC inside every transaction.
	RLSEnforce string `env:"RLS_ENFORCE" envDefault:"disabled"`
}

func (c *Configuration) LogrusLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func (c *Configuration) load(envFiles []string) error {
	if _, err := LoadEnv(envFiles); err != nil {
		return err
	}
	return env.Parse(c)
}

// LoadEnv loads the env files that exist, returning how many were read.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}
