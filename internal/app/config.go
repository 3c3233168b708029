package app

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

type Config struct {
	App          ApplicationConfig  `yaml:"app"`
	Storage      StorageConfig      `yaml:"storage"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Restore      RestoreConfig      `yaml:"restore"`
	Presentation PresentationConfig `yaml:"presentation"`
	Sound        SoundConfig        `yaml:"sound"`
	Auth         AuthConfig         `yaml:"auth"`
}

func (c *Config) Validate() error {
	if err := c.App.HTTP.Validate(); err != nil {
		return fmt.Errorf("app.http: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if err := c.Restore.Validate(); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	return c.Auth.Validate()
}

type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (c *HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BaseURL is where a local client reaches the call bridge.
func (c *HTTPConfig) BaseURL() string {
	host := c.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Port)
}

func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

type StorageConfig struct {
	Path         string `yaml:"path"`
	CreateSchema bool   `yaml:"create_schema"`
}

func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

type SchedulerConfig struct {
	Buffer         int           `yaml:"buffer"`
	ExactCapable   bool          `yaml:"exact_capable"`
	CoalesceWindow time.Duration `yaml:"coalesce_window"`
}

func (c *SchedulerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Buffer, validation.Required, validation.Min(1)),
		validation.Field(&c.CoalesceWindow, validation.Min(time.Duration(0))),
	)
}

type RestoreConfig struct {
	SettleDelay time.Duration `yaml:"settle_delay"`
	Watch       bool          `yaml:"watch"`
	Debounce    time.Duration `yaml:"debounce"`
}

func (c *RestoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SettleDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

type PresentationConfig struct {
	AppName        string `yaml:"app_name"`
	Desktop        bool   `yaml:"desktop"`
	TerminalAlerts bool   `yaml:"terminal_alerts"`
	Language       string `yaml:"language"`
}

type SoundConfig struct {
	NotificationDirs []string `yaml:"notification_dirs"`
	AlarmDirs        []string `yaml:"alarm_dirs"`
	Player           string   `yaml:"player"`
	PlayerArgs       []string `yaml:"player_args"`
	Fallback         string   `yaml:"fallback"`
}

// AuthConfig guards /api. Mode "disabled" lets every request through, mode
// "token" requires a bearer token.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP:     HTTPConfig{Host: "127.0.0.1", Port: 7717},
		},
		Storage: StorageConfig{Path: "./memorizer.db"},
		Scheduler: SchedulerConfig{
			Buffer:         64,
			ExactCapable:   true,
			CoalesceWindow: time.Minute,
		},
		Restore: RestoreConfig{
			SettleDelay: 5 * time.Second,
			Watch:       true,
			Debounce:    500 * time.Millisecond,
		},
		Presentation: PresentationConfig{
			AppName:  "remindd",
			Desktop:  true,
			Language: "en",
		},
		Sound: SoundConfig{
			NotificationDirs: []string{"/usr/share/sounds/freedesktop/stereo"},
			AlarmDirs:        []string{"/usr/share/sounds/alarms"},
			Player:           "paplay",
		},
		Auth: AuthConfig{Mode: AuthModeDisabled},
	}
}

// ApplyEnv overrides cfg with REMINDD_* variables. Unparseable values are
// ignored.
func ApplyEnv(cfg *Config) {
	if v, ok := getEnvString("REMINDD_DB_PATH"); ok {
		cfg.Storage.Path = v
	}
	if v, ok := getEnvBool("REMINDD_CREATE_SCHEMA"); ok {
		cfg.Storage.CreateSchema = v
	}
	if v, ok := getEnvInt("REMINDD_HTTP_PORT"); ok && v > 0 {
		cfg.App.HTTP.Port = v
	}
	if v, ok := getEnvInt("REMINDD_SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.Scheduler.Buffer = v
	}
	if v, ok := getEnvBool("REMINDD_EXACT_ALARMS"); ok {
		cfg.Scheduler.ExactCapable = v
	}
	if v, ok := getEnvBool("REMINDD_DESKTOP_NOTIFICATIONS"); ok {
		cfg.Presentation.Desktop = v
	}
	if v, ok := getEnvBool("REMINDD_TERMINAL_ALERTS"); ok {
		cfg.Presentation.TerminalAlerts = v
	}
	if v, ok := getEnvString("REMINDD_LANGUAGE"); ok {
		cfg.Presentation.Language = v
	}
	if v, ok := getEnvBool("REMINDD_WATCH_DB"); ok {
		cfg.Restore.Watch = v
	}
	if v, ok := getEnvString("REMINDD_AUTH_TOKEN"); ok {
		cfg.Auth.Mode = AuthModeToken
		cfg.Auth.Token = v
	}
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
