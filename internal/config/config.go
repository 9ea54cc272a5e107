package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env     string `yaml:"app_env"`
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		ReadTimeout        string   `yaml:"read_timeout"`
		WriteTimeout       string   `yaml:"write_timeout"`
		ShutdownTimeout    string   `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	// Store elige el backend clave-valor jerárquico.
	// driver: memory | redis | postgres
	Store struct {
		Driver string `yaml:"driver"`
		Redis  struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Postgres struct {
			DSN      string `yaml:"dsn"`
			MaxConns int32  `yaml:"max_conns"`
			Migrate  bool   `yaml:"migrate"`
		} `yaml:"postgres"`
	} `yaml:"store"`

	// SMTP es la cuenta fija usada para los mails de OTP.
	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		From     string `yaml:"from"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		// auto | starttls | ssl | none
		TLS string `yaml:"tls"`
	} `yaml:"smtp"`

	Google struct {
		ClientID     string   `yaml:"client_id"`
		ClientSecret string   `yaml:"client_secret"`
		RedirectURL  string   `yaml:"redirect_url"`
		Scopes       []string `yaml:"scopes"`
		// StateSecret firma el parámetro state (HS256). Vacío = state es el userId crudo.
		StateSecret string `yaml:"state_secret"`
		// Overrides de endpoints (tests / proxies).
		AuthURL     string `yaml:"auth_url"`
		TokenURL    string `yaml:"token_url"`
		RevokeURL   string `yaml:"revoke_url"`
		GmailURL    string `yaml:"gmail_url"`
		HTTPTimeout string `yaml:"http_timeout"`
	} `yaml:"google"`

	OTP struct {
		TTL         string `yaml:"ttl"`
		MaxAttempts int    `yaml:"max_attempts"`
		BrandName   string `yaml:"brand_name"`
		// SweepSchedule es un spec cron; vacío desactiva el barrido.
		SweepSchedule string `yaml:"sweep_schedule"`
	} `yaml:"otp"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		// memory | redis (vacío = redis si store.driver=redis, si no memory)
		Backend string `yaml:"backend"`
		SendOTP struct {
			PerIP      RateRule `yaml:"per_ip"`
			PerAddress RateRule `yaml:"per_address"`
		} `yaml:"send_otp"`
		VerifyOTP struct {
			PerIP RateRule `yaml:"per_ip"`
		} `yaml:"verify_otp"`
	} `yaml:"rate"`

	History struct {
		DefaultLimit int `yaml:"default_limit"`
		MaxLimit     int `yaml:"max_limit"`
	} `yaml:"history"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// RateRule es una ventana fija: Limit requests cada Window.
type RateRule struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"`
}

// Load lee el YAML (si path no está vacío), aplica defaults, overrides por env y valida.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "hellomail"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "15s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "30s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if c.Store.Redis.Prefix == "" {
		c.Store.Redis.Prefix = "hellomail:"
	}
	if c.Store.Postgres.MaxConns == 0 {
		c.Store.Postgres.MaxConns = 10
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if len(c.Google.Scopes) == 0 {
		c.Google.Scopes = []string{
			"https://www.googleapis.com/auth/gmail.send",
			"https://www.googleapis.com/auth/userinfo.email",
		}
	}
	if c.Google.HTTPTimeout == "" {
		c.Google.HTTPTimeout = "15s"
	}
	if c.OTP.TTL == "" {
		c.OTP.TTL = "5m"
	}
	if c.OTP.MaxAttempts == 0 {
		c.OTP.MaxAttempts = 5
	}
	if c.OTP.BrandName == "" {
		c.OTP.BrandName = "Load Radar AI"
	}
	if c.Rate.Backend == "" {
		if c.Store.Driver == "redis" {
			c.Rate.Backend = "redis"
		} else {
			c.Rate.Backend = "memory"
		}
	}
	defRule(&c.Rate.SendOTP.PerIP, 20, "10m")
	defRule(&c.Rate.SendOTP.PerAddress, 5, "10m")
	defRule(&c.Rate.VerifyOTP.PerIP, 30, "1m")
	if c.History.DefaultLimit == 0 {
		c.History.DefaultLimit = 50
	}
	if c.History.MaxLimit == 0 {
		c.History.MaxLimit = 200
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func defRule(r *RateRule, limit int, window string) {
	if r.Limit == 0 {
		r.Limit = limit
	}
	if r.Window == "" {
		r.Window = window
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvCSV(key string) ([]string, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("PORT"); ok {
		// compat con plataformas que solo inyectan PORT
		c.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	// STORE
	if v, ok := getEnvStr("STORE_DRIVER"); ok {
		c.Store.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Store.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Store.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Store.Redis.Prefix = v
	}
	if v, ok := getEnvStr("POSTGRES_DSN"); ok {
		c.Store.Postgres.DSN = v
	}
	if v, ok := getEnvBool("POSTGRES_MIGRATE"); ok {
		c.Store.Postgres.Migrate = v
	}

	// SMTP
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_TLS"); ok {
		c.SMTP.TLS = strings.ToLower(v)
	}

	// GOOGLE
	if v, ok := getEnvStr("GOOGLE_CLIENT_ID"); ok {
		c.Google.ClientID = v
	}
	if v, ok := getEnvStr("GOOGLE_CLIENT_SECRET"); ok {
		c.Google.ClientSecret = v
	}
	if v, ok := getEnvStr("GOOGLE_REDIRECT_URL"); ok {
		c.Google.RedirectURL = v
	}
	if v, ok := getEnvCSV("GOOGLE_SCOPES"); ok {
		c.Google.Scopes = v
	}
	if v, ok := getEnvStr("GOOGLE_STATE_SECRET"); ok {
		c.Google.StateSecret = v
	}

	// OTP
	if v, ok := getEnvStr("OTP_TTL"); ok {
		c.OTP.TTL = v
	}
	if v, ok := getEnvInt("OTP_MAX_ATTEMPTS"); ok {
		c.OTP.MaxAttempts = v
	}
	if v, ok := getEnvStr("OTP_BRAND_NAME"); ok {
		c.OTP.BrandName = v
	}
	if v, ok := getEnvStr("OTP_SWEEP_SCHEDULE"); ok {
		c.OTP.SweepSchedule = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_BACKEND"); ok {
		c.Rate.Backend = strings.ToLower(v)
	}

	// LOG
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}

// Validate chequea drivers conocidos y que las duraciones parseen.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Store.Redis.Addr) == "" {
			return fmt.Errorf("config: store.redis.addr requerido con driver=redis")
		}
	case "postgres":
		if strings.TrimSpace(c.Store.Postgres.DSN) == "" {
			return fmt.Errorf("config: store.postgres.dsn requerido con driver=postgres")
		}
	default:
		return fmt.Errorf("config: store.driver desconocido %q", c.Store.Driver)
	}
	if c.Rate.Backend != "memory" && c.Rate.Backend != "redis" {
		return fmt.Errorf("config: rate.backend desconocido %q", c.Rate.Backend)
	}
	if c.Rate.Backend == "redis" && strings.TrimSpace(c.Store.Redis.Addr) == "" {
		return fmt.Errorf("config: rate.backend=redis requiere store.redis.addr")
	}
	if c.OTP.MaxAttempts < 1 {
		return fmt.Errorf("config: otp.max_attempts debe ser >= 1")
	}

	durs := map[string]string{
		"server.read_timeout":       c.Server.ReadTimeout,
		"server.write_timeout":      c.Server.WriteTimeout,
		"server.shutdown_timeout":   c.Server.ShutdownTimeout,
		"google.http_timeout":       c.Google.HTTPTimeout,
		"otp.ttl":                   c.OTP.TTL,
		"rate.send_otp.per_ip":      c.Rate.SendOTP.PerIP.Window,
		"rate.send_otp.per_address": c.Rate.SendOTP.PerAddress.Window,
		"rate.verify_otp.per_ip":    c.Rate.VerifyOTP.PerIP.Window,
	}
	for name, v := range durs {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	return nil
}

// Dur parsea una duración ya validada; devuelve def si está vacía o es inválida.
func Dur(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
		return d
	}
	return def
}
