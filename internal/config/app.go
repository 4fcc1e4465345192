package config

import "time"

// App holds the HTTP server and environment configuration.
type App struct {
	Addr            string        `env:"APP_ADDR" envDefault:":8080"`
	BaseURL         string        `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	Environment     string        `env:"APP_ENV" envDefault:"development"`
	ReadTimeout     time.Duration `env:"APP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"APP_WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// IsDevelopment reports whether the service runs in a development environment.
func (a App) IsDevelopment() bool {
	return a.Environment == "development"
}

// Redis holds the session store connection configuration.
type Redis struct {
	URL        string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}
