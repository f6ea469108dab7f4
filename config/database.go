package config

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"yoohoo"`
	Password string `env:"PASSWORD"                envDefault:"yoohoo"`
	Name     string `env:"NAME"                    envDefault:"yoohoo"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration. Redis backs webhook redelivery
// detection only; when Enabled is false the webhook runs without it.
type RedisConfig struct {
	Enabled  bool   `env:"ENABLED"  envDefault:"true"`
	URI      string `env:"URI"      envDefault:"localhost:6379"` // host:port or redis:// / rediss:// URL
	Password string `env:"PASSWORD" envDefault:""`
}
