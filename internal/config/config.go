package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rhyrak/allston-schedule/internal/scheduler"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	CORS     CORSConfig
	Solver   SolverConfig
	Data     DataConfig
	Metrics  MetricsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	// ScoreTTL is how long a cached score stays valid.
	ScoreTTL time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// SolverConfig overrides the engine defaults.
type SolverConfig struct {
	SolveTimeLimit time.Duration
	SearchBudget   time.Duration
	FrontierSize   int
	BlameTopK      int
}

// DataConfig locates the input files used by the CLI when no flag names
// them.
type DataConfig struct {
	Dir              string
	ConflictsFile    string
	ScheduleFile     string
	EnrollmentFile   string
	CoursesFile      string
	LargeCoursesFile string
}

type MetricsConfig struct {
	// File, when set, receives a text-format dump of the metrics at the
	// end of a CLI run.
	File string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing .env surfaces as a path error when the file is named
		// explicitly.
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		ScoreTTL: parseDuration(v.GetString("SCORE_CACHE_TTL"), time.Hour),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Solver = SolverConfig{
		SolveTimeLimit: parseDuration(v.GetString("SOLVE_TIME_LIMIT"), 10*time.Second),
		SearchBudget:   parseDuration(v.GetString("SEARCH_BUDGET"), 10*time.Minute),
		FrontierSize:   v.GetInt("FRONTIER_SIZE"),
		BlameTopK:      v.GetInt("BLAME_TOP_K"),
	}

	dir := v.GetString("DATA_DIR")
	cfg.Data = DataConfig{
		Dir:              dir,
		ConflictsFile:    inDir(dir, v.GetString("CONFLICTS_FILE")),
		ScheduleFile:     inDir(dir, v.GetString("SCHEDULE_FILE")),
		EnrollmentFile:   inDir(dir, v.GetString("ENROLLMENT_FILE")),
		CoursesFile:      inDir(dir, v.GetString("COURSES_FILE")),
		LargeCoursesFile: inDir(dir, v.GetString("LARGE_COURSES_FILE")),
	}

	cfg.Metrics = MetricsConfig{File: v.GetString("METRICS_FILE")}

	return cfg, nil
}

// Apply copies the process settings onto an engine configuration.
func (c *Config) Apply(sc *scheduler.Configuration) {
	if c.Solver.SolveTimeLimit > 0 {
		sc.SolveTimeLimit = c.Solver.SolveTimeLimit
	}
	if c.Solver.SearchBudget > 0 {
		sc.SearchBudget = c.Solver.SearchBudget
	}
	if c.Solver.FrontierSize > 0 {
		sc.FrontierSize = c.Solver.FrontierSize
	}
	if c.Solver.BlameTopK > 0 {
		sc.BlameTopK = c.Solver.BlameTopK
	}
	if c.Data.ConflictsFile != "" {
		sc.ConflictsFile = c.Data.ConflictsFile
	}
	if c.Data.ScheduleFile != "" {
		sc.ScheduleFile = c.Data.ScheduleFile
	}
	if c.Data.EnrollmentFile != "" {
		sc.EnrollmentFile = c.Data.EnrollmentFile
	}
	if c.Data.CoursesFile != "" {
		sc.CoursesFile = c.Data.CoursesFile
	}
	if c.Data.LargeCoursesFile != "" {
		sc.LargeCoursesFile = c.Data.LargeCoursesFile
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "allston_schedule")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SCORE_CACHE_TTL", "1h")

	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVE_TIME_LIMIT", "10s")
	v.SetDefault("SEARCH_BUDGET", "10m")
	v.SetDefault("FRONTIER_SIZE", 200)
	v.SetDefault("BLAME_TOP_K", 3)

	v.SetDefault("DATA_DIR", "")
	v.SetDefault("CONFLICTS_FILE", "")
	v.SetDefault("SCHEDULE_FILE", "")
	v.SetDefault("ENROLLMENT_FILE", "")
	v.SetDefault("COURSES_FILE", "")
	v.SetDefault("LARGE_COURSES_FILE", "")

	v.SetDefault("METRICS_FILE", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func inDir(dir, name string) string {
	if name == "" || dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}
