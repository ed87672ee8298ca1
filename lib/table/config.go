package table

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// --------------------------------------------------------------------------
// Library Options
// --------------------------------------------------------------------------

// Options configures the process-wide library behavior. Table capacity is not
// an option: it is an explicit argument of every create call.
type Options struct {
	// Debug enables creation-site tracking: each table remembers the file and
	// line it was created at, and the shutdown sweep logs the site of every
	// table that was never destroyed.
	Debug bool
	// LogLevel is one of debug, info, warn, error. Ignored when Logger is set.
	LogLevel string
	// Logger replaces the library's own logger when non-nil.
	Logger *logrus.Logger
}

// DefaultOptions returns the default library options.
func DefaultOptions() *Options {
	return &Options{
		Debug:    false,
		LogLevel: "info",
	}
}

// OptionsFromEnv builds options from the environment. It loads .env and
// .env.local first (missing files are fine) and then reads GOHT_DEBUG and
// GOHT_LOG_LEVEL.
func OptionsFromEnv() *Options {
	// load env files if they exist
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("goht")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	opts := DefaultOptions()
	opts.Debug = viper.GetBool("debug")
	if lvl := viper.GetString("log-level"); lvl != "" {
		opts.LogLevel = lvl
	}
	return opts
}

// Configure applies opts to the library. It can be called at any time; debug
// tracking only affects tables created afterwards. Passing nil restores the
// defaults.
func Configure(opts *Options) {
	defaultLib.configure(opts)
}

func (l *library) configure(opts *Options) {
	if opts == nil {
		opts = DefaultOptions()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.debug.Store(opts.Debug)
	if opts.Logger != nil {
		l.log = opts.Logger
		return
	}
	l.log = newLogger(opts.LogLevel)
}

// newLogger builds the library's default logger. An unknown level falls back
// to info rather than failing: logging must never block table creation.
func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
