package application

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lk2023060901/sdui-garden-go/internal/sdui/compressor"
	"github.com/lk2023060901/sdui-garden-go/internal/sdui/registry"
	"github.com/lk2023060901/sdui-garden-go/internal/sdui/transformer"
	zlog "github.com/lk2023060901/sdui-garden-go/pkg/log"
	"github.com/lk2023060901/sdui-garden-go/pkg/metrics"
	"github.com/lk2023060901/sdui-garden-go/pkg/util/merr"
	zviper "github.com/lk2023060901/sdui-garden-go/pkg/util/viper"
)

var registerMetricsOnce sync.Once

// Application is the main runtime container for an sdui codec service.
// It owns configuration, the component registry and the document transformer.
type Application struct {
	cfg     *zviper.Config
	loggers map[string]*zlog.MLogger

	reg  *registry.Registry
	tr   *transformer.Transformer
	comp *compressor.ZstdCompressor
}

// New creates a new Application instance.
func New() *Application {
	return &Application{}
}

// Run is the entry of the application.
// It parses command-line arguments (os.Args) and loads configuration file
// using the following priority:
//   1. Default: ./config.yaml
//   2. Env: SDUI_CONFIG_FILE_PATH
//   3. CLI: --config <path> or --config=<path>
func (a *Application) Run() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.initLogging(); err != nil {
		return err
	}
	if err := a.initCodec(); err != nil {
		return err
	}
	registerMetricsOnce.Do(func() {
		metrics.Register(prometheus.DefaultRegisterer)
	})

	return nil
}

// Config returns the loaded configuration, if any.
func (a *Application) Config() *zviper.Config {
	return a.cfg
}

// Registry returns the component registry.
// Components declared in configuration are already registered; callers may
// register additional descriptors (with custom factories) on top of them.
func (a *Application) Registry() *registry.Registry {
	return a.reg
}

// Transformer returns the document transformer built from configuration.
func (a *Application) Transformer() *transformer.Transformer {
	return a.tr
}

// Close releases resources owned by the application.
func (a *Application) Close() {
	if a.comp != nil {
		a.comp.Close()
	}
}

// Logger returns a named logger created from configuration.
// If the name is unknown, it falls back to the global logger.
func (a *Application) Logger(name string) *zlog.MLogger {
	if a.loggers == nil {
		return &zlog.MLogger{Logger: zlog.L()}
	}
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return &zlog.MLogger{Logger: zlog.L()}
}

// loadConfig resolves config file path and loads it via viper wrapper.
func (a *Application) loadConfig() (*zviper.Config, error) {
	configPath := "./config.yaml"

	if envPath := os.Getenv("SDUI_CONFIG_FILE_PATH"); envPath != "" {
		configPath = envPath
	}

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value after --config")
			}
			configPath = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--config=") {
			val := strings.TrimPrefix(arg, "--config=")
			if val != "" {
				configPath = val
			}
			continue
		}
	}

	cfg := zviper.New()
	if err := cfg.LoadFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file %q: %w", configPath, err)
	}

	return cfg, nil
}

// initLogging initializes global and module-level loggers.
func (a *Application) initLogging() error {
	if err := a.initGlobalLoggerFromEnv(); err != nil {
		return err
	}
	if err := a.initModuleLoggersFromConfig(); err != nil {
		return err
	}
	return nil
}

// initGlobalLoggerFromEnv configures the process-wide logger based on SDUI_LOG_* env vars.
//
// Priority:
//   - SDUI_LOG_ENABLE: "1"/"true" to enable outputs; others treated as disabled.
//   - SDUI_LOG_LEVEL: log level (default "info").
//   - SDUI_LOG_STDOUT: whether to log to stdout (default false).
//   - SDUI_LOG_FILE_DIR: log directory.
//   - SDUI_LOG_FILE: log file name (empty means no file).
//   - SDUI_LOG_FORMAT: log format ("console" or "json", default "console").
func (a *Application) initGlobalLoggerFromEnv() error {
	enabled := getenvBool("SDUI_LOG_ENABLE", false)

	cfg := &zlog.Config{
		Level:             getenvDefault("SDUI_LOG_LEVEL", "info"),
		Format:            getenvDefault("SDUI_LOG_FORMAT", "console"),
		DisableTimestamp:  false,
		Stdout:            getenvBool("SDUI_LOG_STDOUT", false),
		DisableCaller:     false,
		DisableStacktrace: false,
		File: zlog.FileLogConfig{
			RootPath: getenvDefault("SDUI_LOG_FILE_DIR", ""),
			Filename: getenvDefault("SDUI_LOG_FILE", ""),
		},
	}

	// When not enabled, direct all outputs to a discarded sink.
	if !enabled {
		cfg.Stdout = false
		cfg.File.Filename = ""
	}

	logger, props, err := zlog.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("init global logger from env: %w", err)
	}
	zlog.ReplaceGlobals(logger, props)
	return nil
}

// initModuleLoggersFromConfig creates named loggers from YAML config under "logging" key.
//
// Example:
//   logging:
//     codec:
//       level: debug
//       stdout: true
//       file:
//         rootpath: ./logs
//         filename: codec.log
func (a *Application) initModuleLoggersFromConfig() error {
	if a.cfg == nil {
		return nil
	}

	raw := make(map[string]zlog.Config)
	if err := a.cfg.UnmarshalKey("logging", &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	a.loggers = make(map[string]*zlog.MLogger, len(raw))
	for name, lc := range raw {
		cfgCopy := lc
		logger, _, err := zlog.InitLogger(&cfgCopy)
		if err != nil {
			return fmt.Errorf("init module logger %q: %w", name, err)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger}
	}

	return nil
}

// componentConfig mirrors one entry of the YAML "components" list.
type componentConfig struct {
	Tag          string   `mapstructure:"tag"`
	Version      string   `mapstructure:"version"`
	Strategy     string   `mapstructure:"strategy"`
	Fields       []string `mapstructure:"fields"`
	ContentField string   `mapstructure:"contentField"`
}

// codecConfig mirrors the YAML "codec" section.
type codecConfig struct {
	MaxDepth          int    `mapstructure:"maxDepth"`
	MaxFallbackDepth  int    `mapstructure:"maxFallbackDepth"`
	MaxFallbackFields int    `mapstructure:"maxFallbackFields"`
	Compression       string `mapstructure:"compression"`
}

// initCodec builds the registry and the transformer from configuration.
//
// Example:
//   codec:
//     maxDepth: 512
//     compression: zstd
//   components:
//     - tag: HeroBanner
//       version: 2.1.0
//       strategy: view
//       fields: [title, imageUrl]
//     - tag: Markdown
//       version: 1.0.0
//       strategy: contentProp
//       contentField: content
func (a *Application) initCodec() error {
	a.reg = registry.New()

	var comps []componentConfig
	if a.cfg != nil {
		if err := a.cfg.UnmarshalKey("components", &comps); err != nil {
			return fmt.Errorf("parse components config: %w", err)
		}
	}
	for _, c := range comps {
		strategy, err := parseStrategy(c.Strategy)
		if err != nil {
			return err
		}
		desc := registry.Descriptor{
			Tag:          c.Tag,
			Version:      c.Version,
			Strategy:     strategy,
			Fields:       c.Fields,
			ContentField: c.ContentField,
		}
		if err := a.reg.Register(desc); err != nil {
			return err
		}
	}

	var cc codecConfig
	if a.cfg != nil {
		if err := a.cfg.UnmarshalKey("codec", &cc); err != nil {
			return fmt.Errorf("parse codec config: %w", err)
		}
	}

	opts := transformer.Options{
		Registry:          a.reg,
		MaxDepth:          cc.MaxDepth,
		MaxFallbackDepth:  cc.MaxFallbackDepth,
		MaxFallbackFields: cc.MaxFallbackFields,
	}
	switch strings.ToLower(strings.TrimSpace(cc.Compression)) {
	case "", "none":
	case "zstd":
		comp, err := compressor.NewZstdCompressor()
		if err != nil {
			return err
		}
		a.comp = comp
		opts.Compressor = comp
	default:
		return merr.WrapErrParameterInvalidMsg("unknown compression %q", cc.Compression)
	}

	tr, err := transformer.New(opts)
	if err != nil {
		return err
	}
	a.tr = tr
	return nil
}

func parseStrategy(s string) (registry.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "view":
		return registry.StrategyView, nil
	case "container":
		return registry.StrategyContainer, nil
	case "contentprop", "content-prop":
		return registry.StrategyContentProp, nil
	default:
		return 0, merr.WrapErrStrategyInvalid(s)
	}
}

func getenvDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getenvBool(key string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
