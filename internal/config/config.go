package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vango-dev/navshell/internal/errors"
	"github.com/vango-dev/navshell/pkg/router"
)

const (
	// JSONFileName is the JSON configuration file name.
	JSONFileName = "navshell.json"

	// TOMLFileName is the TOML configuration file name. It wins over
	// JSONFileName when both exist.
	TOMLFileName = "navshell.toml"

	// DefaultPort is the default shell server port.
	DefaultPort = 8080

	// DefaultHost is the default shell server host.
	DefaultHost = "localhost"

	// DefaultSocketPath is where browsers connect their navigation socket.
	DefaultSocketPath = "/_nav"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultHandshakeTimeout bounds the wait for a browser's init frame.
	DefaultHandshakeTimeout = "5s"
)

// Format identifies a configuration encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// Config represents a navshell.json or navshell.toml file.
type Config struct {
	// Name is the application name shown in the shell page title.
	Name string `json:"name,omitempty" toml:"name,omitempty"`

	// Base is the path prefix the application is served under (default "/").
	Base string `json:"base,omitempty" toml:"base,omitempty"`

	// Routes is the ordered route manifest. Order decides which route wins
	// when several match.
	Routes []RouteConfig `json:"routes,omitempty" toml:"routes,omitempty"`

	// Server contains shell server configuration.
	Server ServerConfig `json:"server,omitempty" toml:"server,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty" toml:"metrics,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty" toml:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// RouteConfig is one entry of the route manifest.
type RouteConfig struct {
	// Path is the pattern, e.g. "/user/:id" or "/docs/*page".
	Path string `json:"path" toml:"path"`

	// Name is the optional unique route name.
	Name string `json:"name,omitempty" toml:"name,omitempty"`

	// View is the view key the rendering layer displays.
	View string `json:"view,omitempty" toml:"view,omitempty"`
}

// ServerConfig contains shell server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" toml:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" toml:"port,omitempty"`

	// SocketPath is the navigation WebSocket endpoint.
	SocketPath string `json:"socketPath,omitempty" toml:"socketPath,omitempty"`

	// HandshakeTimeout bounds the wait for a browser's init frame (e.g. "5s").
	HandshakeTimeout string `json:"handshakeTimeout,omitempty" toml:"handshakeTimeout,omitempty"`

	// AllowedOrigins lists origins allowed to open the navigation socket.
	// Empty allows same-origin requests only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" toml:"allowedOrigins,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes metrics on Path.
	Enabled bool `json:"enabled,omitempty" toml:"enabled,omitempty"`

	// Path is the metrics endpoint.
	Path string `json:"path,omitempty" toml:"path,omitempty"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty" toml:"namespace,omitempty"`
}

// DefaultRoutes returns the built-in route manifest.
func DefaultRoutes() []RouteConfig {
	return []RouteConfig{
		{Path: "/", Name: "home", View: "HomeView"},
		{Path: "/troubleshooting", Name: "troubleshooting", View: "TroubleshootingView"},
		{Path: "/corrosionai", Name: "corrosion-ai", View: "CorrosionAIView"},
		{Path: "/safetyadvisor", Name: "safety-advisor", View: "SafetyAdvisorView"},
		{Path: "/vcra", Name: "vcra", View: "VCRAView"},
	}
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Name:   "navshell",
		Base:   "/",
		Routes: DefaultRoutes(),
		Server: ServerConfig{
			Host:             DefaultHost,
			Port:             DefaultPort,
			SocketPath:       DefaultSocketPath,
			HandshakeTimeout: DefaultHandshakeTimeout,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      DefaultMetricsPath,
			Namespace: "navshell",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory. It looks for
// navshell.toml, then navshell.json.
func Load(dir string) (*Config, error) {
	for _, name := range []string{TOMLFileName, JSONFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New(errors.CodeConfigNotFound).
		WithDetail("No " + TOMLFileName + " or " + JSONFileName + " found in " + dir)
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension; anything but ".toml" is read as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithDetail("No configuration file at " + path).
				Wrap(err)
		}
		return nil, errors.New(errors.CodeConfigParse).Wrap(err)
	}

	cfg, err := parse(data, FormatFor(path), path)
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes data in the given format and applies defaults.
func Parse(data []byte, format Format) (*Config, error) {
	return parse(data, format, "")
}

// FormatFor returns the format implied by a file name.
func FormatFor(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".toml") {
		return FormatTOML
	}
	return FormatJSON
}

func parse(data []byte, format Format, path string) (*Config, error) {
	cfg := New()
	// A file that lists routes replaces the built-in manifest entirely.
	cfg.Routes = nil

	switch format {
	case FormatTOML:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			e := errors.New(errors.CodeConfigParse).
				WithSuggestion("Check that the file is valid TOML").
				Wrap(err)
			var perr toml.ParseError
			if path != "" && stderrors.As(err, &perr) {
				e.WithLocation(path, perr.Position.Line, 0)
			}
			return nil, e
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			e := errors.New(errors.CodeConfigParse).
				WithSuggestion("Check that the file is valid JSON").
				Wrap(err)
			var serr *json.SyntaxError
			if path != "" && stderrors.As(err, &serr) {
				line, col := lineCol(data, serr.Offset)
				e.WithLocation(path, line, col)
			}
			return nil, e
		}
	default:
		return nil, errors.New(errors.CodeConfigParse).
			WithDetail(fmt.Sprintf("Unknown configuration format %q", format))
	}

	cfg.applyDefaults()
	return cfg, nil
}

// lineCol converts a byte offset to a 1-based line and column.
func lineCol(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path in the format its extension
// implies.
func (c *Config) SaveTo(path string) error {
	var buf bytes.Buffer
	if FormatFor(path) == FormatTOML {
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return errors.New(errors.CodeConfigInvalid).Wrap(err)
		}
	} else {
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return errors.New(errors.CodeConfigInvalid).Wrap(err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.New(errors.CodeInternal).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields. An empty route
// manifest gets the built-in routes.
func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "navshell"
	}
	if c.Base == "" {
		c.Base = "/"
	}
	if len(c.Routes) == 0 {
		c.Routes = DefaultRoutes()
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.SocketPath == "" {
		c.Server.SocketPath = DefaultSocketPath
	}
	if c.Server.HandshakeTimeout == "" {
		c.Server.HandshakeTimeout = DefaultHandshakeTimeout
	}

	// Metrics
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "navshell"
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid, including that the route
// manifest compiles into a table.
func (c *Config) Validate() error {
	invalid := func(detail string) error {
		return errors.New(errors.CodeConfigInvalid).WithDetail(detail)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("Port must be between 0 and 65535")
	}
	if !strings.HasPrefix(c.Base, "/") {
		return invalid("Base must start with '/'")
	}
	if !strings.HasPrefix(c.Server.SocketPath, "/") {
		return invalid("Socket path must start with '/'")
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("Metrics path must start with '/'")
	}
	if c.Metrics.Path == c.Server.SocketPath {
		return invalid("Metrics path and socket path must differ")
	}
	if d, err := time.ParseDuration(c.Server.HandshakeTimeout); err != nil || d <= 0 {
		return invalid("Handshake timeout must be a positive duration such as \"5s\"")
	}
	if err := c.Log.validate(); err != nil {
		return invalid(err.Error())
	}
	if _, err := c.Table(); err != nil {
		return err
	}
	return nil
}

// Table compiles the route manifest. View keys become the routes' views.
func (c *Config) Table() (*router.Table, error) {
	defs := make([]router.Definition, len(c.Routes))
	for i, r := range c.Routes {
		defs[i] = router.Definition{Path: r.Path, Name: r.Name}
		if r.View != "" {
			defs[i].View = r.View
		}
	}

	table, err := router.Register(defs...)
	if err != nil {
		return nil, errors.Classify(err).
			WithSuggestion("Fix the routes in " + c.source())
	}
	return table, nil
}

// HandshakeDuration returns the parsed handshake timeout.
func (c *Config) HandshakeDuration() time.Duration {
	d, err := time.ParseDuration(c.Server.HandshakeTimeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultHandshakeTimeout)
	}
	return d
}

// Address returns the listen address of the shell server.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

func (c *Config) source() string {
	if c.configPath != "" {
		return c.configPath
	}
	return "the configuration"
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{TOMLFileName, JSONFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the directory holding a
// configuration file.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfigNotFound).
				WithDetail("No configuration found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the working directory or its
// nearest parent that has one. Without any file, the defaults are returned.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		cfg := New()
		return cfg, nil
	}

	return Load(root)
}
