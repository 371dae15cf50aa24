package config

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/saascannon/saascannon-vango/internal/errors"
	"github.com/saascannon/saascannon-vango/pkg/spa"
)

const (
	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultIdleTimeout closes sessions without a live connection.
	DefaultIdleTimeout = "2m"

	// DefaultCallbackPath receives the authorization code.
	DefaultCallbackPath = "/callback"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "SAASCANNON_"

	// EnvFileName is loaded from the config directory when present.
	EnvFileName = ".env"
)

// FileNames are the config file names Load looks for, in order.
var FileNames = []string{"saascannon.json", "saascannon.yaml", "saascannon.yml"}

// Config represents the complete saascannon configuration.
type Config struct {
	// Name is the application name, used as the page title.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Port is the port the server listens on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// PublicURL is where browsers reach the app. Default: http://Host:Port.
	PublicURL string `json:"publicUrl,omitempty" yaml:"publicUrl,omitempty"`

	// Saascannon configures the tenant and the client.
	Saascannon SaascannonConfig `json:"saascannon" yaml:"saascannon"`

	// Session configures live sessions.
	Session SessionConfig `json:"session,omitempty" yaml:"session,omitempty"`

	// Log configures logging.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string

	// derivedURLs is set when PublicURL and RedirectURI were defaulted
	// from Host and Port.
	derivedURLs bool
}

// SaascannonConfig holds the tenant settings handed to the spa client.
type SaascannonConfig struct {
	Domain                string   `json:"domain" yaml:"domain"`
	ClientID              string   `json:"clientId" yaml:"clientId"`
	RedirectURI           string   `json:"redirectUri,omitempty" yaml:"redirectUri,omitempty"`
	PostLogoutRedirectURI string   `json:"postLogoutRedirectUri,omitempty" yaml:"postLogoutRedirectUri,omitempty"`
	Audience              string   `json:"audience,omitempty" yaml:"audience,omitempty"`
	Scopes                []string `json:"scopes,omitempty" yaml:"scopes,omitempty"`
	JWKSURL               string   `json:"jwksUrl,omitempty" yaml:"jwksUrl,omitempty"`
	Issuer                string   `json:"issuer,omitempty" yaml:"issuer,omitempty"`
}

// SessionConfig contains session configuration.
type SessionConfig struct {
	// IdleTimeout is how long a session survives without a live
	// connection (e.g., "2m").
	IdleTimeout string `json:"idleTimeout,omitempty" yaml:"idleTimeout,omitempty"`

	// DispatchBuffer is the size of each session's dispatch queue.
	DispatchBuffer int `json:"dispatchBuffer,omitempty" yaml:"dispatchBuffer,omitempty"`

	// SecureCookies marks the browser cookie Secure.
	SecureCookies bool `json:"secureCookies,omitempty" yaml:"secureCookies,omitempty"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// File receives logs instead of stderr when set. It is rotated at
	// MaxSizeMB.
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSizeMB  int    `json:"maxSizeMb,omitempty" yaml:"maxSizeMb,omitempty"`
	MaxBackups int    `json:"maxBackups,omitempty" yaml:"maxBackups,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory. It uses the
// first of FileNames that exists, loads EnvFileName from the same
// directory and applies environment overrides.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("S141").
		WithDetail("No " + strings.Join(FileNames, ", ") + " found in " + dir).
		WithSuggestion("Create saascannon.yaml or run 'saascannon config init'")
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("S141").
				WithDetail("No config file at " + path).
				WithSuggestion("Create saascannon.yaml or run 'saascannon config init'")
		}
		return nil, errors.New("S120").Wrap(err)
	}

	cfg := &Config{}
	if err := decode(path, data, cfg); err != nil {
		return nil, err
	}

	if err := loadEnvFile(filepath.Dir(path)); err != nil {
		return nil, err
	}
	cfg.configPath = path
	cfg.ApplyEnv(os.LookupEnv)
	cfg.applyDefaults()

	return cfg, nil
}

// FromEnv builds a configuration from defaults and environment
// overrides only.
func FromEnv() *Config {
	cfg := &Config{}
	cfg.ApplyEnv(os.LookupEnv)
	cfg.applyDefaults()
	return cfg
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			e := errors.New("S120").Wrap(err).WithSuggestion("Check that " + filepath.Base(path) + " is valid JSON")
			var syntax *json.SyntaxError
			if stderrors.As(err, &syntax) {
				line, col := position(data, syntax.Offset)
				e.WithLocation(path, line, col)
			}
			return e
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			e := errors.New("S120").Wrap(err).WithSuggestion("Check that " + filepath.Base(path) + " is valid YAML")
			if line := yamlLine(err); line > 0 {
				e.WithLocation(path, line, 0)
			}
			return e
		}
	default:
		return errors.New("S122").WithDetail("Cannot read " + path)
	}
	return nil
}

// position converts a byte offset to a 1-based line and column.
func position(data []byte, offset int64) (line, col int) {
	line, col = 1, 1
	for i := int64(0); i < offset-1 && i < int64(len(data)); i++ {
		if data[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

func yamlLine(err error) int {
	m := yamlLineRe.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func loadEnvFile(dir string) error {
	path := filepath.Join(dir, EnvFileName)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	// Variables already set in the environment win.
	if err := godotenv.Load(path); err != nil {
		return errors.New("S120").Wrap(err).WithDetail("Failed to read " + path)
	}
	return nil
}

// ApplyEnv overrides fields from SAASCANNON_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("NAME", &c.Name)
	num("PORT", &c.Port)
	str("HOST", &c.Host)
	str("PUBLIC_URL", &c.PublicURL)

	str("DOMAIN", &c.Saascannon.Domain)
	str("CLIENT_ID", &c.Saascannon.ClientID)
	str("REDIRECT_URI", &c.Saascannon.RedirectURI)
	str("POST_LOGOUT_REDIRECT_URI", &c.Saascannon.PostLogoutRedirectURI)
	str("AUDIENCE", &c.Saascannon.Audience)
	str("JWKS_URL", &c.Saascannon.JWKSURL)
	str("ISSUER", &c.Saascannon.Issuer)
	if v, ok := lookup(EnvPrefix + "SCOPES"); ok {
		c.Saascannon.Scopes = strings.Fields(strings.ReplaceAll(v, ",", " "))
	}

	str("SESSION_IDLE_TIMEOUT", &c.Session.IdleTimeout)
	num("SESSION_DISPATCH_BUFFER", &c.Session.DispatchBuffer)
	if v, ok := lookup(EnvPrefix + "SESSION_SECURE_COOKIES"); ok {
		c.Session.SecureCookies, _ = strconv.ParseBool(v)
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_FILE", &c.Log.File)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "saascannon"
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.PublicURL == "" && c.Saascannon.RedirectURI == "" {
		c.derivedURLs = true
	}
	if c.PublicURL == "" {
		c.PublicURL = "http://" + c.Address()
	}
	c.PublicURL = strings.TrimRight(c.PublicURL, "/")
	if c.Saascannon.RedirectURI == "" {
		c.Saascannon.RedirectURI = c.PublicURL + DefaultCallbackPath
	}
	if c.Session.IdleTimeout == "" {
		c.Session.IdleTimeout = DefaultIdleTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
}

var domainRe = regexp.MustCompile(`^(https?://)?[A-Za-z0-9.-]+(:\d+)?/?$`)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Min(0), validation.Max(65535)),
		validation.Field(&c.PublicURL, validation.Required, is.URL),
		validation.Field(&c.Saascannon),
		validation.Field(&c.Session),
		validation.Field(&c.Log),
	)
	if err == nil {
		return nil
	}
	e := errors.New("S121").Wrap(err)
	if c.configPath != "" {
		e.WithDetail("Invalid values in " + c.configPath + ": " + err.Error())
	}
	return e
}

// Validate implements validation.Validatable.
func (s SaascannonConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Domain, validation.Required, validation.Match(domainRe)),
		validation.Field(&s.ClientID, validation.Required),
		validation.Field(&s.RedirectURI, validation.Required, is.URL),
		validation.Field(&s.PostLogoutRedirectURI, is.URL),
		validation.Field(&s.JWKSURL, is.URL),
	)
}

// Validate implements validation.Validatable.
func (s SessionConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.IdleTimeout, validation.By(isDuration)),
		validation.Field(&s.DispatchBuffer, validation.Min(0)),
	)
}

// Validate implements validation.Validatable.
func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.In("text", "json")),
		validation.Field(&l.MaxSizeMB, validation.Min(0)),
	)
}

func isDuration(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return stderrors.New("must be a duration such as 90s or 2m")
	}
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path in the format its extension
// names.
func (c *Config) SaveTo(path string) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		return errors.New("S122").WithDetail("Cannot write " + path)
	}
	if err != nil {
		return errors.New("S120").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("S120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// SetAddress changes where the server listens. Empty host and zero port
// keep the current values. PublicURL and the redirect URI follow when
// both were derived from the old address.
func (c *Config) SetAddress(host string, port int) {
	if host != "" {
		c.Host = host
	}
	if port > 0 {
		c.Port = port
	}
	if c.derivedURLs {
		c.PublicURL = "http://" + c.Address()
		c.Saascannon.RedirectURI = c.PublicURL + DefaultCallbackPath
	}
}

// IdleTimeout returns Session.IdleTimeout as a duration.
func (c *Config) IdleTimeout() time.Duration {
	d, err := time.ParseDuration(c.Session.IdleTimeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultIdleTimeout)
	}
	return d
}

// CallbackPath returns the path of the redirect URI.
func (c *Config) CallbackPath() string {
	uri := c.Saascannon.RedirectURI
	if _, rest, ok := strings.Cut(uri, "://"); ok {
		uri = rest
	}
	if i := strings.IndexByte(uri, '/'); i >= 0 {
		path, _, _ := strings.Cut(uri[i:], "?")
		return path
	}
	return DefaultCallbackPath
}

// SpaOptions returns the spa client options this configuration describes.
func (c *Config) SpaOptions() spa.Options {
	s := c.Saascannon
	return spa.Options{
		Domain:                s.Domain,
		ClientID:              s.ClientID,
		RedirectURI:           s.RedirectURI,
		PostLogoutRedirectURI: s.PostLogoutRedirectURI,
		Audience:              s.Audience,
		Scopes:                s.Scopes,
		JWKSURL:               s.JWKSURL,
		Issuer:                s.Issuer,
	}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range FileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
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
			return "", errors.New("S141").
				WithDetail("No config file found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'saascannon config init' to create one")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working
// directory or its nearest parent that has a config file.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
