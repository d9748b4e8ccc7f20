package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
)

// EnvPrefix prefixes every environment override, e.g. GOACCESS_HUB_PORT.
const EnvPrefix = "GOACCESS_HUB"

// DefaultFile is read when no --config flag is given and it exists.
const DefaultFile = "/etc/goaccess-hub/config.yaml"

// Config is the installer configuration. It is passed by value into every
// collaborator; use the With* helpers to derive a changed copy.
type Config struct {
	Domain       string `mapstructure:"domain" yaml:"domain" json:"domain"`
	SiteUser     string `mapstructure:"site_user" yaml:"site_user" json:"site_user"`
	LogFormat    string `mapstructure:"log_format" yaml:"log_format" json:"log_format"`
	CustomFormat string `mapstructure:"custom_format" yaml:"custom_format,omitempty" json:"custom_format,omitempty"`
	Port         int    `mapstructure:"port" yaml:"port" json:"port"`
	KeepLast     int    `mapstructure:"keep_last" yaml:"keep_last" json:"keep_last"`
	SkipSSL      bool   `mapstructure:"skip_ssl" yaml:"skip_ssl" json:"skip_ssl"`

	// Root prefixes every absolute path below; "/" in production.
	Root        string `mapstructure:"root" yaml:"root,omitempty" json:"root"`
	ConfigDir   string `mapstructure:"config_dir" yaml:"config_dir" json:"config_dir"`
	DataDir     string `mapstructure:"data_dir" yaml:"data_dir" json:"data_dir"`
	LogDir      string `mapstructure:"log_dir" yaml:"log_dir" json:"log_dir"`
	CollectDir  string `mapstructure:"collect_dir" yaml:"collect_dir" json:"collect_dir"`
	SSHKeyPath  string `mapstructure:"ssh_key_path" yaml:"ssh_key_path" json:"ssh_key_path"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name" json:"service_name"`

	// CollectSchedule is a crontab schedule for the rsync collection script.
	CollectSchedule string `mapstructure:"collect_schedule" yaml:"collect_schedule" json:"collect_schedule"`

	ClpctlBin   string `mapstructure:"clpctl_bin" yaml:"clpctl_bin" json:"clpctl_bin"`
	GoAccessBin string `mapstructure:"goaccess_bin" yaml:"goaccess_bin" json:"goaccess_bin"`
}

// Defaults returns the configuration used on a stock CloudPanel host.
func Defaults() Config {
	return Config{
		LogFormat:       "standard",
		Port:            7890,
		KeepLast:        30,
		Root:            "/",
		ConfigDir:       "/etc/goaccess-hub",
		DataDir:         "/var/lib/goaccess-hub",
		LogDir:          "/var/log/goaccess-hub",
		CollectDir:      "/var/log/goaccess-hub/remote",
		SSHKeyPath:      "/root/.ssh/goaccess_hub_ed25519",
		ServiceName:     "goaccess-hub",
		CollectSchedule: "*/15 * * * *",
		ClpctlBin:       "clpctl",
		GoAccessBin:     "goaccess",
	}
}

// Load layers defaults, an optional YAML file and GOACCESS_HUB_* env vars.
// An empty path reads DefaultFile when it exists; an explicit path must
// exist.
func Load(path string) (Config, error) {
	v := viper.New()
	def := Defaults()
	for key, val := range map[string]any{
		"domain":           def.Domain,
		"site_user":        def.SiteUser,
		"log_format":       def.LogFormat,
		"custom_format":    def.CustomFormat,
		"port":             def.Port,
		"keep_last":        def.KeepLast,
		"skip_ssl":         def.SkipSSL,
		"root":             def.Root,
		"config_dir":       def.ConfigDir,
		"data_dir":         def.DataDir,
		"log_dir":          def.LogDir,
		"collect_dir":      def.CollectDir,
		"ssh_key_path":     def.SSHKeyPath,
		"service_name":     def.ServiceName,
		"collect_schedule": def.CollectSchedule,
		"clpctl_bin":       def.ClpctlBin,
		"goaccess_bin":     def.GoAccessBin,
	} {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(filepath.Base(DefaultFile), ".yaml"))
		v.AddConfigPath(filepath.Dir(DefaultFile))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, exitcodes.WrapError(exitcodes.InvalidArgs, "failed to read config", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, exitcodes.WrapError(exitcodes.InvalidArgs, "failed to decode config", err)
	}
	return cfg, nil
}

// FilePath is where install records the resolved configuration so later
// commands (doctor, servers, logs) see the same values.
func (c Config) FilePath() string { return c.Path(filepath.Join(c.ConfigDir, "config.yaml")) }

// YAML renders c as a config file. Root is a per-invocation setting and is
// left out.
func (c Config) YAML() (string, error) {
	c.Root = ""
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return "# Written by goaccess-hub install.\n" + string(b), nil
}

// Validate checks the fields that do not come from interactive prompts.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return exitcodes.ValidationErrf("port %d out of range (1-65535)", c.Port)
	}
	if c.KeepLast < 0 {
		return exitcodes.ValidationErrf("keep_last must not be negative, got %d", c.KeepLast)
	}
	for name, p := range map[string]string{
		"root":         c.Root,
		"config_dir":   c.ConfigDir,
		"data_dir":     c.DataDir,
		"log_dir":      c.LogDir,
		"collect_dir":  c.CollectDir,
		"ssh_key_path": c.SSHKeyPath,
	} {
		if !filepath.IsAbs(p) {
			return exitcodes.ValidationErrf("%s must be an absolute path, got %q", name, p)
		}
	}
	if strings.TrimSpace(c.ServiceName) == "" {
		return exitcodes.ValidationErr("service_name is empty")
	}
	if len(strings.Fields(c.CollectSchedule)) != 5 {
		return exitcodes.ValidationErrf("collect_schedule %q is not a 5-field cron schedule", c.CollectSchedule)
	}
	return nil
}

func (c Config) WithDomain(d string) Config {
	c.Domain = strings.ToLower(strings.TrimSpace(d))
	return c
}

func (c Config) WithSiteUser(u string) Config {
	c.SiteUser = strings.TrimSpace(u)
	return c
}

// WithRoot relocates every file the installer writes under root.
func (c Config) WithRoot(root string) Config {
	c.Root = root
	return c
}

func (c Config) WithLogFormat(name, custom string) Config {
	c.LogFormat = name
	c.CustomFormat = custom
	return c
}

// Path resolves an absolute path against Root.
func (c Config) Path(p string) string {
	if c.Root == "" || c.Root == "/" {
		return p
	}
	return filepath.Join(c.Root, p)
}

// GoAccessConf is the GoAccess configuration file the service reads.
func (c Config) GoAccessConf() string { return filepath.Join(c.ConfigDir, "goaccess.conf") }

// GoAccessConfPath is GoAccessConf under Root.
func (c Config) GoAccessConfPath() string { return c.Path(c.GoAccessConf()) }

// ServersFile is the remote server inventory.
func (c Config) ServersFile() string { return c.Path(filepath.Join(c.ConfigDir, "servers.yaml")) }

// CredentialsFile holds the generated site user password.
func (c Config) CredentialsFile() string { return c.Path(filepath.Join(c.ConfigDir, "credentials")) }

// CollectScript is the generated rsync collection script cron runs.
func (c Config) CollectScript() string { return filepath.Join(c.DataDir, "collect-logs.sh") }

func (c Config) CollectScriptPath() string { return c.Path(c.CollectScript()) }

// UnitPath is the systemd unit for the GoAccess real-time server.
func (c Config) UnitPath() string {
	return c.Path(filepath.Join("/etc/systemd/system", c.ServiceName+".service"))
}

// DBPath is GoAccess's on-disk store used by persist/restore.
func (c Config) DBPath() string { return filepath.Join(c.DataDir, "db") }

func (c Config) DebugLogPath() string   { return filepath.Join(c.LogDir, "goaccess-debug.log") }
func (c Config) CollectLogPath() string { return filepath.Join(c.LogDir, "collect.log") }
func (c Config) AuditLogPath() string   { return filepath.Join(c.LogDir, "install.log") }

// SiteRoot is the CloudPanel document root of the dashboard site.
func (c Config) SiteRoot() string {
	return filepath.Join("/home", c.SiteUser, "htdocs", c.Domain)
}

// SSLCertPath and SSLKeyPath are where CloudPanel stores the site's
// Let's Encrypt certificate.
func (c Config) SSLCertPath() string {
	return filepath.Join("/etc/nginx/ssl-certificates", c.Domain+".crt")
}

func (c Config) SSLKeyPath() string {
	return filepath.Join("/etc/nginx/ssl-certificates", c.Domain+".key")
}

// ReportPath is where GoAccess writes the real-time HTML report.
func (c Config) ReportPath() string { return filepath.Join(c.SiteRoot(), "index.html") }

// AccessLogPath is the nginx access log CloudPanel keeps for the site.
func (c Config) AccessLogPath() string {
	return filepath.Join("/home", c.SiteUser, "logs", "nginx", "access.log")
}

// DashboardURL is the public URL of the report.
func (c Config) DashboardURL() string { return c.DashboardURLFor(!c.SkipSSL) }

// DashboardURLFor is the report URL with or without TLS.
func (c Config) DashboardURLFor(tls bool) string {
	scheme := "http"
	if tls {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/", scheme, c.Domain)
}

// WSURL is the websocket URL the report's browser side connects to.
func (c Config) WSURL() string { return c.WSURLFor(!c.SkipSSL) }

// WSURLFor is the websocket URL with or without TLS. It must agree with
// whether goaccess was given ssl-cert.
func (c Config) WSURLFor(tls bool) string {
	scheme := "ws"
	if tls {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Domain, c.Port)
}
