package logformat

import (
	"sort"
	"strings"

	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
)

// Nginx layouts the presets are derived from.
const (
	NginxCombined   = `$remote_addr - $remote_user [$time_local] "$request" $status $body_bytes_sent "$http_referer" "$http_user_agent"`
	NginxCloudPanel = NginxCombined + ` $request_time`
)

// Time and date formats for the %d and %t directives. DateFormat matches
// nginx $time_local, ISODateFormat matches $time_iso8601.
const (
	TimeFormat    = "%H:%M:%S"
	DateFormat    = "%d/%b/%Y"
	ISODateFormat = "%Y-%m-%d"
)

// Preset names.
const (
	PresetStandard   = "standard"
	PresetCloudPanel = "cloudpanel"
	PresetCombined   = "combined"
	PresetCustom     = "custom"
)

// LogFormat is a resolved GoAccess log-format value. Nginx is the
// log_format the remote servers should write, when known.
type LogFormat struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Format      string `json:"format" yaml:"format"`
	DateFormat  string `json:"date_format" yaml:"date_format"`
	Nginx       string `json:"nginx,omitempty" yaml:"nginx,omitempty"`
}

// DateFormatFor returns the date-format GoAccess needs to parse the %d
// directive in a translated log-format.
func DateFormatFor(format string) string {
	if strings.Contains(format, "%dT%t") {
		return ISODateFormat
	}
	return DateFormat
}

var presets = map[string]LogFormat{
	PresetStandard: {
		Name:        PresetStandard,
		Description: "nginx combined layout",
		Format:      Translate(NginxCombined),
		DateFormat:  DateFormat,
		Nginx:       NginxCombined,
	},
	PresetCloudPanel: {
		Name:        PresetCloudPanel,
		Description: "CloudPanel vhost layout (combined + request time)",
		Format:      Translate(NginxCloudPanel),
		DateFormat:  DateFormat,
		Nginx:       NginxCloudPanel,
	},
	PresetCombined: {
		Name:        PresetCombined,
		Description: "GoAccess built-in COMBINED keyword",
		Format:      "COMBINED",
		DateFormat:  DateFormat,
		Nginx:       NginxCombined,
	},
}

// Presets returns the built-in formats sorted by name.
func Presets() []LogFormat {
	out := make([]LogFormat, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Preset returns the built-in format with the given name.
func Preset(name string) (LogFormat, error) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return LogFormat{}, exitcodes.ValidationErrf("unknown log format preset %q (use standard|cloudpanel|combined|custom)", name)
	}
	return p, nil
}

// Resolve returns the preset for name, translating custom when name is
// "custom". An empty custom format is rejected.
func Resolve(name, custom string) (LogFormat, error) {
	if strings.EqualFold(strings.TrimSpace(name), PresetCustom) {
		if strings.TrimSpace(custom) == "" {
			return LogFormat{}, exitcodes.ValidationErr("custom log format is empty")
		}
		format := Translate(strings.TrimSpace(custom))
		return LogFormat{
			Name:        PresetCustom,
			Description: "translated from nginx log_format",
			Format:      format,
			DateFormat:  DateFormatFor(format),
			Nginx:       strings.TrimSpace(custom),
		}, nil
	}
	return Preset(name)
}
