package logformat

import "strings"

// Unknown is the GoAccess directive for a field that is parsed but ignored.
const Unknown = "%^"

// Mapping pairs an nginx variable name (without the $ sigil) with the
// GoAccess directive that parses the same field.
type Mapping struct {
	Nginx    string `json:"nginx" yaml:"nginx"`
	GoAccess string `json:"goaccess" yaml:"goaccess"`
}

// mappings is ordered for display only; lookup goes through index.
var mappings = []Mapping{
	{"time_local", "%d:%t %^"},
	{"time_iso8601", "%dT%t%^"},
	{"host", "%v"},
	{"server_name", "%v"},
	{"remote_addr", "%h"},
	{"request_time", "%T"},
	{"request_method", "%m"},
	{"request_uri", "%U"},
	{"uri", "%U"},
	{"server_protocol", "%H"},
	{"request", "%r"},
	{"status", "%s"},
	{"body_bytes_sent", "%b"},
	{"bytes_sent", "%b"},
	{"http_referer", "%R"},
	{"http_user_agent", "%u"},
	{"http_x_forwarded_for", Unknown},
}

var index = func() map[string]string {
	m := make(map[string]string, len(mappings))
	for _, e := range mappings {
		m[e.Nginx] = e.GoAccess
	}
	return m
}()

// Mappings returns a copy of the known variable table in display order.
func Mappings() []Mapping {
	out := make([]Mapping, len(mappings))
	copy(out, mappings)
	return out
}

// Lookup returns the GoAccess directive for an nginx variable name.
func Lookup(name string) (string, bool) {
	d, ok := index[name]
	return d, ok
}

// Translate converts an nginx log_format string into a GoAccess log-format
// string. Known variables become their directive, any other lowercase
// variable becomes %^, and literal text is copied unchanged. It never fails
// and is safe for concurrent use.
func Translate(format string) string {
	if strings.IndexByte(format, '$') < 0 {
		return format
	}
	var b strings.Builder
	b.Grow(len(format))
	for _, tok := range Tokens(format) {
		if tok.Kind == Literal {
			b.WriteString(tok.Text)
			continue
		}
		b.WriteString(tok.Directive())
	}
	return b.String()
}
