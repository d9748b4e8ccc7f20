package logformat

// Kind tells literal text apart from a variable reference.
type Kind int

const (
	Literal Kind = iota
	Variable
)

func (k Kind) String() string {
	if k == Variable {
		return "variable"
	}
	return "literal"
}

// Token is one segment of an nginx log_format string. For variables Name
// holds the identifier and Text the original spelling ($x or ${x}).
type Token struct {
	Kind Kind   `json:"kind" yaml:"kind"`
	Text string `json:"text" yaml:"text"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Directive returns the GoAccess directive a variable token maps to, or the
// literal text unchanged.
func (t Token) Directive() string {
	if t.Kind == Literal {
		return t.Text
	}
	if d, ok := Lookup(t.Name); ok {
		return d
	}
	return Unknown
}

// Tokens splits format into literal and variable segments. A reference is
// $ident or ${ident} where ident is the longest run of [A-Za-z0-9_]. A run
// that names a table entry is a variable; otherwise only runs made of
// [a-z_] are variables. A $ that does not start a valid reference,
// including unknown identifiers with uppercase letters or digits, stays in
// the literal text.
func Tokens(format string) []Token {
	var (
		out []Token
		lit int // start of the pending literal run
	)
	flush := func(end int) {
		if end > lit {
			out = append(out, Token{Kind: Literal, Text: format[lit:end]})
		}
	}

	for i := 0; i < len(format); {
		if format[i] != '$' {
			i++
			continue
		}
		name, n := scanVariable(format[i:])
		if n == 0 {
			i++
			continue
		}
		flush(i)
		out = append(out, Token{Kind: Variable, Text: format[i : i+n], Name: name})
		i += n
		lit = i
	}
	flush(len(format))
	return out
}

// scanVariable parses a reference at the start of s (s[0] == '$') and
// returns the identifier and the number of bytes consumed, or 0 when s does
// not start a reference.
func scanVariable(s string) (string, int) {
	if len(s) < 2 {
		return "", 0
	}
	if s[1] == '{' {
		end := identEnd(s, 2)
		if end >= len(s) || s[end] != '}' || !isVariable(s[2:end]) {
			return "", 0
		}
		return s[2:end], end + 1
	}
	end := identEnd(s, 1)
	if !isVariable(s[1:end]) {
		return "", 0
	}
	return s[1:end], end
}

// isVariable reports whether a scanned run is translated: table entries
// always are, other names only when they are lowercase with underscores.
func isVariable(name string) bool {
	if name == "" {
		return false
	}
	if _, ok := index[name]; ok {
		return true
	}
	for i := 0; i < len(name); i++ {
		if !isLowerIdentByte(name[i]) {
			return false
		}
	}
	return true
}

func identEnd(s string, from int) int {
	i := from
	for i < len(s) && isIdentByte(s[i]) {
		i++
	}
	return i
}

func isIdentByte(c byte) bool {
	return isLowerIdentByte(c) || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isLowerIdentByte(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') }
