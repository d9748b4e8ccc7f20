package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
	"github.com/cloudpanel-tools/goaccess-hub/internal/logformat"
	"github.com/cloudpanel-tools/goaccess-hub/internal/ui"
)

type translateResult struct {
	Nginx    string            `json:"nginx" yaml:"nginx"`
	GoAccess string            `json:"goaccess" yaml:"goaccess"`
	Tokens   []translatedToken `json:"tokens,omitempty" yaml:"tokens,omitempty"`
}

type translatedToken struct {
	Kind      string `json:"kind" yaml:"kind"`
	Text      string `json:"text" yaml:"text"`
	Directive string `json:"directive" yaml:"directive"`
	Known     bool   `json:"known" yaml:"known"`
}

func init() {
	var explain, table bool
	cmd := &cobra.Command{
		Use:   "translate [format]",
		Short: "Convert an nginx log_format to a GoAccess log-format",
		Long: `Translates an nginx log_format string into the GoAccess log-format
directive. The format is read from the argument or from stdin. Variables
GoAccess cannot use become %^ so the field is skipped.`,
		Example: `  goaccess-hub translate '$remote_addr [$time_local] "$request" $status'
  grep -A3 'log_format main' /etc/nginx/nginx.conf | goaccess-hub translate`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleTranslate(getPrinter(), cmd.InOrStdin(), args, explain, table)
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "Show how each token was translated")
	cmd.Flags().BoolVar(&table, "table", false, "Print the nginx to GoAccess mapping table")
	rootCmd.AddCommand(cmd)
}

func handleTranslate(p ui.Printer, in io.Reader, args []string, explain, table bool) error {
	if table {
		return printMappings(p)
	}
	format, err := readFormat(in, args)
	if err != nil {
		return err
	}

	res := translateResult{Nginx: format, GoAccess: logformat.Translate(format)}
	if explain {
		for _, tok := range logformat.Tokens(format) {
			t := translatedToken{Kind: tok.Kind.String(), Text: tok.Text, Directive: tok.Directive(), Known: true}
			if tok.Kind == logformat.Variable {
				_, t.Known = logformat.Lookup(tok.Name)
			}
			res.Tokens = append(res.Tokens, t)
		}
	}

	if p.Structured() {
		return p.Emit(res)
	}
	if !explain {
		p.Textf("%s\n", res.GoAccess)
		return nil
	}
	rows := make([][]string, 0, len(res.Tokens))
	for _, t := range res.Tokens {
		if t.Kind != logformat.Variable.String() {
			continue
		}
		note := ""
		if !t.Known {
			note = p.Colors.Warning("skipped")
		}
		rows = append(rows, []string{t.Text, t.Directive, note})
	}
	p.Textf("%s\n", ui.Table(p.Colors, []string{"NGINX", "GOACCESS", ""}, rows))
	p.KeyValueLine("log-format", res.GoAccess)
	return nil
}

// readFormat takes the argument, or stdin with line breaks and the
// log_format wrapper of an nginx.conf excerpt removed.
func readFormat(in io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		if strings.TrimSpace(args[0]) == "" {
			return "", exitcodes.InvalidArgsError("format is empty")
		}
		return args[0], nil
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	format := unwrapLogFormat(string(b))
	if format == "" {
		return "", exitcodes.InvalidArgsError("no format given; pass it as an argument or on stdin")
	}
	return format, nil
}

// unwrapLogFormat joins the quoted pieces of
//
//	log_format main '$remote_addr - $remote_user '
//	                '"$request" $status';
//
// into one string. Input without quotes has its lines trimmed and joined
// with a space; whitespace inside a line is kept as is.
func unwrapLogFormat(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, `'`) {
		var lines []string
		for _, l := range strings.Split(s, "\n") {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, l)
			}
		}
		return strings.Join(lines, " ")
	}
	var b strings.Builder
	inQuote := false
	for _, r := range s {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case inQuote:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func printMappings(p ui.Printer) error {
	m := logformat.Mappings()
	if p.Structured() {
		return p.Emit(m)
	}
	rows := make([][]string, 0, len(m))
	for _, e := range m {
		rows = append(rows, []string{"$" + e.Nginx, e.GoAccess})
	}
	p.Textf("%s\n", ui.Table(p.Colors, []string{"NGINX", "GOACCESS"}, rows))
	p.Textf("%s\n", p.Colors.Description("Any other variable becomes "+logformat.Unknown+"."))
	return nil
}
