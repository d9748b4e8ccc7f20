package installer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cloudpanel-tools/goaccess-hub/internal/cloudpanel"
	"github.com/cloudpanel-tools/goaccess-hub/internal/collector"
	"github.com/cloudpanel-tools/goaccess-hub/internal/config"
	"github.com/cloudpanel-tools/goaccess-hub/internal/logger"
	"github.com/cloudpanel-tools/goaccess-hub/internal/shell"
	"github.com/cloudpanel-tools/goaccess-hub/internal/system"
)

// MinFreeDisk is the free space preflight requires on the data filesystem.
const MinFreeDisk = 1 << 30

// Packages the hub needs on the host.
var Packages = []string{"goaccess", "rsync"}

// Policy decides what a failing step does to the flow.
type Policy int

const (
	// Abort stops the installer and returns the step's error.
	Abort Policy = iota
	// Warn records the failure and continues.
	Warn
)

func (p Policy) String() string {
	if p == Warn {
		return "warn"
	}
	return "abort"
}

// Step statuses.
const (
	StatusOK      = "ok"
	StatusWarn    = "warn"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Step is one unit of the install flow. Run returns a short detail for the
// operator; Skip, when set and returning non-empty, skips the step with
// that reason.
type Step struct {
	Name   string
	Policy Policy
	Skip   func(*State) string
	Run    func(ctx context.Context, st *State) (string, error)
}

// StepResult is the outcome of one step.
type StepResult struct {
	Name      string `json:"name" yaml:"name"`
	Status    string `json:"status" yaml:"status"`
	Detail    string `json:"detail,omitempty" yaml:"detail,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms" yaml:"elapsed_ms"`
}

// Result is what install reports, in text as a summary box and in
// structured output as-is.
type Result struct {
	RunID              string       `json:"run_id" yaml:"run_id"`
	DryRun             bool         `json:"dry_run" yaml:"dry_run"`
	Domain             string       `json:"domain" yaml:"domain"`
	SiteUser           string       `json:"site_user" yaml:"site_user"`
	DashboardURL       string       `json:"dashboard_url" yaml:"dashboard_url"`
	WSURL              string       `json:"ws_url" yaml:"ws_url"`
	LogFormat          string       `json:"log_format" yaml:"log_format"`
	GoAccessFormat     string       `json:"goaccess_log_format" yaml:"goaccess_log_format"`
	DateFormat         string       `json:"date_format" yaml:"date_format"`
	NginxFormat        string       `json:"nginx_log_format,omitempty" yaml:"nginx_log_format,omitempty"`
	GoAccessVersion    string       `json:"goaccess_version,omitempty" yaml:"goaccess_version,omitempty"`
	CredentialsFile    string       `json:"credentials_file" yaml:"credentials_file"`
	AuthorizedKeysLine string       `json:"authorized_keys_line,omitempty" yaml:"authorized_keys_line,omitempty"`
	Servers            []string     `json:"servers,omitempty" yaml:"servers,omitempty"`
	Commands           []string     `json:"commands,omitempty" yaml:"commands,omitempty"`
	Steps              []StepResult `json:"steps" yaml:"steps"`
}

// Warnings returns the steps that finished with a warning.
func (r *Result) Warnings() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Status == StatusWarn {
			out = append(out, s)
		}
	}
	return out
}

// Deps are the collaborators the steps drive.
type Deps struct {
	Runner    shell.Runner
	Sites     cloudpanel.Manager
	Packages  system.Packages
	Services  system.Services
	Cron      collector.Cron
	HostStats system.StatFunc
	IsRoot    func() bool
	Now       func() time.Time
}

// Options tune a single run.
type Options struct {
	Servers  []collector.Server
	DryRun   bool
	Progress func(step string) // called before each step
	Result   func(StepResult)  // called after each step
}

// State is shared by the steps of one run. Config is fixed for the run;
// later steps read what earlier steps produced.
type State struct {
	Config   config.Config
	Servers  []collector.Server
	DryRun   bool
	Password string
	SSL      bool
	Result   *Result

	confChanged bool
}

// Installer runs Steps in order against one Config.
type Installer struct {
	cfg   config.Config
	deps  Deps
	opts  Options
	steps []Step
}

// New builds an installer with the default step list.
func New(cfg config.Config, deps Deps, opts Options) *Installer {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.IsRoot == nil {
		deps.IsRoot = system.IsRoot
	}
	if deps.HostStats == nil {
		deps.HostStats = system.CollectHostStats
	}
	i := &Installer{cfg: cfg, deps: deps, opts: opts}
	i.steps = i.defaultSteps()
	return i
}

// Steps returns the step list in run order.
func (i *Installer) Steps() []Step { return i.steps }

// Run executes every step. A failing Abort step stops the run; the partial
// Result is returned together with the error.
func (i *Installer) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	log := logger.With(zap.String("run_id", runID), zap.String("domain", i.cfg.Domain))
	st := &State{
		Config:  i.cfg,
		Servers: i.opts.Servers,
		DryRun:  i.opts.DryRun,
		Result: &Result{
			RunID:           runID,
			DryRun:          i.opts.DryRun,
			Domain:          i.cfg.Domain,
			SiteUser:        i.cfg.SiteUser,
			DashboardURL:    i.cfg.DashboardURL(),
			WSURL:           i.cfg.WSURL(),
			CredentialsFile: i.cfg.CredentialsFile(),
		},
	}
	for _, s := range i.opts.Servers {
		st.Result.Servers = append(st.Result.Servers, s.Name)
	}
	log.Info("install started", zap.Bool("dry_run", i.opts.DryRun), zap.Int("steps", len(i.steps)))
	started := i.deps.Now()

	for _, step := range i.steps {
		if err := ctx.Err(); err != nil {
			return st.Result, err
		}
		slog := log.With(zap.String("step", step.Name))
		if step.Skip != nil {
			if reason := step.Skip(st); reason != "" {
				slog.Info("step skipped", zap.String("reason", reason))
				i.record(st, StepResult{Name: step.Name, Status: StatusSkipped, Detail: reason})
				continue
			}
		}
		if i.opts.Progress != nil {
			i.opts.Progress(step.Name)
		}
		slog.Debug("step started", zap.String("policy", step.Policy.String()))
		t0 := i.deps.Now()
		detail, err := step.Run(ctx, st)
		elapsed := i.deps.Now().Sub(t0)
		res := StepResult{Name: step.Name, Detail: detail, ElapsedMS: elapsed.Milliseconds()}

		if err != nil {
			res.Error = err.Error()
			if step.Policy == Warn {
				res.Status = StatusWarn
				slog.Warn("step failed, continuing", zap.Error(err), zap.Duration("elapsed", elapsed))
				i.record(st, res)
				continue
			}
			res.Status = StatusFailed
			slog.Error("step failed", zap.Error(err), zap.Duration("elapsed", elapsed))
			i.record(st, res)
			i.finish(st)
			return st.Result, fmt.Errorf("%s: %w", step.Name, err)
		}
		res.Status = StatusOK
		slog.Info("step finished", zap.String("detail", detail), zap.Duration("elapsed", elapsed))
		i.record(st, res)
	}
	i.finish(st)
	log.Info("install finished", zap.Duration("elapsed", i.deps.Now().Sub(started)), zap.Int("warnings", len(st.Result.Warnings())))
	return st.Result, nil
}

func (i *Installer) record(st *State, r StepResult) {
	st.Result.Steps = append(st.Result.Steps, r)
	if i.opts.Result != nil {
		i.opts.Result(r)
	}
}

func (i *Installer) finish(st *State) {
	if d, ok := i.deps.Runner.(*shell.DryRunRunner); ok {
		st.Result.Commands = d.Commands()
	}
}
