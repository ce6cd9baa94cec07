package dispatch

import (
	"log/slog"
	"runtime"
	"strings"

	"github.com/spechtlabs/fixkit/diagnostic"
)

// SeverityResolver answers the effective severity of a descriptor and whether
// it is enabled. It must be safe for concurrent use.
type SeverityResolver interface {
	Effective(d *diagnostic.Descriptor) (diagnostic.Severity, bool)
}

// Defaults resolves every descriptor to its compiled default.
type Defaults struct{}

func (Defaults) Effective(d *diagnostic.Descriptor) (diagnostic.Severity, bool) {
	return d.DefaultSeverity, d.EnabledByDefault
}

type options struct {
	resolver    SeverityResolver
	logger      *slog.Logger
	parallelism int
	suppress    bool
	exclude     []string
}

func defaultOptions() options {
	return options{
		resolver:    Defaults{},
		logger:      slog.Default(),
		parallelism: runtime.NumCPU(),
		suppress:    true,
	}
}

// Option configures a [Dispatcher].
type Option interface {
	apply(o *options)
	LogAttr() slog.Attr
}

// Options is a list of [Option] values that itself satisfies the [Option] interface.
type Options []Option

// LogValue implements [slog.LogValuer].
func (o Options) LogValue() slog.Value {
	as := make([]slog.Attr, 0, len(o))
	for _, opt := range o {
		if opt == nil {
			continue
		}
		as = append(as, opt.LogAttr())
	}
	return slog.GroupValue(as...)
}

func (o Options) apply(r *options) {
	for _, opt := range o {
		if opt == nil {
			continue
		}
		opt.apply(r)
	}
}

// LogAttr is for logging with [slog.Logger.LogAttrs].
func (o Options) LogAttr() slog.Attr {
	return slog.Any("options", o)
}

// WithSeverity is an [Option] to resolve severities through r instead of the
// compiled defaults.
func WithSeverity(r SeverityResolver) Option { return severityOption{r: r} }

type severityOption struct{ r SeverityResolver }

func (o severityOption) apply(r *options) {
	if o.r != nil {
		r.resolver = o.r
	}
}

func (o severityOption) LogAttr() slog.Attr {
	_, custom := o.r.(Defaults)
	return slog.Bool("severity-overrides", !custom && o.r != nil)
}

// WithLogger is an [Option] to set the logger for rule faults and skipped
// files.
func WithLogger(l *slog.Logger) Option { return loggerOption{l: l} }

type loggerOption struct{ l *slog.Logger }

func (o loggerOption) apply(r *options) {
	if o.l != nil {
		r.logger = o.l
	}
}

func (o loggerOption) LogAttr() slog.Attr {
	return slog.Bool("logger", o.l != nil)
}

// WithParallelism is an [Option] to bound how many documents are walked at
// once. Values below one mean one.
func WithParallelism(n int) Option { return parallelismOption{n: n} }

type parallelismOption struct{ n int }

func (o parallelismOption) apply(r *options) {
	r.parallelism = max(o.n, 1)
}

func (o parallelismOption) LogAttr() slog.Attr {
	return slog.Int("parallelism", o.n)
}

// WithSuppression is an [Option] to honor //nolint directives.
func WithSuppression(suppress bool) Option { return suppressionOption{suppress: suppress} }

type suppressionOption struct{ suppress bool }

func (o suppressionOption) apply(r *options) {
	r.suppress = o.suppress
}

func (o suppressionOption) LogAttr() slog.Attr {
	return slog.Bool("suppression", o.suppress)
}

// WithExclude is an [Option] to skip documents whose path matches one of the
// doublestar globs.
func WithExclude(globs ...string) Option { return excludeOption{globs: globs} }

type excludeOption struct{ globs []string }

func (o excludeOption) apply(r *options) {
	r.exclude = append(r.exclude, o.globs...)
}

func (o excludeOption) LogAttr() slog.Attr {
	return slog.String("exclude", strings.Join(o.globs, ","))
}
