package fixall

import (
	"log/slog"
	"runtime"
)

// DefaultMaxIterations bounds the requery loop of one document.
const DefaultMaxIterations = 16

type options struct {
	logger        *slog.Logger
	parallelism   int
	maxIterations int
	format        bool
}

func defaultOptions() options {
	return options{
		logger:        slog.Default(),
		parallelism:   runtime.NumCPU(),
		maxIterations: DefaultMaxIterations,
		format:        true,
	}
}

// Option configures an [Engine].
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

// WithLogger is an [Option] to set the logger for skipped sites.
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

// WithParallelism is an [Option] to bound how many projects and documents
// are fixed at once. Values below one mean one.
func WithParallelism(n int) Option { return parallelismOption{n: n} }

type parallelismOption struct{ n int }

func (o parallelismOption) apply(r *options) {
	r.parallelism = max(o.n, 1)
}

func (o parallelismOption) LogAttr() slog.Attr {
	return slog.Int("parallelism", o.n)
}

// WithMaxIterations is an [Option] to bound requery rounds per document.
// Values below one select [DefaultMaxIterations].
func WithMaxIterations(n int) Option { return iterationsOption{n: n} }

type iterationsOption struct{ n int }

func (o iterationsOption) apply(r *options) {
	if o.n > 0 {
		r.maxIterations = o.n
	} else {
		r.maxIterations = DefaultMaxIterations
	}
}

func (o iterationsOption) LogAttr() slog.Attr {
	return slog.Int("max-iterations", o.n)
}

// WithFormat is an [Option] to run the host formatter over documents with
// nodes marked by [syntax.FormatAnnotation].
func WithFormat(format bool) Option { return formatOption{format: format} }

type formatOption struct{ format bool }

func (o formatOption) apply(r *options) {
	r.format = o.format
}

func (o formatOption) LogAttr() slog.Attr {
	return slog.Bool("format", o.format)
}
