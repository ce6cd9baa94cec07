package config

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/rule"
)

// Disabled is the severity value that turns a descriptor off.
const Disabled = "none"

// maxSuggestionDistance bounds the edit distance of "did you mean" hints.
const maxSuggestionDistance = 3

// Resolver answers the effective severity of descriptors. It is immutable
// once built.
type Resolver struct {
	rules    map[string]bool
	severity map[string]diagnostic.Severity
	disabled map[string]bool
	ruleOf   map[string]string
}

// NewResolver validates cfg against the known rules. Unknown keys and
// unparsable severities are logged and ignored.
func NewResolver(cfg *Config, rules []*rule.Rule, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		rules:    make(map[string]bool),
		severity: make(map[string]diagnostic.Severity),
		disabled: make(map[string]bool),
		ruleOf:   make(map[string]string),
	}

	known := []string{DefaultKey, diagnostic.Faulted.ID}
	for _, ru := range rules {
		known = append(known, ru.Name)
		for _, d := range ru.Descriptors {
			known = append(known, d.ID)
			r.ruleOf[d.ID] = ru.Name
		}
	}
	if cfg == nil {
		return r
	}

	for key, on := range cfg.Rules {
		if !slices.Contains(known, key) {
			warnUnknown(logger, "rules", key, known)
			continue
		}
		r.rules[key] = on
	}
	for key, value := range cfg.Severity {
		if key == DefaultKey || !slices.Contains(known, key) {
			warnUnknown(logger, "severity", key, known)
			continue
		}
		if strings.EqualFold(strings.TrimSpace(value), Disabled) {
			r.disabled[key] = true
			continue
		}
		sev, err := diagnostic.ParseSeverity(value)
		if err != nil {
			logger.Warn("config.severity.invalid", "key", key, "value", value, "error", err)
			continue
		}
		r.severity[key] = sev
	}
	return r
}

func warnUnknown(logger *slog.Logger, section, key string, known []string) {
	attrs := []any{"section", section, "key", key}
	if s := suggest(key, known); s != "" {
		attrs = append(attrs, "suggestion", s)
	}
	logger.Warn("config.key.unknown", attrs...)
}

// suggest returns the known key closest to key, if it is close enough.
func suggest(key string, known []string) string {
	best, bestDistance := "", maxSuggestionDistance+1
	for _, k := range known {
		d := edlib.LevenshteinDistance(strings.ToLower(key), strings.ToLower(k))
		if d < bestDistance {
			best, bestDistance = k, d
		}
	}
	return best
}

// Effective returns the severity d is reported at and whether it is enabled.
// The compiled default applies unless the configuration overrides it, by
// descriptor id first and rule name second.
func (r *Resolver) Effective(d *diagnostic.Descriptor) (diagnostic.Severity, bool) {
	keys := []string{d.ID}
	if name, ok := r.ruleOf[d.ID]; ok {
		keys = append(keys, name)
	}

	for _, k := range keys {
		if r.disabled[k] {
			return d.DefaultSeverity, false
		}
		if sev, ok := r.severity[k]; ok {
			return sev, r.enabled(d, keys)
		}
	}
	return d.DefaultSeverity, r.enabled(d, keys)
}

func (r *Resolver) enabled(d *diagnostic.Descriptor, keys []string) bool {
	for _, k := range keys {
		if on, ok := r.rules[k]; ok {
			return on
		}
	}
	if on, ok := r.rules[DefaultKey]; ok && !on {
		return false
	}
	return d.EnabledByDefault
}
