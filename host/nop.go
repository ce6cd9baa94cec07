package host

import "github.com/spechtlabs/fixkit/syntax"

// NopOracle answers every query with "unknown". Rules running on hosts without
// semantic support see this oracle.
type NopOracle struct {
	Pkg string
}

var _ Oracle = NopOracle{}

func (o NopOracle) Package() string                            { return o.Pkg }
func (NopOracle) TypeOf(syntax.Cursor) (Type, bool)            { return nil, false }
func (NopOracle) SymbolOf(syntax.Cursor) (Symbol, bool)        { return nil, false }
func (NopOracle) DeclaredSymbol(syntax.Cursor) (Symbol, bool)  { return nil, false }
func (NopOracle) References(Symbol) []Location                 { return nil }
func (NopOracle) AnalyzeDataFlow(syntax.Span) (DataFlow, bool) { return DataFlow{}, false }

// Registry maps language names and file extensions to hosts.
type Registry struct {
	byName map[string]Language
	byExt  map[string]Language
}

// NewRegistry returns a registry of langs. Later languages win extension
// conflicts.
func NewRegistry(langs ...Language) *Registry {
	r := &Registry{byName: make(map[string]Language), byExt: make(map[string]Language)}
	for _, l := range langs {
		r.byName[l.Name()] = l
		for _, ext := range l.Extensions() {
			r.byExt[ext] = l
		}
	}
	return r
}

// Lookup returns the language with the given name.
func (r *Registry) Lookup(name string) (Language, bool) {
	l, ok := r.byName[name]
	return l, ok
}

// ForExtension returns the language claiming ext (with dot).
func (r *Registry) ForExtension(ext string) (Language, bool) {
	l, ok := r.byExt[ext]
	return l, ok
}
