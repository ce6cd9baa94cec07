// Package hardcodedcreds provides a rule that detects potential hardcoded
// credentials and secrets.
//
// Hardcoded credentials are a security risk. This rule flags string literals
// bound to suspicious names and literals that look like keys or tokens.
package hardcodedcreds

import (
	"go/ast"
	"go/token"
	"regexp"
	"strings"

	"github.com/spechtlabs/fixkit/diagnostic"
	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/host/golang"
	"github.com/spechtlabs/fixkit/rule"
	"github.com/spechtlabs/fixkit/syntax"
)

const Doc = `detect potential hardcoded credentials and secrets

Hardcoded credentials are a security vulnerability. This rule
detects suspicious patterns that might be secrets:

1. Variable names suggesting secrets (password, apiKey, secret, token)
2. String literals that look like API keys or tokens
3. JWTs, GitHub tokens and AWS access key ids
4. Private key headers

Secrets should come from:
- Environment variables
- Secret management systems (Vault, AWS Secrets Manager)
- Kubernetes Secrets`

var (
	NameDescriptor = &diagnostic.Descriptor{
		ID:               "SL1010",
		Title:            "Credential assigned to a suspicious name",
		MessageFormat:    "potential hardcoded credential in %q; use environment variable or secret management",
		Category:         "Security",
		DefaultSeverity:  diagnostic.Warning,
		EnabledByDefault: true,
	}

	PatternDescriptor = &diagnostic.Descriptor{
		ID:               "SL1011",
		Title:            "String literal looks like a secret",
		MessageFormat:    "string literal looks like a secret or credential; use environment variable or secret management",
		Category:         "Security",
		DefaultSeverity:  diagnostic.Warning,
		EnabledByDefault: true,
	}
)

var Rule = &rule.Rule{
	Name:        "hardcodedcreds",
	Doc:         Doc,
	Languages:   []string{"go", "csharp"},
	Descriptors: []*diagnostic.Descriptor{NameDescriptor, PatternDescriptor},
	Initialize: func(c *rule.Context) {
		c.RegisterNodeAction(check, "BasicLit", "string_literal", "verbatim_string_literal", "raw_string_literal")
	},
}

// Suspicious variable name patterns
var suspiciousNames = []string{
	"password", "passwd", "pwd",
	"secret", "apikey", "api_key",
	"token", "auth", "credential",
	"private_key", "privatekey",
	"access_key", "accesskey",
	"client_secret", "clientsecret",
}

// Patterns that look like secrets
var secretPatterns = []*regexp.Regexp{
	// AWS Access Key ID
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// Generic API key pattern (32+ hex chars)
	regexp.MustCompile(`[0-9a-fA-F]{32,}`),
	// JWT tokens
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`),
	// GitHub tokens
	regexp.MustCompile(`ghp_[a-zA-Z0-9]{36}`),
	regexp.MustCompile(`github_pat_[a-zA-Z0-9_]{22,}`),
	// Generic bearer token
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9_-]{20,}`),
	// Private key header
	regexp.MustCompile(`-----BEGIN\s+(RSA\s+)?PRIVATE\s+KEY-----`),
}

func check(nc *rule.NodeContext) {
	lit := nc.Node()
	text := lit.Text()
	if lit.Kind() == "BasicLit" && !strings.HasPrefix(text, `"`) && !strings.HasPrefix(text, "`") {
		return
	}

	if name, ok := binding(nc.Semantic(), lit); ok && isSuspiciousName(name) && len(text) > 5 {
		nc.ReportAt(NameDescriptor, lit, name)
		return
	}

	value := strings.Trim(text, "@$`\"")
	for _, pattern := range secretPatterns {
		if pattern.MatchString(value) {
			nc.ReportAt(PatternDescriptor, lit)
			return
		}
	}
}

// binding returns the name lit is assigned to: a variable, an assignment
// target or a keyed field.
func binding(o host.Oracle, lit syntax.Cursor) (string, bool) {
	parent, ok := lit.Parent()
	if !ok {
		return "", false
	}
	if n, ok := golang.Node(o, lit); ok {
		pn, _ := golang.Node(o, parent)
		return goBinding(pn, n)
	}

	if parent.Kind() == "equals_value_clause" {
		if parent, ok = parent.Parent(); !ok {
			return "", false
		}
	}
	switch parent.Kind() {
	case "variable_declarator":
		if sym, ok := o.DeclaredSymbol(parent); ok {
			return sym.Name(), true
		}
		for _, k := range parent.SignificantChildren() {
			if k.Kind() == "identifier" {
				return k.Text(), true
			}
		}
	case "assignment_expression":
		kids := parent.SignificantChildren()
		if len(kids) == 0 || kids[0].Node() == lit.Node() {
			return "", false
		}
		return lastIdentifier(kids[0])
	}
	return "", false
}

func goBinding(parent, n ast.Node) (string, bool) {
	lit, ok := n.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	switch p := parent.(type) {
	case *ast.ValueSpec:
		for i, v := range p.Values {
			if v == lit && i < len(p.Names) {
				return p.Names[i].Name, true
			}
		}
	case *ast.AssignStmt:
		for i, v := range p.Rhs {
			if v != lit || i >= len(p.Lhs) {
				continue
			}
			if ident, ok := p.Lhs[i].(*ast.Ident); ok {
				return ident.Name, true
			}
		}
	case *ast.KeyValueExpr:
		if ident, ok := p.Key.(*ast.Ident); ok && p.Value == lit {
			return ident.Name, true
		}
	}
	return "", false
}

func lastIdentifier(c syntax.Cursor) (string, bool) {
	var name string
	for cur := range c.Preorder() {
		if cur.Kind() == "identifier" {
			name = cur.Text()
		}
	}
	return name, name != ""
}

func isSuspiciousName(name string) bool {
	lower := strings.ToLower(name)
	for _, suspicious := range suspiciousNames {
		if strings.Contains(lower, suspicious) {
			return true
		}
	}
	return false
}
