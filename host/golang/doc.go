// Package golang is the Go host: go/parser for syntax, go/types for the
// semantic oracle and go/format for the formatter post-pass.
//
// Node kinds are the go/ast type names ("BinaryExpr", "IfStmt", "FuncDecl").
// A FuncDecl's signature parts are direct children of the declaration, so its
// receiver, name, parameters, results and body are siblings.
package golang
