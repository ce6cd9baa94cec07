// Package workspace holds immutable snapshots of documents, projects and
// solutions. Every edit returns a new snapshot that shares everything it did
// not change with the old one.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/spechtlabs/fixkit/host"
	"github.com/spechtlabs/fixkit/syntax"
)

var (
	// ErrUnknownDocument is returned when an id does not name a document of the
	// snapshot.
	ErrUnknownDocument = errors.New("workspace: unknown document")

	// ErrUnknownProject is returned when an id does not name a project of the
	// solution.
	ErrUnknownProject = errors.New("workspace: unknown project")
)

// DocumentID identifies a document across snapshots.
type DocumentID string

// ProjectID identifies a project across snapshots.
type ProjectID string

// Document is one source file snapshot.
type Document struct {
	id      DocumentID
	project ProjectID
	path    string
	tree    *syntax.Tree
	lang    host.Language

	versionOnce sync.Once
	version     uint64
}

// NewDocument returns a document for an already parsed tree.
func NewDocument(id DocumentID, tree *syntax.Tree, lang host.Language) *Document {
	return &Document{id: id, path: tree.Path(), tree: tree, lang: lang}
}

func (d *Document) ID() DocumentID          { return d.id }
func (d *Document) Project() ProjectID      { return d.project }
func (d *Document) Path() string            { return d.path }
func (d *Document) Tree() *syntax.Tree      { return d.tree }
func (d *Document) Language() host.Language { return d.lang }
func (d *Document) Text() string            { return d.tree.Text() }

// Version is a content hash of the document's text.
func (d *Document) Version() uint64 {
	d.versionOnce.Do(func() {
		d.version = xxhash.Sum64String(d.tree.Text())
	})
	return d.version
}

// WithTree returns a snapshot holding tree.
func (d *Document) WithTree(tree *syntax.Tree) *Document {
	if tree == d.tree {
		return d
	}
	return &Document{id: d.id, project: d.project, path: d.path, tree: tree, lang: d.lang}
}

// WithText reparses text. Syntax errors are returned with the new snapshot
// when the host recovered a tree.
func (d *Document) WithText(ctx context.Context, text string) (*Document, error) {
	tree, err := d.lang.Parse(ctx, d.path, []byte(text))
	if tree == nil {
		return nil, fmt.Errorf("workspace: reparse %s: %w", d.path, err)
	}
	return d.WithTree(tree), err
}

// Project is an ordered set of documents compiled together.
type Project struct {
	id   ProjectID
	name string
	lang host.Language
	docs []*Document

	mu      sync.Mutex
	comp    host.Compilation
	compErr error
}

// NewProject returns a project owning docs.
func NewProject(id ProjectID, name string, lang host.Language, docs ...*Document) *Project {
	p := &Project{id: id, name: name, lang: lang}
	p.docs = make([]*Document, len(docs))
	for i, d := range docs {
		p.docs[i] = d.adopt(id)
	}
	return p
}

// adopt returns d owned by project id.
func (d *Document) adopt(id ProjectID) *Document {
	if d.project == id {
		return d
	}
	return &Document{id: d.id, project: id, path: d.path, tree: d.tree, lang: d.lang}
}

func (p *Project) ID() ProjectID           { return p.id }
func (p *Project) Name() string            { return p.name }
func (p *Project) Language() host.Language { return p.lang }

// Documents returns the documents in order.
func (p *Project) Documents() []*Document { return slices.Clone(p.docs) }

// Document returns the document with id.
func (p *Project) Document(id DocumentID) (*Document, bool) {
	for _, d := range p.docs {
		if d.id == id {
			return d, true
		}
	}
	return nil, false
}

// DocumentByPath returns the document at path.
func (p *Project) DocumentByPath(path string) (*Document, bool) {
	for _, d := range p.docs {
		if d.path == path {
			return d, true
		}
	}
	return nil, false
}

// Compilation binds the project's documents. The result is computed once per
// snapshot; a cancelled attempt is not remembered.
func (p *Project) Compilation(ctx context.Context) (host.Compilation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.comp != nil || p.compErr != nil {
		return p.comp, p.compErr
	}

	files := make([]host.File, len(p.docs))
	for i, d := range p.docs {
		files[i] = host.File{Path: d.path, Tree: d.tree}
	}
	comp, err := p.lang.Compile(ctx, files)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	p.comp, p.compErr = comp, err
	return comp, err
}

// WithCompilation returns a snapshot whose compilation is already known, for
// hosts that type-check outside the engine.
func (p *Project) WithCompilation(comp host.Compilation) *Project {
	return &Project{id: p.id, name: p.name, lang: p.lang, docs: p.docs, comp: comp}
}

// WithDocument replaces the document with the same id.
func (p *Project) WithDocument(doc *Document) (*Project, error) {
	return p.WithDocuments(doc)
}

// WithDocuments replaces every given document. Unchanged documents return p
// itself.
func (p *Project) WithDocuments(docs ...*Document) (*Project, error) {
	next := slices.Clone(p.docs)
	changed := false
	for _, doc := range docs {
		i := slices.IndexFunc(next, func(d *Document) bool { return d.id == doc.id })
		if i < 0 {
			return nil, fmt.Errorf("%w: %s in project %s", ErrUnknownDocument, doc.id, p.id)
		}
		if next[i] == doc || next[i].tree == doc.tree {
			continue
		}
		next[i] = doc.adopt(p.id)
		changed = true
	}
	if !changed {
		return p, nil
	}
	return &Project{id: p.id, name: p.name, lang: p.lang, docs: next}, nil
}

// AddDocument returns a snapshot with doc appended.
func (p *Project) AddDocument(doc *Document) *Project {
	next := append(slices.Clone(p.docs), doc.adopt(p.id))
	return &Project{id: p.id, name: p.name, lang: p.lang, docs: next}
}

// Solution is the root snapshot.
type Solution struct {
	projects []*Project
}

// NewSolution returns a solution of projects.
func NewSolution(projects ...*Project) *Solution {
	return &Solution{projects: slices.Clone(projects)}
}

// Projects returns the projects in order.
func (s *Solution) Projects() []*Project { return slices.Clone(s.projects) }

// Project returns the project with id.
func (s *Solution) Project(id ProjectID) (*Project, bool) {
	for _, p := range s.projects {
		if p.id == id {
			return p, true
		}
	}
	return nil, false
}

// Documents returns every document of every project.
func (s *Solution) Documents() []*Document {
	var out []*Document
	for _, p := range s.projects {
		out = append(out, p.docs...)
	}
	return out
}

// WithProject replaces the project with the same id.
func (s *Solution) WithProject(p *Project) (*Solution, error) {
	i := slices.IndexFunc(s.projects, func(q *Project) bool { return q.id == p.id })
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProject, p.id)
	}
	if s.projects[i] == p {
		return s, nil
	}
	next := slices.Clone(s.projects)
	next[i] = p
	return &Solution{projects: next}, nil
}

// ChangedDocuments returns the documents of s whose text differs from old.
func (s *Solution) ChangedDocuments(old *Solution) []*Document {
	var out []*Document
	for _, p := range s.projects {
		op, ok := old.Project(p.id)
		for _, d := range p.docs {
			if !ok {
				out = append(out, d)
				continue
			}
			od, ok := op.Document(d.id)
			if !ok || od.tree != d.tree && (od.Version() != d.Version() || od.Text() != d.Text()) {
				out = append(out, d)
			}
		}
	}
	return out
}
