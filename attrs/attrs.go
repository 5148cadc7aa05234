// Package attrs extracts PHP 8 attributes from source files without running
// them. A Parser reads a file, parses its declarations and evaluates every
// attribute argument as a constant expression.
package attrs

import (
	"iter"
	"log/slog"

	"github.com/hashicorp/go-version"
	"github.com/spf13/afero"

	"github.com/satishbabariya/phpattr/attrs/ast"
	"github.com/satishbabariya/phpattr/attrs/diagnostics"
	"github.com/satishbabariya/phpattr/attrs/evaluator"
	"github.com/satishbabariya/phpattr/attrs/parsing"
	"github.com/satishbabariya/phpattr/attrs/reader"
	"github.com/satishbabariya/phpattr/internal/debug"
)

// Parser extracts attributes from files. It is safe for concurrent use:
// every call works on its own file, context and evaluator.
type Parser struct {
	fs     afero.Fs
	parser *parsing.Parser
	log    *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithFs reads files from fs instead of the operating system.
func WithFs(fs afero.Fs) Option {
	return func(p *Parser) {
		if fs != nil {
			p.fs = fs
		}
	}
}

// WithVersion sets the PHP version of the scanned sources.
func WithVersion(v *version.Version) Option {
	return func(p *Parser) {
		p.parser = parsing.New(parsing.WithVersion(v))
	}
}

// WithSourceParser replaces the source parser altogether.
func WithSourceParser(sp *parsing.Parser) Option {
	return func(p *Parser) {
		if sp != nil {
			p.parser = sp
		}
	}
}

// WithLogger logs through l instead of the process debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		p.log = l
	}
}

func (p *Parser) logger() *slog.Logger {
	if p.log != nil {
		return p.log
	}
	return debug.Component("attrs")
}

// New creates a parser reading from the OS filesystem and targeting
// parsing.DefaultVersion unless configured otherwise.
func New(opts ...Option) *Parser {
	p := &Parser{
		fs:     afero.NewOsFs(),
		parser: parsing.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fs returns the filesystem files are read from.
func (p *Parser) Fs() afero.Fs {
	return p.fs
}

// Version returns the targeted PHP version.
func (p *Parser) Version() *version.Version {
	return p.parser.Version()
}

// ReadFile reads path, reporting failures as *diagnostics.InputError.
func (p *Parser) ReadFile(path string) ([]byte, error) {
	src, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return nil, &diagnostics.InputError{Path: path, Err: err}
	}
	return src, nil
}

// ParseFile reads and parses path. An unreadable file fails with
// *diagnostics.InputError before any parsing happens.
func (p *Parser) ParseFile(path string) (*ast.File, error) {
	src, err := p.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.ParseSource(path, src)
}

// ParseSource parses src as if it had been read from path.
func (p *Parser) ParseSource(path string, src []byte) (*ast.File, error) {
	file, err := p.parser.Parse(path, src)
	if err != nil {
		return nil, err
	}
	p.logger().Debug("Parsed PHP file", "file", path, "declarations", len(file.Decls))
	return file, nil
}

// ParseAttributes evaluates the attribute groups of one declaration site.
func (p *Parser) ParseAttributes(path string, groups []*ast.AttributeGroup, ctx evaluator.Context) iter.Seq2[*evaluator.Prototype, error] {
	return evaluator.ParseAttributes(path, groups, ctx)
}

// Reader parses path and returns a metadata reader over it.
func (p *Parser) Reader(path string) (*reader.Reader, error) {
	file, err := p.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return reader.New(file), nil
}

// Scan parses path and returns its attributes as a lazy sequence. Input and
// syntax errors are returned immediately; evaluation errors are yielded at
// the offending attribute.
func (p *Parser) Scan(path string) (iter.Seq2[*reader.Annotation, error], error) {
	r, err := p.Reader(path)
	if err != nil {
		return nil, err
	}
	return r.Annotations(), nil
}

// ScanAll is Scan drained into a slice.
func (p *Parser) ScanAll(path string) ([]*reader.Annotation, error) {
	seq, err := p.Scan(path)
	if err != nil {
		return nil, err
	}
	var out []*reader.Annotation
	for a, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, a)
	}
	return out, nil
}
