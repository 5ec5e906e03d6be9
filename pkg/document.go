package makerelease

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Document is a structured key-value file held as its raw bytes. Edits are
// applied to the bytes directly so key order and untouched content survive a
// load/save cycle.
type Document struct {
	path  string
	codec documentCodec
	raw   []byte
}

// Path returns the file backing the document.
func (d *Document) Path() string { return d.path }

// Bytes returns the current serialized content.
func (d *Document) Bytes() []byte { return d.raw }

type documentCodec interface {
	validate(raw []byte) error
	lookup(raw []byte, field []string) (string, bool, error)
	replace(raw []byte, field []string, value string) ([]byte, bool, error)
}

func codecFor(path string) (documentCodec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return tomlCodec{}, nil
	case ".yaml", ".yml":
		return yamlCodec{}, nil
	case ".json":
		return jsonCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported document format %q", filepath.Ext(path))
	}
}

// SplitField turns a dotted field path such as "package.version" into keys.
func SplitField(dotted string) []string {
	return strings.Split(dotted, ".")
}

// DocumentStore loads, edits and saves structured documents on a filesystem.
type DocumentStore struct {
	fs afero.Fs
}

// NewDocumentStore returns a store over fs. A nil fs means the OS filesystem.
func NewDocumentStore(fs afero.Fs) *DocumentStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &DocumentStore{fs: fs}
}

// Load reads and validates the document at path.
func (s *DocumentStore) Load(path string) (*Document, error) {
	codec, err := codecFor(path)
	if err != nil {
		return nil, &DocumentParseError{Path: path, Err: err}
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, &DocumentNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := codec.validate(data); err != nil {
		return nil, &DocumentParseError{Path: path, Err: err}
	}
	return &Document{path: path, codec: codec, raw: data}, nil
}

// VersionField returns the string stored at field.
func (s *DocumentStore) VersionField(doc *Document, field []string) (string, error) {
	value, ok, err := doc.codec.lookup(doc.raw, field)
	if err != nil {
		return "", &DocumentParseError{Path: doc.path, Err: err}
	}
	if !ok {
		return "", &MissingFieldError{Path: doc.path, Field: field}
	}
	return value, nil
}

// SetVersionField replaces the string stored at field. The field must already
// exist; no keys are created.
func (s *DocumentStore) SetVersionField(doc *Document, field []string, value string) error {
	out, ok, err := doc.codec.replace(doc.raw, field, value)
	if err != nil {
		return &DocumentParseError{Path: doc.path, Err: err}
	}
	if !ok {
		return &MissingFieldError{Path: doc.path, Field: field}
	}
	doc.raw = out
	return nil
}

// Save overwrites the backing file with the document content. No backup is kept.
func (s *DocumentStore) Save(doc *Document) error {
	if err := afero.WriteFile(s.fs, doc.path, doc.raw, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", doc.path, err)
	}
	return nil
}
