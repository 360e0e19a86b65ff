package model

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/aretw0/treetagger/pkg/domain"
)

var encodingName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._+-]*$`)

// FileChecker answers filesystem questions for the resolver.
type FileChecker interface {
	Exists(path string) bool
	Readable(path string) bool
}

// OSFileChecker checks plain filesystem entries only.
type OSFileChecker struct{}

func (OSFileChecker) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (OSFileChecker) Readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// Resolver turns model specs into Descriptors.
type Resolver struct {
	checkExistence bool
	files          FileChecker
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithExistenceCheck makes Resolve fail with domain.ErrNotFound for paths
// that are not readable filesystem files.
func WithExistenceCheck(check bool) Option {
	return func(r *Resolver) {
		r.checkExistence = check
	}
}

// WithFileChecker replaces the filesystem collaborator.
func WithFileChecker(fc FileChecker) Option {
	return func(r *Resolver) {
		r.files = fc
	}
}

// NewResolver creates a Resolver. Existence checking is off by default.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		files: OSFileChecker{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve parses spec into a Descriptor.
func (r *Resolver) Resolve(spec string) (Descriptor, error) {
	path, encName := Split(spec)
	if path == "" {
		return Descriptor{}, fmt.Errorf("%w: empty model path in %q", domain.ErrNotFound, spec)
	}

	enc, err := LookupEncoding(encName)
	if err != nil {
		return Descriptor{}, fmt.Errorf("model %q: %w", spec, err)
	}

	if r.checkExistence {
		if !r.files.Exists(path) || !r.files.Readable(path) {
			return Descriptor{}, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
	}

	return Descriptor{
		Path:     path,
		Encoding: encName,
		Name:     spec,
		enc:      enc,
	}, nil
}

// Resolve is a shortcut for NewResolver(WithExistenceCheck(checkExistence)).Resolve(spec).
func Resolve(spec string, checkExistence bool) (Descriptor, error) {
	return NewResolver(WithExistenceCheck(checkExistence)).Resolve(spec)
}

// Split separates a model spec into its path and encoding parts.
// It splits on the last colon only when the suffix is a syntactically valid
// encoding name and the colon is not part of a drive letter.
func Split(spec string) (path, encName string) {
	idx := strings.LastIndex(spec, ":")
	if idx < 0 || isDriveColon(spec, idx) {
		return spec, DefaultEncoding
	}
	suffix := spec[idx+1:]
	if !encodingName.MatchString(suffix) {
		return spec, DefaultEncoding
	}
	return spec[:idx], suffix
}

// isDriveColon reports whether the colon at idx follows a single drive letter
// at the start of spec and precedes a path separator.
func isDriveColon(spec string, idx int) bool {
	if idx != 1 {
		return false
	}
	c := spec[0]
	if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
		return false
	}
	return len(spec) > 2 && (spec[2] == '\\' || spec[2] == '/')
}
