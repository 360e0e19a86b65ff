package model

import (
	"fmt"
	"strings"

	"github.com/aretw0/treetagger/pkg/domain"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncoding is used when a model spec carries no encoding suffix.
const DefaultEncoding = "UTF-8"

// Descriptor identifies the parameter file the engine is started with
// and the character encoding of its streams. It is immutable.
type Descriptor struct {
	Path     string
	Encoding string
	Name     string

	enc encoding.Encoding
}

// Charset returns the resolved encoding. The zero Descriptor is UTF-8.
func (d Descriptor) Charset() encoding.Encoding {
	if d.enc == nil {
		return unicode.UTF8
	}
	return d.enc
}

// Equal reports whether both descriptors bind the engine to the same file and encoding.
func (d Descriptor) Equal(other Descriptor) bool {
	return d.Path == other.Path && strings.EqualFold(d.Encoding, other.Encoding)
}

func (d Descriptor) String() string {
	return d.Name
}

// LookupEncoding maps an encoding name to an implementation.
// IANA names are tried first, then the WHATWG labels ("iso8859-1", "latin1", ...).
func LookupEncoding(name string) (encoding.Encoding, error) {
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	if enc, err := htmlindex.Get(name); err == nil && enc != nil {
		return enc, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedEncoding, name)
}
