// Package table defines the versioned output document holding the built
// automatons and its JSON encoding. A document is only ever written after
// every build step succeeded.
package table

import (
	"encoding/json"
	"io"

	"github.com/pingcap/errors"

	"github.com/dvekon/gralt"
	"github.com/dvekon/gralt/lalr"
	"github.com/dvekon/gralt/scanner"
)

// Document is the serializable output of one build: at least one of the two
// tables, plus format version and an optional free-form comment.
type Document struct {
	Version [3]int         `json:"version"`
	Comment string         `json:"comment,omitempty"`
	Scanner *scanner.Table `json:"scanner,omitempty"`
	Parser  *lalr.Table    `json:"parser,omitempty"`
}

// New assembles a document at the current format version.
func New(sc *scanner.Table, p *lalr.Table) (*Document, error) {
	if sc == nil && p == nil {
		return nil, emptyDocumentError()
	}
	return &Document{
		Version: [3]int{gralt.VersionMajor, gralt.VersionMinor, gralt.VersionPatch},
		Scanner: sc,
		Parser:  p,
	}, nil
}

// Encode writes the document as indented JSON.
func (d *Document) Encode(w io.Writer) error {
	if d.Scanner == nil && d.Parser == nil {
		return emptyDocumentError()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	e := enc.Encode(d)
	return errors.Annotate(e, "encoding table document")
}

// Decode reads a document back, rejecting other major format versions and
// documents with no table at all.
func Decode(r io.Reader) (*Document, error) {
	d := &Document{}
	e := json.NewDecoder(r).Decode(d)
	if e != nil {
		return nil, errors.Annotate(e, "decoding table document")
	}

	if d.Version[0] != gralt.VersionMajor {
		return nil, versionError(d.Version[0])
	}
	if d.Scanner == nil && d.Parser == nil {
		return nil, emptyDocumentError()
	}
	return d, nil
}
