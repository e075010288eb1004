package table

import (
	"github.com/dvekon/gralt"
)

const (
	EmptyDocumentError = iota + gralt.TableErrors
	VersionError
)

func emptyDocumentError() *gralt.Error {
	return gralt.FormatError(EmptyDocumentError, "document holds neither a scanner nor a parser table")
}

func versionError(major int) *gralt.Error {
	return gralt.FormatError(VersionError,
		"document format version %d is not %d", major, gralt.VersionMajor)
}
