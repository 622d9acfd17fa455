package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixDocument    = "doc"
	PrefixShape       = "shape"
	PrefixTransaction = "tx"
	PrefixSnapshot    = "snap"
	PrefixUser        = "user"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewDocumentID() string    { return New(PrefixDocument) }
func NewShapeID() string       { return New(PrefixShape) }
func NewTransactionID() string { return New(PrefixTransaction) }
func NewSnapshotID() string    { return New(PrefixSnapshot) }
func NewUserID() string        { return New(PrefixUser) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
