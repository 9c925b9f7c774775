package template

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// LastUsedName is the reserved record holding the most recently applied
// settings.
const LastUsedName = "__last_used__"

var (
	ErrNotFound        = errors.New("template not found")
	ErrInvalidName     = errors.New("invalid template name")
	ErrMalformedRecord = errors.New("malformed template record")
)

// Store keeps named templates plus the distinguished last-used record.
// Nothing is written implicitly: callers decide when to SaveLastUsed.
type Store interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) (Template, error)
	Save(ctx context.Context, tpl Template) error
	Delete(ctx context.Context, name string) error
	LoadLastUsed(ctx context.Context) (Template, error)
	SaveLastUsed(ctx context.Context, tpl Template) error
}

// ValidateName rejects names that cannot be used as a single file name or
// that collide with the last-used record.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case trimmed != name:
		return fmt.Errorf("%w: %q has surrounding spaces", ErrInvalidName, name)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\:`+"\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.EqualFold(name, LastUsedName):
		return fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	}
	return nil
}
