package processor

import (
	"fmt"
	"path/filepath"
	"strings"

	"watermarker/internal/watermark"
)

// NamingRule is one of KeepName, Prefix or Suffix.
type NamingRule interface {
	isNaming()
}

type KeepName struct{}

type Prefix struct {
	Text string `validate:"required,excludesall=/\\"`
}

type Suffix struct {
	Text string `validate:"required,excludesall=/\\"`
}

func (KeepName) isNaming() {}
func (Prefix) isNaming()   {}
func (Suffix) isNaming()   {}

// ParseNaming maps a CLI rule name and its affix onto a NamingRule.
func ParseNaming(kind, affix string) (NamingRule, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "original", "keep":
		return KeepName{}, nil
	case "prefix":
		return Prefix{Text: affix}, nil
	case "suffix":
		return Suffix{Text: affix}, nil
	default:
		return nil, fmt.Errorf("unknown naming rule %q", kind)
	}
}

// OutputName builds {prefix?}{basename}{suffix?}.{png|jpeg} for src.
func OutputName(rule NamingRule, src string, format watermark.Format) (string, error) {
	base := filepath.Base(src)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	switch r := rule.(type) {
	case nil, KeepName:
	case Prefix:
		base = r.Text + base
	case Suffix:
		base = base + r.Text
	default:
		return "", fmt.Errorf("unknown naming rule %T", rule)
	}
	return base + format.Ext(), nil
}

func validateNaming(rule NamingRule) error {
	switch r := rule.(type) {
	case nil, KeepName:
		return nil
	case Prefix, Suffix:
		if err := validate.Struct(r); err != nil {
			return fmt.Errorf("naming: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown naming rule %T", rule)
	}
}
