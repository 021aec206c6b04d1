package service

import (
	"encoding/json"

	"chezben/config"
)

// AttributeLimits bounds the free-form listing attribute map.
type AttributeLimits struct {
	MaxKeys  int
	MaxDepth int
	MaxBytes int
}

func AttributeLimitsFrom(cfg *config.MarketplaceConfig) AttributeLimits {
	return AttributeLimits{MaxKeys: cfg.AttributeMaxKeys, MaxDepth: cfg.AttributeMaxDepth, MaxBytes: cfg.AttributeMaxBytes}
}

// ValidateAttributes checks size and nesting only; values are kept opaque.
func (l AttributeLimits) ValidateAttributes(attrs map[string]interface{}) error {
	if attrs == nil {
		return nil
	}
	if l.MaxKeys > 0 && len(attrs) > l.MaxKeys {
		return invalid("attributes: at most %d keys allowed", l.MaxKeys)
	}
	for k := range attrs {
		if k == "" {
			return invalid("attributes: empty key")
		}
	}
	if l.MaxDepth > 0 && depth(attrs) > l.MaxDepth {
		return invalid("attributes: nesting deeper than %d levels", l.MaxDepth)
	}
	if l.MaxBytes > 0 {
		raw, err := json.Marshal(attrs)
		if err != nil {
			return invalid("attributes: %v", err)
		}
		if len(raw) > l.MaxBytes {
			return invalid("attributes: encoded size exceeds %d bytes", l.MaxBytes)
		}
	}
	return nil
}

func depth(v interface{}) int {
	switch t := v.(type) {
	case map[string]interface{}:
		deepest := 0
		for _, child := range t {
			if d := depth(child); d > deepest {
				deepest = d
			}
		}
		return deepest + 1
	case []interface{}:
		deepest := 0
		for _, child := range t {
			if d := depth(child); d > deepest {
				deepest = d
			}
		}
		return deepest + 1
	default:
		return 0
	}
}
