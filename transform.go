package anyform

import (
	"sort"
	"strings"
)

// Transform applies the tree-shaping options of cfg (metadata stripping, key
// sorting) to a generic tree value, returning a new tree. The input is never
// mutated; untouched subtrees may be shared with the result.
func Transform(v any, cfg *Config) (any, error) {
	cfg = cfg.orZero()
	if !cfg.StripMetadata && !cfg.SortKeys {
		return v, nil
	}
	return transformValue(v, NewDepthContext(cfg))
}

// IsMetadataKey reports whether an object key names converter metadata
// rather than payload data ("@..." attribute-style and "#..." text-style
// keys, as produced by the XML and Protobuf decoders).
func IsMetadataKey(key string) bool {
	return strings.HasPrefix(key, "@") || strings.HasPrefix(key, "#")
}

func transformValue(v any, dc DepthContext) (any, error) {
	switch tv := v.(type) {
	case *Object:
		out := NewObject()
		keys := tv.Keys()
		if dc.Config.SortKeys {
			keys = append([]string(nil), keys...)
			sort.Strings(keys)
		}
		for _, k := range keys {
			if dc.Config.StripMetadata && IsMetadataKey(k) {
				continue
			}
			child, _ := tv.Get(k)
			next := dc.Next()
			if err := next.Check(); err != nil {
				if !dc.IgnoreErrors() {
					return nil, err
				}
				out.Set(k, next.Placeholder())
				continue
			}
			cv, err := transformValue(child, next)
			if err != nil {
				return nil, err
			}
			out.Set(k, cv)
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(tv))
		for _, child := range tv {
			next := dc.Next()
			if err := next.Check(); err != nil {
				if !dc.IgnoreErrors() {
					return nil, err
				}
				out = append(out, next.Placeholder())
				continue
			}
			cv, err := transformValue(child, next)
			if err != nil {
				return nil, err
			}
			out = append(out, cv)
		}
		return out, nil
	default:
		return v, nil
	}
}
