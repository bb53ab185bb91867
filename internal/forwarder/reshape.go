package forwarder

import (
	"net/url"
	"path"
	"sort"
	"strings"
)

// DownloadPrefix is the local proxy path download URLs are rewritten to.
const DownloadPrefix = "/api/download/"

// Reshape rewrites download_url to the local proxy and normalizes
// visualizations into {"plots": [...]}. data is modified in place and returned.
func Reshape(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	if raw, ok := data["download_url"].(string); ok && raw != "" {
		if name := lastSegment(raw); name != "" {
			data["download_url"] = DownloadPrefix + name
		}
	}
	if v, ok := data["visualizations"]; ok && v != nil {
		data["visualizations"] = normalizeVisualizations(v)
	}
	return data
}

func lastSegment(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

func normalizeVisualizations(v any) any {
	switch vis := v.(type) {
	case map[string]any:
		if _, ok := vis["plots"]; ok {
			return vis
		}
		keys := make([]string, 0, len(vis))
		for k := range vis {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		plots := make([]any, 0, len(vis))
		for _, k := range keys {
			if inner, ok := vis[k].([]any); ok {
				plots = append(plots, inner...)
			} else {
				plots = append(plots, vis[k])
			}
		}
		return map[string]any{"plots": plots}
	case []any:
		return map[string]any{"plots": vis}
	default:
		return v
	}
}
