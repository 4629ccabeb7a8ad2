package transform

import (
	"fmt"
	"net/url"
	"strings"
)

// AspectRatio describes one selectable target frame for fill-style types.
type AspectRatio struct {
	Label  string `json:"label"`
	Ratio  string `json:"ratio"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// AspectRatios is the fixed set of selectable frames.
var AspectRatios = map[string]AspectRatio{
	"1:1":  {Label: "Square (1:1)", Ratio: "1:1", Width: 1000, Height: 1000},
	"3:4":  {Label: "Standard Portrait (3:4)", Ratio: "3:4", Width: 1000, Height: 1334},
	"9:16": {Label: "Phone Portrait (9:16)", Ratio: "9:16", Width: 1000, Height: 1778},
}

// LookupAspectRatio resolves an aspect-ratio key.
func LookupAspectRatio(key string) (AspectRatio, bool) {
	ar, ok := AspectRatios[key]
	return ar, ok
}

// DeliveryURL constructs the CDN delivery URL for a source asset under a
// configuration. Construction is pure and deterministic; the CDN resolves
// the URL (and renders the transformation) only when it is fetched.
func DeliveryURL(baseURL, cloud, publicID string, cfg Config, width, height int) string {
	segments := make([]string, 0, 2)
	if effect := effectSegment(cfg); effect != "" {
		segments = append(segments, effect)
	}
	if width > 0 && height > 0 {
		segments = append(segments, fmt.Sprintf("w_%d,h_%d", width, height))
	}

	parts := []string{strings.TrimSuffix(baseURL, "/"), cloud, "image", "upload"}
	parts = append(parts, segments...)
	parts = append(parts, publicID)
	return strings.Join(parts, "/")
}

// effectSegment renders the type-specific transformation directive.
func effectSegment(cfg Config) string {
	switch cfg.Type {
	case TypeRestore:
		return "e_gen_restore"
	case TypeRemoveBackground:
		return "e_background_removal"
	case TypeFill:
		seg := "b_gen_fill,c_pad"
		if cfg.Fill != nil && cfg.Fill.AspectRatio != "" {
			seg += ",ar_" + cfg.Fill.AspectRatio
		}
		return seg
	case TypeRemove:
		if cfg.Remove == nil || cfg.Remove.Prompt == "" {
			return ""
		}
		seg := "e_gen_remove:prompt_" + escapePrompt(cfg.Remove.Prompt)
		if cfg.Remove.RemoveShadow {
			seg += ";remove-shadow_true"
		}
		if cfg.Remove.Multiple {
			seg += ";multiple_true"
		}
		return seg
	case TypeRecolor:
		if cfg.Recolor == nil || cfg.Recolor.Prompt == "" {
			return ""
		}
		seg := "e_gen_recolor:prompt_" + escapePrompt(cfg.Recolor.Prompt)
		if cfg.Recolor.To != "" {
			seg += ";to-color_" + escapePrompt(cfg.Recolor.To)
		}
		if cfg.Recolor.Multiple {
			seg += ";multiple_true"
		}
		return seg
	case TypeGenerativeFill:
		seg := "b_gen_fill"
		if cfg.GenerativeFill != nil && cfg.GenerativeFill.Prompt != "" {
			seg += ":prompt_" + escapePrompt(cfg.GenerativeFill.Prompt)
		}
		seg += ",c_pad"
		if cfg.GenerativeFill != nil && cfg.GenerativeFill.AspectRatio != "" {
			seg += ",ar_" + cfg.GenerativeFill.AspectRatio
		}
		return seg
	default:
		return ""
	}
}

// escapePrompt makes free-text prompt values safe inside a transformation
// segment. PathEscape leaves the CDN's own separators alone, so "," and ";"
// (and the ":" that opens a directive's parameter list) must be
// percent-encoded by hand or a prompt could smuggle extra directives into
// the segment.
func escapePrompt(s string) string {
	escaped := url.PathEscape(s)
	escaped = strings.ReplaceAll(escaped, ",", "%2C")
	escaped = strings.ReplaceAll(escaped, ";", "%3B")
	escaped = strings.ReplaceAll(escaped, ":", "%3A")
	return escaped
}
