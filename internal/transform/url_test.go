package transform

import (
	"strings"
	"testing"
)

const (
	testBase  = "https://res.example.com"
	testCloud = "demo"
)

func mustDefault(t *testing.T, typ Type) Config {
	t.Helper()
	cfg, err := Default(typ)
	if err != nil {
		t.Fatalf("Default(%q) error = %v", typ, err)
	}
	return cfg
}

func TestDeliveryURL_Restore(t *testing.T) {
	cfg := mustDefault(t, TypeRestore)

	got := DeliveryURL(testBase, testCloud, "sample", cfg, 800, 600)
	want := "https://res.example.com/demo/image/upload/e_gen_restore/w_800,h_600/sample"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDeliveryURL_RemoveBackground(t *testing.T) {
	cfg := mustDefault(t, TypeRemoveBackground)

	got := DeliveryURL(testBase, testCloud, "sample", cfg, 800, 600)
	if !strings.Contains(got, "/e_background_removal/") {
		t.Errorf("missing background removal effect: %q", got)
	}
}

func TestDeliveryURL_FillWithAspectRatio(t *testing.T) {
	cfg := mustDefault(t, TypeFill)
	cfg.Fill.AspectRatio = "9:16"

	got := DeliveryURL(testBase, testCloud, "sample", cfg, 1000, 1778)
	want := "https://res.example.com/demo/image/upload/b_gen_fill,c_pad,ar_9:16/w_1000,h_1778/sample"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDeliveryURL_RemoveEscapesPrompt(t *testing.T) {
	cfg := mustDefault(t, TypeRemove)
	cfg.Remove.Prompt = "the red car"
	cfg.Remove.RemoveShadow = true

	got := DeliveryURL(testBase, testCloud, "sample", cfg, 800, 600)
	if !strings.Contains(got, "e_gen_remove:prompt_the%20red%20car;remove-shadow_true") {
		t.Errorf("prompt not escaped into effect segment: %q", got)
	}
}

func TestDeliveryURL_PromptCannotInjectDirectives(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{name: "comma", prompt: "a,w_9999", want: "prompt_a%2Cw_9999"},
		{name: "semicolon", prompt: "a;multiple_true", want: "prompt_a%3Bmultiple_true"},
		{name: "colon", prompt: "a:e_blur", want: "prompt_a%3Ae_blur"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustDefault(t, TypeRemove)
			cfg.Remove.Prompt = tt.prompt

			got := DeliveryURL(testBase, testCloud, "sample", cfg, 800, 600)
			if !strings.Contains(got, tt.want) {
				t.Errorf("got %q, want prompt encoded as %q", got, tt.want)
			}
			raw := "prompt_" + tt.prompt
			if strings.Contains(got, raw) {
				t.Errorf("separator survived unescaped: %q", got)
			}
		})
	}
}

func TestDeliveryURL_RemoveWithoutPromptHasNoEffect(t *testing.T) {
	cfg := mustDefault(t, TypeRemove)

	got := DeliveryURL(testBase, testCloud, "sample", cfg, 800, 600)
	want := "https://res.example.com/demo/image/upload/w_800,h_600/sample"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDeliveryURL_Recolor(t *testing.T) {
	cfg := mustDefault(t, TypeRecolor)
	cfg.Recolor.Prompt = "the car"
	cfg.Recolor.To = "red"
	cfg.Recolor.Multiple = true

	got := DeliveryURL(testBase, testCloud, "sample", cfg, 800, 600)
	if !strings.Contains(got, "e_gen_recolor:prompt_the%20car;to-color_red;multiple_true") {
		t.Errorf("unexpected recolor effect: %q", got)
	}
}

func TestDeliveryURL_GenerativeFill(t *testing.T) {
	cfg := mustDefault(t, TypeGenerativeFill)
	cfg.GenerativeFill.Prompt = "a sunset"
	cfg.GenerativeFill.AspectRatio = "1:1"

	got := DeliveryURL(testBase, testCloud, "sample", cfg, 1000, 1000)
	if !strings.Contains(got, "b_gen_fill:prompt_a%20sunset,c_pad,ar_1:1") {
		t.Errorf("unexpected generative fill effect: %q", got)
	}
}

func TestDeliveryURL_Deterministic(t *testing.T) {
	cfg := mustDefault(t, TypeRecolor)
	cfg.Recolor.Prompt = "the car"
	cfg.Recolor.To = "red"

	first := DeliveryURL(testBase, testCloud, "sample", cfg, 800, 600)
	second := DeliveryURL(testBase, testCloud, "sample", cfg, 800, 600)
	if first != second {
		t.Errorf("construction not deterministic: %q vs %q", first, second)
	}
}

func TestDeliveryURL_TrailingSlashTrimmed(t *testing.T) {
	cfg := mustDefault(t, TypeRestore)

	got := DeliveryURL(testBase+"/", testCloud, "sample", cfg, 0, 0)
	want := "https://res.example.com/demo/image/upload/e_gen_restore/sample"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLookupAspectRatio(t *testing.T) {
	tests := []struct {
		key    string
		width  int
		height int
		ok     bool
	}{
		{key: "1:1", width: 1000, height: 1000, ok: true},
		{key: "3:4", width: 1000, height: 1334, ok: true},
		{key: "9:16", width: 1000, height: 1778, ok: true},
		{key: "16:9", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			ar, ok := LookupAspectRatio(tt.key)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if ar.Width != tt.width || ar.Height != tt.height {
				t.Errorf("dimensions = %dx%d, want %dx%d", ar.Width, ar.Height, tt.width, tt.height)
			}
		})
	}
}
