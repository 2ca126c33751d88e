package build

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"twc/config"
	"twc/state"
)

func setupTestEnv(t *testing.T) *state.LocalEnv {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return &state.LocalEnv{
		Cfg: cfg,
		Log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestOutputPath(t *testing.T) {
	dst := filepath.FromSlash("/out")
	tests := []struct {
		name          string
		src           string
		template      string
		transliterate bool
		want          string
	}{
		{"default", "styles/main.pcss", "", false, "/out/main.css"},
		{"keeps css extension", "main.css", "", false, "/out/main.css"},
		{"template", "styles/main.css", "{{ .Name | upper }}.min", false, "/out/MAIN.min.css"},
		{"template with dirs", "styles/main.css", "{{ .Dir }}/{{ .Name }}", false, "/out/styles/main.css"},
		{"template with extension", "main.css", "dist/{{ .SourceFile }}", false, "/out/dist/main.css"},
		{"transliterate", "Café Déjà Vu.css", "", true, "/out/cafe-deja-vu.css"},
		{"empty template result", "styles/app.css", "{{ if false }}x{{ end }}", false, "/out/app.css"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.BuildConfig{OutputNameTemplate: tt.template, FileNameTransliterate: tt.transliterate}
			got, err := outputPath(tt.src, dst, cfg)
			if err != nil {
				t.Fatal(err)
			}
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("outputPath() = %q, want %q", got, filepath.FromSlash(tt.want))
			}
		})
	}

	if _, err := outputPath("a.css", dst, &config.BuildConfig{OutputNameTemplate: "{{ .Nope }"}); err == nil {
		t.Error("expected template error")
	}
}

func TestBuildAll(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	out := filepath.Join(dir, "out")

	writeFile(t, filepath.Join(dir, "design.yaml"), `corePlugins: [display]
theme:
  screens:
    md: 768px
`)
	writeFile(t, filepath.Join(src, "a.css"), "@tailwind utilities;\n.a { color: red }\n@tailwind screens;\n")
	writeFile(t, filepath.Join(src, "b.css"), "@screen md { .b { color: blue } }\n")
	writeFile(t, filepath.Join(src, "bad.css"), "@tailwind preflight;\n")
	writeFile(t, filepath.Join(dir, "site", "index.html"), `<div class="block md:hidden a">`)

	env := setupTestEnv(t)
	cfg := env.Cfg.Build
	cfg.Concurrency = 2
	cfg.Purge = config.PurgeConfig{Enable: true, Content: []string{filepath.Join(dir, "site", "*.html")}}

	b, err := newBuilder(env, &cfg, filepath.Join(dir, "design.yaml"), out, env.Log)
	if err != nil {
		t.Fatal(err)
	}

	err = b.buildAll(context.Background(), []string{
		filepath.Join(src, "a.css"),
		filepath.Join(src, "b.css"),
		filepath.Join(src, "bad.css"),
	})
	if err == nil || !strings.Contains(err.Error(), "bad.css") {
		t.Fatalf("expected failure of bad.css only, got %v", err)
	}
	if strings.Contains(err.Error(), "a.css") {
		t.Errorf("a.css should succeed: %v", err)
	}

	a, err := os.ReadFile(filepath.Join(out, "a.css"))
	if err != nil {
		t.Fatalf("a.css was not written: %v", err)
	}
	for _, want := range []string{".block {", `.md\:hidden {`, "@media (min-width: 768px)", ".a {"} {
		if !strings.Contains(string(a), want) {
			t.Errorf("a.css lacks %q:\n%s", want, a)
		}
	}
	for _, unwanted := range []string{".flex {", `.md\:flex`} {
		if strings.Contains(string(a), unwanted) {
			t.Errorf("a.css should be purged of %q", unwanted)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "b.css")); err != nil {
		t.Errorf("b.css was not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "bad.css")); err == nil {
		t.Error("no output expected for failed stylesheet")
	}

	// second run without overwrite refuses to touch existing output
	err = b.buildAll(context.Background(), []string{filepath.Join(src, "b.css")})
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("expected existing output error, got %v", err)
	}
	b.overwrite = true
	if err := b.buildAll(context.Background(), []string{filepath.Join(src, "b.css")}); err != nil {
		t.Errorf("overwrite: %v", err)
	}
}

func TestBuildFile_SourceProtected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.css"), ".a { color: red }")

	env := setupTestEnv(t)
	b, err := newBuilder(env, &env.Cfg.Build, "", dir, env.Log)
	if err != nil {
		t.Fatal(err)
	}
	b.overwrite = true
	err = b.buildFile(context.Background(), filepath.Join(dir, "main.css"))
	if err == nil || !strings.Contains(err.Error(), "overwrite source") {
		t.Errorf("expected source protection error, got %v", err)
	}
}

func TestBuildAll_Cancelled(t *testing.T) {
	env := setupTestEnv(t)
	b, err := newBuilder(env, &env.Cfg.Build, "", t.TempDir(), env.Log)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.buildAll(ctx, []string{"a.css"}); err == nil {
		t.Error("expected cancellation error")
	}
}

func TestWithPurge(t *testing.T) {
	content := make([]string, 1, 4)
	content[0] = "site/*.html"
	base := config.BuildConfig{Purge: config.PurgeConfig{Content: content}}

	got := withPurge(base, []string{"extra/*.html"})
	if !got.Purge.Enable || len(got.Purge.Content) != 2 || got.Purge.Content[1] != "extra/*.html" {
		t.Errorf("unexpected purge section %+v", got.Purge)
	}
	if base.Purge.Enable || len(base.Purge.Content) != 1 {
		t.Errorf("source configuration changed: %+v", base.Purge)
	}
	// spare capacity of the source slice must stay untouched
	if spare := content[:2][1]; spare != "" {
		t.Errorf("source backing array written: %q", spare)
	}

	if same := withPurge(base, nil); same.Purge.Enable {
		t.Error("purge must stay disabled without patterns")
	}
}
