package build

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"

	"twc/config"
)

const outputExt = ".css"

// Values is a struct that holds variables we make available for output name
// template expansion.
type Values struct {
	Context    string
	Name       string // source file name without extension
	SourceFile string // source file name
	Dir        string // source directory as given
	Date       string
}

func expandTemplate(name config.TemplateFieldName, field, src string) (string, error) {
	tmpl, err := template.New(string(name)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	base := filepath.Base(src)
	values := Values{
		Context:    string(name),
		Name:       strings.TrimSuffix(base, filepath.Ext(base)),
		SourceFile: base,
		Dir:        filepath.ToSlash(filepath.Dir(src)),
		Date:       time.Now().Format("2006-01-02"),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// outputPath returns location of processed stylesheet for src under dst.
// Default name is the source name with ".css" extension; template result may
// contain "/" to produce sub directories. Every path segment is cleaned and
// optionally transliterated.
func outputPath(src, dst string, cfg *config.BuildConfig) (string, error) {
	name := ""
	if cfg.OutputNameTemplate != "" {
		expanded, err := expandTemplate(config.OutputNameTemplateFieldName, cfg.OutputNameTemplate, src)
		if err != nil {
			return "", err
		}
		name = expanded
	}
	if name == "" {
		base := filepath.Base(src)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	segments := splitPath(filepath.Clean(filepath.FromSlash(name)))
	if len(segments) == 0 {
		return "", fmt.Errorf("output name for %q is empty", src)
	}
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, dst)
	for i, s := range segments {
		s = cleanSegment(s, cfg.FileNameTransliterate)
		if i == len(segments)-1 && !strings.EqualFold(filepath.Ext(s), outputExt) {
			s += outputExt
		}
		parts = append(parts, s)
	}
	return filepath.Join(parts...), nil
}

func splitPath(path string) []string {
	var segments []string
	for head, tail := filepath.Split(strings.TrimSuffix(path, string(os.PathSeparator))); ; head, tail = filepath.Split(head) {
		if tail != "" && tail != "." && tail != ".." {
			segments = slices.Insert(segments, 0, tail)
		}
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" || tail == "" {
			break
		}
	}
	return segments
}

func cleanSegment(segment string, transliterate bool) string {
	if transliterate {
		ext := filepath.Ext(segment)
		if strings.EqualFold(ext, outputExt) {
			return slug.Make(strings.TrimSuffix(segment, ext)) + ext
		}
		segment = slug.Make(segment)
	}
	return config.SafeFileName(segment)
}
