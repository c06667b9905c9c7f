package view

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/diewo77/invoicer-web/i18n"
)

var (
	baseDir  string
	once     sync.Once
	devMode  bool
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}

	langResolver = func(r *http.Request) string { return i18n.LangFromContext(r.Context()) }
)

// partials are parsed next to every page that uses the layout.
var partials = []string{
	"pagination.html",
	"errors-alert.html",
	"flash.html",
}

// SetDevMode disables the template cache so edits show up on reload.
func SetDevMode(dev bool) { devMode = dev }

// SetLangResolver allows the host app to provide a custom language resolver.
func SetLangResolver(f func(*http.Request) string) {
	if f != nil {
		langResolver = f
	}
}

// layoutBase walks upward from a template path to find the directory that contains layout.html.
// If none is found, it returns the template's own directory.
func layoutBase(mainPath string) string {
	d := filepath.Dir(mainPath)
	for {
		lp := filepath.Join(d, "layout.html")
		if fi, err := os.Stat(lp); err == nil && !fi.IsDir() {
			return d
		}
		p := filepath.Dir(d)
		if p == d {
			return filepath.Dir(mainPath)
		}
		d = p
	}
}

func detectBase() {
	candidates := []string{"templates", "../templates", "../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

// Funcs returns the standard func map including i18n and simple helpers.
func Funcs(r *http.Request) template.FuncMap {
	lang := langResolver(r)
	return template.FuncMap{
		"t":     func(code string) string { return i18n.T(lang, code) },
		"lang":  func() string { return lang },
		"money": func(v any) string { return Money(lang, v) },
		"mul": func(a, b any) float64 {
			fa, oka := toFloat64(a)
			fb, okb := toFloat64(b)
			if !oka || !okb {
				return 0
			}
			return fa * fb
		},
		"add": func(a, b any) float64 {
			fa, oka := toFloat64(a)
			fb, okb := toFloat64(b)
			if !oka || !okb {
				return 0
			}
			return fa + fb
		},
		"pageURL": PageURL,
		"year":    func() int { return time.Now().Year() },
		"asset":   versionedAsset,
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

// Money formats an amount in euros with the separators of lang.
func Money(lang string, v any) string {
	f, ok := toFloat64(v)
	if !ok {
		return ""
	}
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.French
	}
	return message.NewPrinter(tag).Sprintf("%.2f €", f)
}

// PageURL builds path?page=N&per_page=M.
func PageURL(path string, page, perPage int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	return path + "?" + q.Encode()
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case interface{ Float() float64 }:
		return n.Float(), true
	default:
		return 0, false
	}
}

// versionedAsset returns /static/<name>?v=<hash> for cache busting.
func versionedAsset(rel string) string {
	p := filepath.Join("static", rel)
	b, err := os.ReadFile(p)
	if err != nil {
		return "/static/" + rel
	}
	h := sha1.Sum(b)
	return "/static/" + rel + "?v=" + fmt.Sprintf("%x", h[:8])
}

// SetBaseDir overrides the template base directory (useful for tests or custom setups).
func SetBaseDir(path string) {
	if path == "" {
		return
	}
	baseDir = filepath.Clean(path)
	once = sync.Once{}
}

// ResetForTests clears caches and forces base dir detection to rerun.
func ResetForTests() {
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
	baseDir = ""
	once = sync.Once{}
}

const flashCookie = "flash"

// Flash stores a translated message shown by the next rendered page.
func Flash(w http.ResponseWriter, r *http.Request, code string) {
	msg := i18n.T(langResolver(r), code)
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: url.QueryEscape(msg), Path: "/", HttpOnly: true})
}

// takeFlash reads and clears the flash cookie.
func takeFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}

// Render parses and executes a single template file with shared funcs.
// name is relative to the templates directory (e.g., "invoices/index.html").
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus is Render with an explicit status code.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	if baseDir == "" {
		once.Do(detectBase)
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	if _, exists := data["Flash"]; !exists {
		data["Flash"] = takeFlash(w, r)
	}
	data["Path"] = r.URL.Path

	t, err := load(r, name)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

// load returns the parsed template set for name. Cached sets are rebound to the
// request's func map, since translations depend on the request language.
func load(r *http.Request, name string) (*template.Template, error) {
	funcMap := Funcs(r)
	if !devMode {
		tplCache.RLock()
		t, ok := tplCache.m[name]
		tplCache.RUnlock()
		if ok && t != nil {
			c, err := t.Clone()
			if err != nil {
				return nil, err
			}
			return c.Funcs(funcMap), nil
		}
	}

	mainPath := filepath.Join(baseDir, name)
	if _, err := os.Stat(mainPath); err != nil {
		candidates := []string{
			filepath.Join("templates", name),
			filepath.Join("../templates", name),
			filepath.Join("../../templates", name),
		}
		for _, c := range candidates {
			if fi, e2 := os.Stat(c); e2 == nil && !fi.IsDir() {
				mainPath = c
				break
			}
		}
		if _, err2 := os.Stat(mainPath); err2 != nil {
			return nil, err
		}
	}
	base := layoutBase(mainPath)
	layoutPath := filepath.Join(base, "layout.html")
	if _, err := os.Stat(layoutPath); err != nil {
		return nil, fmt.Errorf("layout for %s: %w", name, err)
	}

	files := []string{layoutPath, mainPath}
	for _, p := range partials {
		pp := filepath.Join(base, "partials", p)
		if pf, err := os.Stat(pp); err == nil && !pf.IsDir() {
			files = append(files, pp)
		}
	}
	t, err := template.New("layout.html").Funcs(funcMap).ParseFiles(files...)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.New("template not parsed")
	}
	if !devMode {
		tplCache.Lock()
		tplCache.m[name] = t
		tplCache.Unlock()
		return t.Clone()
	}
	return t, nil
}
