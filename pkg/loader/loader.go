package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-glimmer/pkg/app"
	"github.com/goliatone/go-glimmer/pkg/component"
	"github.com/goliatone/go-glimmer/pkg/render"
	"github.com/goliatone/go-glimmer/pkg/shell"
)

// ManifestFile is the optional configuration file at the root of an app
// directory.
const ManifestFile = "app.yaml"

// TemplateExt is the extension template files are recognised by.
const TemplateExt = ".hbs"

// Manifest describes an application loaded from a directory.
type Manifest struct {
	Root        string
	RootTag     string
	Title       string
	Layout      string
	Stylesheets []string
	Scripts     []string
	// Locale and Messages feed the "t" translation helper.
	Locale   string
	Messages map[string]map[string]string
	// State seeds map-backed components by name.
	State map[string]map[string]any
	// Templates maps component names to template source.
	Templates map[string]string
	// Sources maps component names to the file they were read from.
	Sources map[string]string
	// FS is the filesystem the manifest was read from. Layout paths resolve
	// against it.
	FS fs.FS
}

type manifestFile struct {
	Root        string                       `yaml:"root"`
	RootTag     string                       `yaml:"rootTag"`
	Title       string                       `yaml:"title"`
	Layout      string                       `yaml:"layout"`
	Stylesheets []string                     `yaml:"stylesheets"`
	Scripts     []string                     `yaml:"scripts"`
	Locale      string                       `yaml:"locale"`
	Messages    map[string]map[string]string `yaml:"messages"`
	State       map[string]map[string]any    `yaml:"state"`
}

// LoadFS reads app.yaml (when present) and every *.hbs file below the root of
// fsys. A template's name is its file name without the extension, so
// components/HelloWorld.hbs defines HelloWorld.
func LoadFS(fsys fs.FS) (*Manifest, error) {
	if fsys == nil {
		return nil, errors.New("loader: filesystem is nil")
	}

	m := &Manifest{
		State:     make(map[string]map[string]any),
		Templates: make(map[string]string),
		Sources:   make(map[string]string),
		FS:        fsys,
	}

	if err := m.readManifest(fsys); err != nil {
		return nil, err
	}

	err := fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			if p != "." && strings.HasPrefix(entry.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if path.Ext(p) != TemplateExt {
			return nil
		}

		name := strings.TrimSuffix(path.Base(p), TemplateExt)
		if prev, exists := m.Sources[name]; exists {
			return fmt.Errorf("loader: template %q defined by both %s and %s", name, prev, p)
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("loader: read %s: %w", p, err)
		}
		m.Templates[name] = string(data)
		m.Sources[name] = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(m.Templates) == 0 {
		return nil, fmt.Errorf("loader: no %s templates found", TemplateExt)
	}
	return m, nil
}

func (m *Manifest) readManifest(fsys fs.FS) error {
	data, err := fs.ReadFile(fsys, ManifestFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loader: read %s: %w", ManifestFile, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var raw manifestFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("loader: parse %s: %w", ManifestFile, err)
	}

	m.Root = strings.TrimSpace(raw.Root)
	m.RootTag = strings.TrimSpace(raw.RootTag)
	m.Title = raw.Title
	m.Layout = strings.TrimSpace(raw.Layout)
	m.Stylesheets = append([]string(nil), raw.Stylesheets...)
	m.Scripts = append([]string(nil), raw.Scripts...)
	m.Locale = strings.TrimSpace(raw.Locale)
	m.Messages = raw.Messages
	for name, values := range raw.State {
		m.State[name] = values
	}
	return nil
}

// Names returns the template names in sorted order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Templates))
	for name := range m.Templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options returns the builder options the manifest configures.
func (m *Manifest) Options() []app.Option {
	var opts []app.Option
	if m.Root != "" {
		opts = append(opts, app.WithRootName(m.Root))
	}
	if m.RootTag != "" {
		opts = append(opts, app.WithRootTag(m.RootTag))
	}
	return opts
}

// ShellOptions selects the manifest's layout, resolved against the manifest
// filesystem. Without a layout the embedded default is used.
func (m *Manifest) ShellOptions() []shell.Option {
	if m.Layout == "" || m.FS == nil {
		return nil
	}
	return []shell.Option{shell.WithLayoutFS(m.FS), shell.WithLayout(m.Layout)}
}

// Page returns the shell page for body with the manifest's title, locale
// and assets.
func (m *Manifest) Page(body string) shell.Page {
	return shell.Page{
		Title:       m.Title,
		Lang:        m.Locale,
		Stylesheets: m.Stylesheets,
		Scripts:     m.Scripts,
		Body:        body,
	}
}

// TranslationHelper is the helper name Apply registers when the manifest
// defines messages.
const TranslationHelper = "t"

// Apply registers every template on b, a state-backed component for each
// state entry and the translation helper when messages are configured.
func (m *Manifest) Apply(b *app.Builder) error {
	for _, name := range m.Names() {
		if err := b.AddTemplate(name, m.Templates[name]); err != nil {
			return fmt.Errorf("loader: %s: %w", m.Sources[name], err)
		}
	}

	names := make([]string, 0, len(m.State))
	for name := range m.State {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := b.AddComponent(name, component.FromMap(m.State[name])); err != nil {
			return fmt.Errorf("loader: state %q: %w", name, err)
		}
	}

	if len(m.Messages) > 0 {
		helper := render.TranslateHelper(render.Messages(m.Messages), render.I18nConfig{Locale: m.Locale})
		if err := b.AddHelper(TranslationHelper, helper); err != nil {
			return fmt.Errorf("loader: %w", err)
		}
	}
	return nil
}
