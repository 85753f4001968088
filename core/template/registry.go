package template

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	scherr "github.com/adalundhe/scholar/core/errors"
)

// Registry holds the loaded templates keyed by template type. Construct
// one per run with NewRegistry and Load; the registry is read-only
// afterwards and safe for concurrent readers.
type Registry struct {
	dir       string
	mu        sync.RWMutex
	templates map[string]*Template
	logger    *slog.Logger
}

// NewRegistry creates an empty registry rooted at dir.
func NewRegistry(dir string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		dir:       dir,
		templates: make(map[string]*Template),
		logger:    logger,
	}
}

// Load reads every YAML template in the directory and validates each one.
// A template whose declared variables never appear in any text block fails
// the load here, at configuration time, rather than at render time.
func (r *Registry) Load() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return scherr.Wrap(scherr.KindConfiguration,
			fmt.Sprintf("read templates directory %s", r.dir), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}

		path := filepath.Join(r.dir, entry.Name())
		tmpl, err := readTemplate(path)
		if err != nil {
			return err
		}

		r.templates[tmpl.TemplateType] = tmpl
		r.logger.Debug("loaded template", "type", tmpl.TemplateType, "variables", len(tmpl.Variables))
	}

	return nil
}

// Register adds a template directly, validating it. Used by tests and by
// callers that assemble templates programmatically.
func (r *Registry) Register(tmpl *Template) error {
	if err := validateTemplate(tmpl, tmpl.TemplateType); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[tmpl.TemplateType] = tmpl
	return nil
}

// Get returns the template for the given type.
func (r *Registry) Get(templateType string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tmpl, ok := r.templates[templateType]
	if !ok {
		return nil, scherr.Newf(scherr.KindNotFound,
			"template type %q not registered", templateType)
	}
	return tmpl, nil
}

// ListTypes returns all registered template types, sorted.
func (r *Registry) ListTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.templates))
	for t := range r.templates {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// SuitableTypes returns the template types whose content affinity accepts
// the given content type, sorted.
func (r *Registry) SuitableTypes(contentType string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var types []string
	for name, tmpl := range r.templates {
		if tmpl.AcceptsContentType(contentType) {
			types = append(types, name)
		}
	}
	sort.Strings(types)
	return types
}

func readTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, scherr.Wrap(scherr.KindConfiguration,
			fmt.Sprintf("read template %s", path), err)
	}

	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, scherr.Wrap(scherr.KindConfiguration,
			fmt.Sprintf("parse template %s", path), err)
	}

	if err := validateTemplate(&tmpl, path); err != nil {
		return nil, err
	}

	return &tmpl, nil
}

// validateTemplate checks required fields and that every declared variable
// is syntactically present in at least one text block.
func validateTemplate(tmpl *Template, origin string) error {
	if tmpl.TemplateType == "" {
		return scherr.Newf(scherr.KindConfiguration,
			"template %s: template_type is required", origin)
	}

	blockNames := []string{"system_prompt", "knowledge_context", "task_instruction", "response_format"}
	var missingBlocks []string
	for i, block := range tmpl.blocks() {
		if strings.TrimSpace(block) == "" {
			missingBlocks = append(missingBlocks, blockNames[i])
		}
	}
	if len(missingBlocks) > 0 {
		return scherr.Newf(scherr.KindConfiguration,
			"template %q: required blocks missing: %s",
			tmpl.TemplateType, strings.Join(missingBlocks, ", "))
	}

	var missing []string
	for _, v := range tmpl.Variables {
		if !variableAppears(tmpl, v) {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return scherr.Newf(scherr.KindConfiguration,
			"template %q: declared variables never referenced: %s",
			tmpl.TemplateType, strings.Join(missing, ", "))
	}

	return nil
}

func variableAppears(tmpl *Template, name string) bool {
	needle := "{" + name + "}"
	for _, block := range tmpl.blocks() {
		if strings.Contains(block, needle) {
			return true
		}
	}
	return false
}

func isYAML(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}
