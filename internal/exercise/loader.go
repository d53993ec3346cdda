package exercise

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed content/*.yaml
var content embed.FS

// ModuleFile represents the YAML structure for one course module's practice
type ModuleFile struct {
	Module    int                     `yaml:"module"`
	Exercises map[string]ExerciseFile `yaml:"exercises"`
}

// ExerciseFile represents the YAML structure for an exercise
type ExerciseFile struct {
	Title       string     `yaml:"title"`
	Difficulty  string     `yaml:"difficulty"`
	Description string     `yaml:"description"`
	Steps       []StepFile `yaml:"steps"`
}

// StepFile represents the YAML structure for a step
type StepFile struct {
	Title       string       `yaml:"title"`
	Instruction string       `yaml:"instruction"`
	Scenario    string       `yaml:"scenario"`
	Hint        string       `yaml:"hint"`
	Rule        *domain.Rule `yaml:"rule"`
}

// Loader handles loading exercises from YAML files
type Loader struct {
	fsys   fs.FS
	schema *gojsonschema.Schema
}

// NewLoader creates a loader reading module files from a directory
func NewLoader(basePath string) *Loader {
	return NewFSLoader(os.DirFS(basePath))
}

// NewEmbeddedLoader creates a loader over the catalog shipped with the binary
func NewEmbeddedLoader() *Loader {
	sub, err := fs.Sub(content, "content")
	if err != nil {
		// content is a compile-time embed; Sub only fails on a bad path
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return NewFSLoader(sub)
}

// NewFSLoader creates a loader over any filesystem
func NewFSLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// LoadModuleFile loads the exercises defined in a single module file
func (l *Loader) LoadModuleFile(name string) ([]*domain.Exercise, error) {
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read module file: %w", err)
	}

	if err := l.validateSchema(data); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	var mf ModuleFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parse module file %s: %w", name, err)
	}

	exercises := make([]*domain.Exercise, 0, len(mf.Exercises))
	for _, t := range domain.ExerciseTypes {
		ef, ok := mf.Exercises[string(t)]
		if !ok {
			continue
		}
		ex, err := toDomain(domain.ModuleID(mf.Module), t, ef)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		exercises = append(exercises, ex)
	}

	return exercises, nil
}

// LoadAll loads every *.yaml module file in the loader's filesystem
func (l *Loader) LoadAll() ([]*domain.Exercise, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read exercises directory: %w", err)
	}

	var exercises []*domain.Exercise
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := path.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		loaded, err := l.LoadModuleFile(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("load module %s: %w", entry.Name(), err)
		}
		exercises = append(exercises, loaded...)
	}

	return exercises, nil
}

// LoadCatalog loads every module file and builds an immutable catalog
func (l *Loader) LoadCatalog() (*Catalog, error) {
	exercises, err := l.LoadAll()
	if err != nil {
		return nil, err
	}
	return NewCatalog(exercises...)
}

func (l *Loader) validateSchema(data []byte) error {
	if l.schema == nil {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(moduleSchema))
		if err != nil {
			return fmt.Errorf("compile module schema: %w", err)
		}
		l.schema = schema
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse module file: %w", err)
	}

	result, err := l.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate module file: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
	}
	return nil
}

func toDomain(module domain.ModuleID, t domain.ExerciseType, ef ExerciseFile) (*domain.Exercise, error) {
	difficulty := domain.Difficulty(ef.Difficulty)
	if !difficulty.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDifficulty, ef.Difficulty)
	}

	ex := &domain.Exercise{
		ModuleID:    module,
		Type:        t,
		Title:       ef.Title,
		Difficulty:  difficulty,
		Description: ef.Description,
		Steps:       make([]domain.Step, len(ef.Steps)),
	}

	for i, s := range ef.Steps {
		ex.Steps[i] = domain.Step{
			Title:       s.Title,
			Instruction: s.Instruction,
			Scenario:    s.Scenario,
			Hint:        s.Hint,
			Rule:        s.Rule,
		}
	}

	return ex, nil
}
