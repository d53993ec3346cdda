package exercise

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
)

const validModule = `module: 7
exercises:
  guided:
    title: "Guided Practice: Test"
    difficulty: Beginner
    description: "A test exercise"
    steps:
      - title: "First"
        instruction: "Do the thing."
        scenario: "Some scenario."
        hint: "Mention the thing."
        rule:
          kind: any_of
          keywords: ["thing"]
      - title: "Second"
        instruction: "Do more."
        scenario: "Another scenario."
        hint: "Write a longer answer."
`

func TestLoader_LoadModuleFile(t *testing.T) {
	loader := NewFSLoader(fstest.MapFS{
		"module-07.yaml": {Data: []byte(validModule)},
	})

	exercises, err := loader.LoadModuleFile("module-07.yaml")
	if err != nil {
		t.Fatalf("LoadModuleFile() error = %v", err)
	}
	if len(exercises) != 1 {
		t.Fatalf("LoadModuleFile() returned %d exercises; want 1", len(exercises))
	}

	ex := exercises[0]
	if ex.ModuleID != 7 || ex.Type != domain.ExerciseGuided {
		t.Errorf("exercise key = %s; want 7/guided", ex.Key())
	}
	if ex.Difficulty != domain.DifficultyBeginner {
		t.Errorf("Difficulty = %q; want Beginner", ex.Difficulty)
	}
	if len(ex.Steps) != 2 {
		t.Fatalf("len(Steps) = %d; want 2", len(ex.Steps))
	}
	if ex.Steps[0].Rule == nil || ex.Steps[0].Rule.Kind != domain.RuleAnyOf {
		t.Errorf("Steps[0].Rule = %+v; want any_of", ex.Steps[0].Rule)
	}
	if ex.Steps[1].Rule != nil {
		t.Errorf("Steps[1].Rule = %+v; want nil (default heuristic)", ex.Steps[1].Rule)
	}
}

func TestLoader_SchemaRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown exercise type", strings.Replace(validModule, "guided:", "freestyle:", 1)},
		{"bad difficulty", strings.Replace(validModule, "Beginner", "Expert", 1)},
		{"unknown rule kind", strings.Replace(validModule, "any_of", "regex", 1)},
		{"missing hint", strings.Replace(validModule, `        hint: "Mention the thing."`+"\n", "", 1)},
		{"no steps", "module: 1\nexercises:\n  guided:\n    title: x\n    difficulty: Beginner\n    description: y\n    steps: []\n"},
		{"missing module", "exercises: {}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewFSLoader(fstest.MapFS{"m.yaml": {Data: []byte(tt.doc)}})
			_, err := loader.LoadModuleFile("m.yaml")
			if err == nil {
				t.Fatal("LoadModuleFile() should fail schema validation")
			}
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("error = %v; want ErrInvalidInput", err)
			}
		})
	}
}

func TestLoader_LoadCatalog_RejectsBadThreshold(t *testing.T) {
	doc := strings.Replace(validModule,
		"kind: any_of\n          keywords: [\"thing\"]",
		"kind: count_at_least\n          min: 3\n          keywords: [\"thing\"]", 1)

	loader := NewFSLoader(fstest.MapFS{"m.yaml": {Data: []byte(doc)}})
	_, err := loader.LoadCatalog()
	if !errors.Is(err, domain.ErrInvalidRule) {
		t.Fatalf("LoadCatalog() error = %v; want ErrInvalidRule", err)
	}
}

func TestLoader_LoadAll_SkipsNonYAML(t *testing.T) {
	loader := NewFSLoader(fstest.MapFS{
		"module-07.yaml": {Data: []byte(validModule)},
		"README.md":      {Data: []byte("# notes")},
	})

	exercises, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(exercises) != 1 {
		t.Errorf("LoadAll() returned %d exercises; want 1", len(exercises))
	}
}

func TestEmbeddedLoader(t *testing.T) {
	catalog, err := NewEmbeddedLoader().LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	stats := catalog.Stats()
	if stats.ModuleCount != 6 {
		t.Errorf("ModuleCount = %d; want 6", stats.ModuleCount)
	}
	if stats.ExerciseCount != 12 {
		t.Errorf("ExerciseCount = %d; want 12", stats.ExerciseCount)
	}
	if stats.StepCount != 36 {
		t.Errorf("StepCount = %d; want 36", stats.StepCount)
	}
}
