package main

import (
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCase = cases.Title(language.English)

// cmdExercise browses the exercise catalog
func cmdExercise(args []string) error {
	if len(args) < 1 {
		fmt.Println(`Exercise commands:

  promptcraft exercise list                  List all exercises
  promptcraft exercise info <module> <type>  Show exercise steps`)
		return nil
	}

	switch args[0] {
	case "list":
		return cmdExerciseList()
	case "info":
		if len(args) < 3 {
			return fmt.Errorf("module and type required (e.g., 1 guided)")
		}
		return cmdExerciseInfo(args[1], args[2])
	default:
		return fmt.Errorf("unknown exercise command: %s", args[0])
	}
}

func cmdExerciseList() error {
	ev, _, err := loadEvaluator()
	if err != nil {
		return err
	}
	catalog := ev.Catalog()

	fmt.Println("Practice Exercises:")
	for _, m := range catalog.Modules() {
		fmt.Printf("\n  Module %d\n", m)
		for _, ex := range catalog.ListModule(m) {
			fmt.Printf("    %-10s %s\n", titleCase.String(string(ex.Type)), ex.Title)
			fmt.Printf("               %s | %d steps\n", ex.Difficulty, len(ex.Steps))
		}
	}

	fmt.Println("\nUse 'promptcraft exercise info <module> <type>' for details")
	return nil
}

func cmdExerciseInfo(moduleArg, typeArg string) error {
	module, t, err := parseExerciseRef(moduleArg, typeArg)
	if err != nil {
		return err
	}

	ev, _, err := loadEvaluator()
	if err != nil {
		return err
	}
	ex, err := ev.Catalog().Get(module, t)
	if err != nil {
		return err
	}

	fmt.Printf("Exercise: %s\n\n", ex.Title)
	fmt.Printf("Module:     %d\n", ex.ModuleID)
	fmt.Printf("Type:       %s\n", titleCase.String(string(ex.Type)))
	fmt.Printf("Difficulty: %s\n", ex.Difficulty)
	fmt.Printf("\n%s\n", ex.Description)

	for i, step := range ex.Steps {
		fmt.Printf("\nStep %d: %s\n", i+1, step.Title)
		fmt.Printf("  %s\n", step.Instruction)
		if step.Scenario != "" {
			fmt.Printf("  Scenario: %s\n", step.Scenario)
		}
		fmt.Printf("  Hint: %s\n", step.Hint)
	}
	return nil
}

func parseExerciseRef(moduleArg, typeArg string) (domain.ModuleID, domain.ExerciseType, error) {
	n, err := strconv.Atoi(moduleArg)
	if err != nil {
		return 0, "", fmt.Errorf("invalid module %q: %w", moduleArg, err)
	}
	t, err := domain.ParseExerciseType(typeArg)
	if err != nil {
		return 0, "", err
	}
	return domain.ModuleID(n), t, nil
}
