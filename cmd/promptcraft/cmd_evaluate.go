package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/promptcraft/internal/domain"
	"gopkg.in/yaml.v3"
)

// answerFlags collects repeated -a index=text flags
type answerFlags domain.AnswerSet

func (a answerFlags) String() string {
	return fmt.Sprintf("%d answers", len(a))
}

func (a answerFlags) Set(v string) error {
	idx, text, ok := strings.Cut(v, "=")
	if !ok {
		return errors.New("answer must be index=text")
	}
	i, err := strconv.Atoi(strings.TrimSpace(idx))
	if err != nil || i < 0 {
		return fmt.Errorf("invalid step index %q", idx)
	}
	a[i] = text
	return nil
}

// stepArgs are the flags shared by validate and feedback
type stepArgs struct {
	module int
	kind   string
	step   int
	json   bool
	answer string
}

func parseStepArgs(name string, args []string, stdin io.Reader) (*stepArgs, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	sa := &stepArgs{}
	fs.IntVar(&sa.module, "m", 1, "course module")
	fs.StringVar(&sa.kind, "t", string(domain.ExerciseGuided), "exercise type (guided or challenge)")
	fs.IntVar(&sa.step, "s", 0, "zero-based step index")
	fs.BoolVar(&sa.json, "json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	answer := strings.Join(fs.Args(), " ")
	if answer == "" || answer == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read answer: %w", err)
		}
		answer = strings.TrimRight(string(data), "\r\n")
	}
	sa.answer = answer
	return sa, nil
}

// cmdValidate checks one answer
func cmdValidate(args []string) error {
	sa, err := parseStepArgs("validate", args, os.Stdin)
	if err != nil {
		return err
	}
	ev, _, err := loadEvaluator()
	if err != nil {
		return err
	}

	report := ev.EvaluateStep(domain.ModuleID(sa.module), domain.ExerciseType(sa.kind), sa.step, sa.answer)
	if sa.json {
		return printJSON(report)
	}

	mark := "✗"
	if report.Valid {
		mark = "✓"
	}
	fmt.Printf("%s valid=%t score=%.0f\n", mark, report.Valid, report.Score)
	return nil
}

// cmdFeedback prints the feedback for one answer
func cmdFeedback(args []string) error {
	sa, err := parseStepArgs("feedback", args, os.Stdin)
	if err != nil {
		return err
	}
	ev, _, err := loadEvaluator()
	if err != nil {
		return err
	}

	feedback := ev.Feedback(domain.ModuleID(sa.module), domain.ExerciseType(sa.kind), sa.step, sa.answer)
	if sa.json {
		return printJSON(map[string]string{"feedback": feedback})
	}
	fmt.Println(feedback)
	return nil
}

// cmdScore scores a whole answer set
func cmdScore(args []string) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	module := fs.Int("m", 1, "course module")
	kind := fs.String("t", string(domain.ExerciseGuided), "exercise type (guided or challenge)")
	file := fs.String("f", "", "YAML file mapping step index to answer")
	asJSON := fs.Bool("json", false, "print JSON")
	answers := answerFlags{}
	fs.Var(answers, "a", "answer as index=text (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *file != "" {
		fromFile, err := loadAnswersFile(*file)
		if err != nil {
			return err
		}
		for i, a := range fromFile {
			if _, set := answers[i]; !set {
				answers[i] = a
			}
		}
	}

	ev, _, err := loadEvaluator()
	if err != nil {
		return err
	}

	report := ev.EvaluateExercise(domain.ModuleID(*module), domain.ExerciseType(*kind), domain.AnswerSet(answers))
	if *asJSON {
		return printJSON(report)
	}

	if !report.Found {
		fmt.Printf("Exercise %s not found: score 0\n", domain.ExerciseKey(domain.ModuleID(*module), domain.ExerciseType(*kind)))
		return nil
	}

	fmt.Printf("Score: %d%% %s\n", report.Score, renderProgressBar(float64(report.Score)/100, 20))
	fmt.Printf("%s\n\n", report.Rating)
	for _, step := range report.Steps {
		mark := "✗"
		if step.Valid {
			mark = "✓"
		}
		fmt.Printf("  %s Step %d  %3d pts\n", mark, step.StepIndex+1, step.Points)
	}
	fmt.Printf("\n%d of %d steps valid\n", report.ValidSteps, report.TotalSteps)
	return nil
}

// loadAnswersFile reads a YAML map of step index to answer
func loadAnswersFile(path string) (domain.AnswerSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	var answers map[int]string
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("parse answers %s: %w", path, err)
	}
	return domain.AnswerSet(answers), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
