// Package steps defines the steps of the analysis and AEO pipelines, their
// categories and dependencies, and dependency checks over recorded step status.
package steps

import (
	"fmt"

	dbpkg "github.com/jonathan/brandos/internal/db"
)

// Pipeline kinds, matching run kinds.
const (
	KindAnalysis = dbpkg.RunKindAnalysis
	KindAEO      = dbpkg.RunKindAEO
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
	Optional     []string
}

// AnalysisSteps lists the analysis pipeline in execution order.
var AnalysisSteps = []StepDefinition{
	{Name: dbpkg.StepHomepage, Category: dbpkg.StepCategoryInput},
	{Name: dbpkg.StepLinks, Category: dbpkg.StepCategoryInput, Dependencies: []string{dbpkg.StepHomepage}},
	{Name: dbpkg.StepDesign, Category: dbpkg.StepCategoryExtraction, Dependencies: []string{dbpkg.StepHomepage}},
	{Name: dbpkg.StepImagery, Category: dbpkg.StepCategoryExtraction, Dependencies: []string{dbpkg.StepHomepage}},
	{Name: dbpkg.StepAudit, Category: dbpkg.StepCategoryExtraction, Dependencies: []string{dbpkg.StepHomepage}},
	{Name: dbpkg.StepScreenshot, Category: dbpkg.StepCategoryInput, Dependencies: []string{dbpkg.StepHomepage}},
	{Name: dbpkg.StepCorpus, Category: dbpkg.StepCategoryInput, Dependencies: []string{dbpkg.StepHomepage}, Optional: []string{dbpkg.StepLinks}},
	{Name: dbpkg.StepExtraction, Category: dbpkg.StepCategoryExtraction, Dependencies: []string{dbpkg.StepCorpus}, Optional: []string{dbpkg.StepScreenshot}},
	{Name: dbpkg.StepReasoning, Category: dbpkg.StepCategoryReasoning, Dependencies: []string{dbpkg.StepCorpus}, Optional: []string{dbpkg.StepExtraction}},
	{Name: dbpkg.StepHealth, Category: dbpkg.StepCategoryReasoning, Dependencies: []string{dbpkg.StepReasoning}},
	{Name: dbpkg.StepKnowledge, Category: dbpkg.StepCategoryReasoning, Dependencies: []string{dbpkg.StepCorpus}},
	{Name: dbpkg.StepBattleCard, Category: dbpkg.StepCategoryReasoning, Dependencies: []string{dbpkg.StepReasoning}},
	{Name: dbpkg.StepPersist, Category: dbpkg.StepCategoryPersistence, Dependencies: []string{dbpkg.StepReasoning},
		Optional: []string{dbpkg.StepDesign, dbpkg.StepImagery, dbpkg.StepAudit, dbpkg.StepHealth, dbpkg.StepKnowledge, dbpkg.StepBattleCard}},
}

// AEOSteps lists the AEO pipeline in execution order.
var AEOSteps = []StepDefinition{
	{Name: dbpkg.StepVisibility, Category: dbpkg.StepCategoryAEO},
	{Name: dbpkg.StepLeaderboard, Category: dbpkg.StepCategoryAEO, Dependencies: []string{dbpkg.StepVisibility}},
	{Name: dbpkg.StepStrategy, Category: dbpkg.StepCategoryReasoning, Dependencies: []string{dbpkg.StepLeaderboard}},
	{Name: dbpkg.StepPersist, Category: dbpkg.StepCategoryPersistence, Dependencies: []string{dbpkg.StepLeaderboard}, Optional: []string{dbpkg.StepStrategy}},
}

// Steps returns the ordered steps of a pipeline kind, or nil for an unknown kind.
func Steps(kind string) []StepDefinition {
	switch kind {
	case KindAnalysis:
		return AnalysisSteps
	case KindAEO:
		return AEOSteps
	}
	return nil
}

// Lookup finds a step definition by pipeline kind and name.
func Lookup(kind, name string) (StepDefinition, bool) {
	for _, def := range Steps(kind) {
		if def.Name == name {
			return def, true
		}
	}
	return StepDefinition{}, false
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// Statuses indexes recorded step status by step name.
func Statuses(recorded []dbpkg.RunStep) map[string]string {
	out := make(map[string]string, len(recorded))
	for _, s := range recorded {
		out[s.Step] = s.Status
	}
	return out
}

// ValidateDependencies checks that every required dependency of a step has completed.
func ValidateDependencies(kind, stepName string, status map[string]string) error {
	def, ok := Lookup(kind, stepName)
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if status[dep] != dbpkg.StepStatusCompleted {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Step: stepName, MissingDependencies: missing}
	}
	return nil
}

// Available returns the steps that have not started and whose dependencies are met, in order.
func Available(kind string, status map[string]string) []string {
	var available []string
	for _, def := range Steps(kind) {
		if st := status[def.Name]; st != "" && st != dbpkg.StepStatusPending {
			continue
		}
		if ValidateDependencies(kind, def.Name, status) == nil {
			available = append(available, def.Name)
		}
	}
	return available
}

// Blocked returns the steps that can no longer run because a required
// dependency failed or was skipped, directly or transitively.
func Blocked(kind string, status map[string]string) []string {
	dead := map[string]bool{}
	var blocked []string
	for _, def := range Steps(kind) {
		if st := status[def.Name]; st == dbpkg.StepStatusFailed || st == dbpkg.StepStatusSkipped {
			dead[def.Name] = true
			continue
		}
		if status[def.Name] == dbpkg.StepStatusCompleted || status[def.Name] == dbpkg.StepStatusInProgress {
			continue
		}
		for _, dep := range def.Dependencies {
			if dead[dep] {
				dead[def.Name] = true
				blocked = append(blocked, def.Name)
				break
			}
		}
	}
	return blocked
}
