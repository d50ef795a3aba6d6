package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/jonathan/brandos/internal/db"
)

func TestStepRegistry(t *testing.T) {
	for _, kind := range []string{KindAnalysis, KindAEO} {
		seen := map[string]bool{}
		for _, def := range Steps(kind) {
			assert.NotEmpty(t, def.Category, def.Name)
			assert.False(t, seen[def.Name], "duplicate step %s", def.Name)
			// Dependencies always point backwards, so execution order is a valid topological order.
			for _, dep := range append(append([]string{}, def.Dependencies...), def.Optional...) {
				assert.True(t, seen[dep], "%s/%s depends on later or unknown step %s", kind, def.Name, dep)
			}
			seen[def.Name] = true
		}
	}
	assert.Nil(t, Steps("unknown"))
}

func TestLookup(t *testing.T) {
	def, ok := Lookup(KindAnalysis, dbpkg.StepHealth)
	require.True(t, ok)
	assert.Equal(t, dbpkg.StepCategoryReasoning, def.Category)
	assert.Equal(t, []string{dbpkg.StepReasoning}, def.Dependencies)

	def, ok = Lookup(KindAEO, dbpkg.StepPersist)
	require.True(t, ok)
	assert.Equal(t, dbpkg.StepCategoryPersistence, def.Category)

	_, ok = Lookup(KindAEO, dbpkg.StepHealth)
	assert.False(t, ok)
}

func TestValidateDependencies(t *testing.T) {
	status := map[string]string{
		dbpkg.StepHomepage: dbpkg.StepStatusCompleted,
		dbpkg.StepCorpus:   dbpkg.StepStatusCompleted,
	}
	assert.NoError(t, ValidateDependencies(KindAnalysis, dbpkg.StepExtraction, status))
	assert.NoError(t, ValidateDependencies(KindAnalysis, dbpkg.StepReasoning, status), "optional extraction is not required")

	err := ValidateDependencies(KindAnalysis, dbpkg.StepHealth, status)
	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, dbpkg.StepHealth, depErr.Step)
	assert.Equal(t, []string{dbpkg.StepReasoning}, depErr.MissingDependencies)
	assert.Contains(t, err.Error(), "missing dependencies")

	err = ValidateDependencies(KindAnalysis, "unknown_step", status)
	assert.ErrorContains(t, err, "unknown step")
}

func TestAvailable(t *testing.T) {
	assert.Equal(t, []string{dbpkg.StepHomepage}, Available(KindAnalysis, map[string]string{}))

	status := map[string]string{dbpkg.StepHomepage: dbpkg.StepStatusCompleted}
	assert.Equal(t,
		[]string{dbpkg.StepLinks, dbpkg.StepDesign, dbpkg.StepImagery, dbpkg.StepAudit, dbpkg.StepScreenshot, dbpkg.StepCorpus},
		Available(KindAnalysis, status))

	status[dbpkg.StepCorpus] = dbpkg.StepStatusInProgress
	assert.NotContains(t, Available(KindAnalysis, status), dbpkg.StepCorpus)
}

func TestBlocked(t *testing.T) {
	status := map[string]string{
		dbpkg.StepVisibility:  dbpkg.StepStatusCompleted,
		dbpkg.StepLeaderboard: dbpkg.StepStatusFailed,
	}
	assert.Equal(t, []string{dbpkg.StepStrategy, dbpkg.StepPersist}, Blocked(KindAEO, status))

	status = map[string]string{
		dbpkg.StepHomepage:  dbpkg.StepStatusCompleted,
		dbpkg.StepCorpus:    dbpkg.StepStatusCompleted,
		dbpkg.StepReasoning: dbpkg.StepStatusFailed,
	}
	blocked := Blocked(KindAnalysis, status)
	assert.Equal(t, []string{dbpkg.StepHealth, dbpkg.StepBattleCard, dbpkg.StepPersist}, blocked)
}

func TestStatuses(t *testing.T) {
	got := Statuses([]dbpkg.RunStep{
		{Step: dbpkg.StepHomepage, Status: dbpkg.StepStatusCompleted},
		{Step: dbpkg.StepLinks, Status: dbpkg.StepStatusFailed},
	})
	assert.Equal(t, map[string]string{
		dbpkg.StepHomepage: dbpkg.StepStatusCompleted,
		dbpkg.StepLinks:    dbpkg.StepStatusFailed,
	}, got)
}
