package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestActivity() Activity {
	return Activity{
		ID:          "process-query",
		DisplayName: "Process Query",
		TaskType:    "process-query",
		InputSchema: map[string]interface{}{"type": "object", "minProperties": 1},
		ErrorCodes:  []string{"INVALID_QUERY"},
		Retries:     3,
	}
}

func TestRegistry_SaveLoadFind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	reg := &ActivityRegistry{Version: "1.0.0", Activities: []Activity{createTestActivity()}}
	require.NoError(t, reg.Save(path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)

	got, ok := loaded.Find("process-query")
	require.True(t, ok)
	assert.Equal(t, "Process Query", got.DisplayName)

	_, ok = loaded.Find("unknown")
	assert.False(t, ok)
}

func TestRegistry_Drift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, (&ActivityRegistry{Activities: []Activity{createTestActivity()}}).Save(path))
	loaded, err := LoadRegistry(path)
	require.NoError(t, err)

	drifted, err := loaded.Drift([]Activity{createTestActivity()})
	require.NoError(t, err)
	assert.Empty(t, drifted, "int vs float64 schema values must not count as drift")

	changed := createTestActivity()
	changed.ErrorCodes = append(changed.ErrorCodes, "PARSE_ERROR")
	missing := createTestActivity()
	missing.TaskType = "other"

	drifted, err = loaded.Drift([]Activity{changed, missing})
	require.NoError(t, err)
	assert.Equal(t, []string{"process-query", "other"}, drifted)
}

func TestLoadRegistry_Errors(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
