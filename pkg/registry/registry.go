// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry as indented JSON.
func (r *ActivityRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Drift lists the task types whose published entry differs from want or is
// missing. Schemas are compared after a JSON round trip so number types match.
func (r *ActivityRegistry) Drift(want []Activity) ([]string, error) {
	var drifted []string
	for _, w := range want {
		got, ok := r.Find(w.TaskType)
		if !ok {
			drifted = append(drifted, w.TaskType)
			continue
		}
		a, err := normalize(*got)
		if err != nil {
			return nil, err
		}
		b, err := normalize(w)
		if err != nil {
			return nil, err
		}
		if !reflect.DeepEqual(a, b) {
			drifted = append(drifted, w.TaskType)
		}
	}
	return drifted, nil
}

func normalize(a Activity) (map[string]interface{}, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	err = json.Unmarshal(data, &out)
	return out, err
}
