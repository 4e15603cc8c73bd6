package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/qri-io/jsonschema"

	"github.com/garnizeh/jobboard/internal/repository/tabular"
	"github.com/garnizeh/jobboard/pkg/repository"
)

// Job bodies are checked against these schemas before they are decoded, so
// type mismatches and unknown keys are reported by name.
var (
	createJobSchema = mustCompile(jobSchemaDoc(jobCreateFields, false))
	updateJobSchema = mustCompile(jobSchemaDoc(jobUpdateFields, true))
)

var jobCreateFields = []string{
	"profileID", "jobName", "propertyAddress", "city", "customerName",
	"customerEmail", "trade", "estimatedPay", "description", "scheduledTime",
	"squareFootage", "materialStatus", "assignedContractorId",
}

// jobUpdateFields is every stored job column, including the immutable ones
// clients echo back when they send a whole job.
var jobUpdateFields = tabular.JobSchema.Fields

func jobSchemaDoc(fields []string, withProgress bool) map[string]any {
	str := map[string]any{"type": []string{"string", "null"}}
	props := make(map[string]any, len(fields)+1)
	for _, f := range fields {
		props[f] = str
	}
	if withProgress {
		props["contractorProgress"] = map[string]any{
			"type": []string{"object", "null"},
			"properties": map[string]any{
				"currentStep":  map[string]any{"type": []string{"integer", "null"}, "minimum": 0},
				"acknowledged": map[string]any{"type": []string{"boolean", "null"}},
				"lastUpdated":  str,
			},
			"additionalProperties": false,
		}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

func mustCompile(doc map[string]any) *jsonschema.Schema {
	b, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(b, rs); err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return rs
}

// validateBody checks data against rs and returns a ValidationError naming
// the offending properties.
func validateBody(ctx context.Context, rs *jsonschema.Schema, data []byte) error {
	verrs, err := rs.ValidateBytes(ctx, data)
	if err != nil {
		return &repository.ValidationError{Reason: "invalid JSON body"}
	}
	if len(verrs) == 0 {
		return nil
	}

	seen := map[string]bool{}
	var fields, msgs []string
	for _, ke := range verrs {
		path := strings.TrimPrefix(ke.PropertyPath, "/")
		if path != "" && !seen[path] {
			seen[path] = true
			fields = append(fields, path)
		}
		msgs = append(msgs, ke.Message)
	}
	sort.Strings(fields)
	return &repository.ValidationError{Fields: fields, Reason: "invalid request body (" + strings.Join(msgs, "; ") + ")"}
}
