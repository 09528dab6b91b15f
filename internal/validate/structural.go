package validate

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/reactiv/flowgraph/internal/schema"
)

// MaxSampleJSONSize bounds the serialised size of a ValidationResult's
// Sample field, matching validator.py's MAX_SAMPLE_JSON_SIZE.
const MaxSampleJSONSize = 50_000

const defaultMaxErrors = 10
const defaultSampleSize = 3

// ValidateArtifact dispatches to ValidateJSON or ValidateJSONL based on
// format, mirroring validator.py's validate_artifact.
func ValidateArtifact(path string, desc *schema.Description, format string, maxErrors int) (ValidationResult, error) {
	if desc == nil {
		return ValidationResult{}, fmt.Errorf("validate: no output schema configured")
	}
	switch format {
	case "json":
		return ValidateJSON(path, desc)
	case "jsonl":
		return ValidateJSONL(path, desc, maxErrors, defaultSampleSize)
	default:
		return ValidationResult{}, fmt.Errorf("validate: unknown format %q", format)
	}
}

// ValidateJSON parses a single JSON object (or array of objects) and
// validates it against desc.
func ValidateJSON(path string, desc *schema.Description) (ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ValidationResult{}, err
	}

	var doc any
	if len(strings.TrimSpace(string(data))) == 0 {
		return ValidationResult{
			Valid:     false,
			ItemCount: 0,
			Errors:    []string{"$: empty file"},
		}, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return ValidationResult{
			Valid:     false,
			ItemCount: 0,
			Errors:    []string{fmt.Sprintf("$: invalid JSON: %s", err)},
		}, nil
	}

	items := flattenJSONItems(doc)
	var errs []string
	for _, item := range items {
		if err := desc.Validate(item); err != nil {
			errs = append(errs, err.Error())
		}
	}

	result := ValidationResult{
		Valid:     len(errs) == 0,
		ItemCount: len(items),
		Errors:    errs,
	}
	result.Sample = buildSample(items, defaultSampleSize)
	return result, nil
}

func flattenJSONItems(doc any) []any {
	if arr, ok := doc.([]any); ok {
		return arr
	}
	return []any{doc}
}

// ValidateJSONL streams lines, skipping blanks, validating each
// non-blank line against desc. Collects up to maxErrors error messages,
// appending a truncation marker when more remain, mirroring
// validator.py's validate_jsonl_file exactly.
func ValidateJSONL(path string, desc *schema.Description, maxErrors, sampleSize int) (ValidationResult, error) {
	if maxErrors <= 0 {
		maxErrors = defaultMaxErrors
	}
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}

	f, err := os.Open(path)
	if err != nil {
		return ValidationResult{}, err
	}
	defer f.Close()

	var errs []string
	var sample []any
	itemCount := 0
	lineNum := 0
	truncated := false

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if len(errs) >= maxErrors {
			truncated = true
			break
		}

		var item any
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			errs = append(errs, fmt.Sprintf("line %d: invalid JSON: %s", lineNum, err))
			continue
		}

		if verr := desc.Validate(item); verr != nil {
			errs = append(errs, fmt.Sprintf("line %d: %s", lineNum, verr))
			continue
		}

		itemCount++
		if len(sample) < sampleSize {
			sample = append(sample, item)
		}
	}
	if err := scanner.Err(); err != nil {
		return ValidationResult{}, err
	}

	if truncated {
		errs = append(errs, fmt.Sprintf("... (stopped after %d errors)", maxErrors))
	}

	return ValidationResult{
		Valid:     len(errs) == 0,
		ItemCount: itemCount,
		Errors:    errs,
		Sample:    buildSample(sample, sampleSize),
	}, nil
}

// buildSample truncates items to sampleSize and recursively shrinks each
// to fit within MaxSampleJSONSize, mirroring validator.py's
// _truncate_sample: arrays longer than 3 become the first 3 plus
// "_<field>_count"/"_<field>_truncated" markers, and strings over 500
// chars are truncated. The budget passed down is halved at each nesting
// level but no value is cut because of it; the size bound is enforced
// only by dropping trailing items until the sample fits.
func buildSample(items []any, n int) []any {
	if len(items) > n {
		items = items[:n]
	}
	if len(items) == 0 {
		return nil
	}

	out := make([]any, len(items))
	for i, item := range items {
		out[i] = truncateValue(item, MaxSampleJSONSize)
	}

	for approxJSONSize(out) > MaxSampleJSONSize && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out
}

func truncateValue(v any, budget int) any {
	switch val := v.(type) {
	case map[string]any:
		return truncateMap(val, budget)
	case []any:
		return truncateArray(val, budget)
	case string:
		if len(val) > 500 {
			return val[:500] + "... (truncated)"
		}
		return val
	default:
		return val
	}
}

func truncateMap(m map[string]any, budget int) map[string]any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(m))
	childBudget := budget / 2
	if childBudget < 1 {
		childBudget = 1
	}
	for _, k := range keys {
		v := m[k]
		switch arr := v.(type) {
		case []any:
			if len(arr) > 3 {
				truncatedArr := make([]any, 3)
				for i := 0; i < 3; i++ {
					truncatedArr[i] = truncateValue(arr[i], childBudget)
				}
				out[k] = truncatedArr
				out["_"+k+"_count"] = len(arr)
				out["_"+k+"_truncated"] = true
				continue
			}
			out[k] = truncateValue(v, childBudget)
		default:
			out[k] = truncateValue(v, childBudget)
		}
	}
	return out
}

func truncateArray(arr []any, budget int) []any {
	childBudget := budget / 2
	if childBudget < 1 {
		childBudget = 1
	}
	if len(arr) <= 3 {
		out := make([]any, len(arr))
		for i, v := range arr {
			out[i] = truncateValue(v, childBudget)
		}
		return out
	}
	out := make([]any, 3)
	for i := 0; i < 3; i++ {
		out[i] = truncateValue(arr[i], childBudget)
	}
	return out
}

func approxJSONSize(v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(data)
}
