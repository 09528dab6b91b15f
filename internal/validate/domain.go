package validate

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// maxContextListItems bounds every error-context array to 5 entries plus
// an ellipsis marker, per spec.md §4.2's "Context-array truncation".
const maxContextListItems = 5

func truncateList(items []string) []string {
	if len(items) <= maxContextListItems {
		return items
	}
	out := append([]string{}, items[:maxContextListItems]...)
	out = append(out, "...")
	return out
}

// domainValidatorFunc is one independent check over the whole seed
// dataset, composed left-to-right by ValidateDomain.
type domainValidatorFunc func(data SeedData, sch DomainSchema) []CustomValidationError

// ValidateDomain runs every domain validator in spec.md §4.2's table in
// order, stopping once accumulated ERROR-severity issues reach
// maxErrors (warnings never count toward the stop condition).
func ValidateDomain(data SeedData, sch DomainSchema, maxErrors int) []CustomValidationError {
	if maxErrors <= 0 {
		maxErrors = defaultMaxErrors
	}

	validators := []domainValidatorFunc{
		validateUniqueTempIDs,
		validateNoSelfLoops,
		validateNoDuplicateEdges,
		validateNodeTypes,
		validateEdgeTypes,
		validateEdgeConnectivity,
		validateTempIDReferences,
		validateRequiredFields,
		validateUnknownPropertyKeys,
		validateEnumValues,
		validateStatusValues,
		validateDatetimeFields,
		validateNumberFields,
		validateArrayFields,
		validateUniqueFields,
		// Warnings: never block, never count toward maxErrors.
		validateEmptySeedData,
		validateOrphanNodes,
		validateLowEdgeDensity,
	}

	var out []CustomValidationError
	errCount := 0
	for _, v := range validators {
		if errCount >= maxErrors {
			break
		}
		issues := v(data, sch)
		for _, issue := range issues {
			out = append(out, issue)
			if issue.Severity == SeverityError {
				errCount++
			}
		}
	}
	return out
}

func validateUniqueTempIDs(data SeedData, _ DomainSchema) []CustomValidationError {
	seen := make(map[string]int)
	var errs []CustomValidationError
	for i, n := range data.Nodes {
		if n.TempID == "" {
			continue
		}
		if first, ok := seen[n.TempID]; ok {
			errs = append(errs, CustomValidationError{
				Path:     fmt.Sprintf("nodes[%d].temp_id", i),
				Message:  fmt.Sprintf("duplicate temp_id %q (first seen at nodes[%d])", n.TempID, first),
				Code:     "duplicate_temp_id",
				Severity: SeverityError,
				Context:  map[string]any{"temp_id": n.TempID},
			})
			continue
		}
		seen[n.TempID] = i
	}
	return errs
}

func validateNoSelfLoops(data SeedData, _ DomainSchema) []CustomValidationError {
	var errs []CustomValidationError
	for i, e := range data.Edges {
		if e.FromTempID != "" && e.FromTempID == e.ToTempID {
			errs = append(errs, CustomValidationError{
				Path:     fmt.Sprintf("edges[%d]", i),
				Message:  fmt.Sprintf("self-loop edge: from and to both reference %q", e.FromTempID),
				Code:     "self_loop_edge",
				Severity: SeverityError,
				Context:  map[string]any{"temp_id": e.FromTempID},
			})
		}
	}
	return errs
}

func validateNoDuplicateEdges(data SeedData, _ DomainSchema) []CustomValidationError {
	type key struct{ typ, from, to string }
	seen := make(map[key]int)
	var errs []CustomValidationError
	for i, e := range data.Edges {
		k := key{e.Type, e.FromTempID, e.ToTempID}
		if first, ok := seen[k]; ok {
			errs = append(errs, CustomValidationError{
				Path:     fmt.Sprintf("edges[%d]", i),
				Message:  fmt.Sprintf("duplicate edge (%s, %s -> %s), first seen at edges[%d]", e.Type, e.FromTempID, e.ToTempID, first),
				Code:     "duplicate_edge",
				Severity: SeverityError,
				Context:  map[string]any{"type": e.Type, "from": e.FromTempID, "to": e.ToTempID},
			})
			continue
		}
		seen[k] = i
	}
	return errs
}

func validateNodeTypes(data SeedData, sch DomainSchema) []CustomValidationError {
	var errs []CustomValidationError
	for i, n := range data.Nodes {
		if _, ok := sch.NodeTypes[n.Type]; !ok {
			errs = append(errs, CustomValidationError{
				Path:     fmt.Sprintf("nodes[%d].type", i),
				Message:  fmt.Sprintf("unknown node type %q", n.Type),
				Code:     "invalid_node_type",
				Severity: SeverityError,
				Context:  map[string]any{"type": n.Type, "allowed": truncateList(sortedKeys(sch.NodeTypes))},
			})
		}
	}
	return errs
}

func validateEdgeTypes(data SeedData, sch DomainSchema) []CustomValidationError {
	var errs []CustomValidationError
	for i, e := range data.Edges {
		if _, ok := sch.EdgeTypes[e.Type]; !ok {
			errs = append(errs, CustomValidationError{
				Path:     fmt.Sprintf("edges[%d].type", i),
				Message:  fmt.Sprintf("unknown edge type %q", e.Type),
				Code:     "invalid_edge_type",
				Severity: SeverityError,
				Context:  map[string]any{"type": e.Type, "allowed": truncateList(sortedKeys(sch.EdgeTypes))},
			})
		}
	}
	return errs
}

// validateEdgeConnectivity performs two checks per edge (from-type and
// to-type), exactly as seed_validators.py's validate_edge_connectivity.
func validateEdgeConnectivity(data SeedData, sch DomainSchema) []CustomValidationError {
	nodeTypeByID := nodeTypesByTempID(data.Nodes)
	var errs []CustomValidationError
	for i, e := range data.Edges {
		edgeDef, ok := sch.EdgeTypes[e.Type]
		if !ok {
			continue // invalid_edge_type already reported this edge
		}
		if fromType, ok := nodeTypeByID[e.FromTempID]; ok && fromType != edgeDef.FromType {
			errs = append(errs, CustomValidationError{
				Path:    fmt.Sprintf("edges[%d].from_temp_id", i),
				Message: fmt.Sprintf("edge type %q requires from-node of type %q, got %q", e.Type, edgeDef.FromType, fromType),
				Code:    "invalid_edge_connectivity",
				Severity: SeverityError,
				Context: map[string]any{"expected": edgeDef.FromType, "actual": fromType},
			})
		}
		if toType, ok := nodeTypeByID[e.ToTempID]; ok && toType != edgeDef.ToType {
			errs = append(errs, CustomValidationError{
				Path:    fmt.Sprintf("edges[%d].to_temp_id", i),
				Message: fmt.Sprintf("edge type %q requires to-node of type %q, got %q", e.Type, edgeDef.ToType, toType),
				Code:    "invalid_edge_connectivity",
				Severity: SeverityError,
				Context: map[string]any{"expected": edgeDef.ToType, "actual": toType},
			})
		}
	}
	return errs
}

func validateTempIDReferences(data SeedData, _ DomainSchema) []CustomValidationError {
	known := make([]string, 0, len(data.Nodes))
	knownSet := make(map[string]bool, len(data.Nodes))
	for _, n := range data.Nodes {
		if n.TempID == "" {
			continue
		}
		known = append(known, n.TempID)
		knownSet[n.TempID] = true
	}

	var errs []CustomValidationError
	check := func(edgeIdx int, field, tempID string) {
		if tempID == "" || knownSet[tempID] {
			return
		}
		ctx := map[string]any{"temp_id": tempID}
		if suggestion, ok := findSimilarTempID(tempID, known); ok {
			ctx["suggested_correction"] = suggestion
		}
		errs = append(errs, CustomValidationError{
			Path:     fmt.Sprintf("edges[%d].%s", edgeIdx, field),
			Message:  fmt.Sprintf("%s references unknown temp_id %q", field, tempID),
			Code:     "invalid_temp_id_reference",
			Severity: SeverityError,
			Context:  ctx,
		})
	}

	for i, e := range data.Edges {
		check(i, "from_temp_id", e.FromTempID)
		check(i, "to_temp_id", e.ToTempID)
	}
	return errs
}

func validateRequiredFields(data SeedData, sch DomainSchema) []CustomValidationError {
	var errs []CustomValidationError
	for i, n := range data.Nodes {
		def, ok := sch.NodeTypes[n.Type]
		if !ok {
			continue
		}
		for _, f := range def.Fields {
			if !f.Required || f.Name == "status" {
				continue
			}
			v, present := n.Properties[f.Name]
			if !present || v == nil {
				errs = append(errs, CustomValidationError{
					Path:     fmt.Sprintf("nodes[%d].properties.%s", i, f.Name),
					Message:  fmt.Sprintf("missing required field %q", f.Name),
					Code:     "missing_required_field",
					Severity: SeverityError,
					Context:  map[string]any{"field": f.Name},
				})
			}
		}
	}
	return errs
}

func validateUnknownPropertyKeys(data SeedData, sch DomainSchema) []CustomValidationError {
	var errs []CustomValidationError
	for i, n := range data.Nodes {
		def, ok := sch.NodeTypes[n.Type]
		if !ok {
			continue
		}
		declared := make(map[string]bool, len(def.Fields))
		for _, f := range def.Fields {
			declared[f.Name] = true
		}
		for k := range n.Properties {
			if !declared[k] {
				errs = append(errs, CustomValidationError{
					Path:     fmt.Sprintf("nodes[%d].properties.%s", i, k),
					Message:  fmt.Sprintf("unknown property key %q for node type %q", k, n.Type),
					Code:     "unknown_property_key",
					Severity: SeverityError,
					Context:  map[string]any{"key": k},
				})
			}
		}
	}
	return errs
}

func validateEnumValues(data SeedData, sch DomainSchema) []CustomValidationError {
	var errs []CustomValidationError
	for i, n := range data.Nodes {
		def, ok := sch.NodeTypes[n.Type]
		if !ok {
			continue
		}
		for _, f := range def.Fields {
			if f.Kind != FieldKindEnum || f.Name == "status" {
				continue
			}
			v, present := n.Properties[f.Name]
			if !present || v == nil {
				continue
			}
			s, ok := v.(string)
			if !ok || !containsString(f.EnumValues, s) {
				errs = append(errs, CustomValidationError{
					Path:     fmt.Sprintf("nodes[%d].properties.%s", i, f.Name),
					Message:  fmt.Sprintf("value %v is not an allowed enum value for %q", v, f.Name),
					Code:     "invalid_enum_value",
					Severity: SeverityError,
					Context:  map[string]any{"field": f.Name, "allowed": truncateList(f.EnumValues)},
				})
			}
		}
	}
	return errs
}

// validateStatusValues handles both directions: a status given when the
// node type has no declared states, and an invalid status when states
// are declared. An absent (nil) status is always allowed, mirroring
// seed_validators.py.
func validateStatusValues(data SeedData, sch DomainSchema) []CustomValidationError {
	var errs []CustomValidationError
	for i, n := range data.Nodes {
		def, ok := sch.NodeTypes[n.Type]
		if !ok {
			continue
		}
		statesEnabled := len(def.Statuses) > 0
		switch {
		case !statesEnabled && n.Status != nil:
			errs = append(errs, CustomValidationError{
				Path:     fmt.Sprintf("nodes[%d].status", i),
				Message:  fmt.Sprintf("node type %q does not declare states but status %q was given", n.Type, *n.Status),
				Code:     "invalid_status",
				Severity: SeverityError,
				Context:  map[string]any{"status": *n.Status},
			})
		case statesEnabled && n.Status != nil && !containsString(def.Statuses, *n.Status):
			errs = append(errs, CustomValidationError{
				Path:     fmt.Sprintf("nodes[%d].status", i),
				Message:  fmt.Sprintf("status %q is not valid for node type %q", *n.Status, n.Type),
				Code:     "invalid_status",
				Severity: SeverityError,
				Context:  map[string]any{"status": *n.Status, "allowed": truncateList(def.Statuses)},
			})
		}
	}
	return errs
}

func isValidDatetime(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

func validateDatetimeFields(data SeedData, sch DomainSchema) []CustomValidationError {
	var errs []CustomValidationError
	for i, n := range data.Nodes {
		def, ok := sch.NodeTypes[n.Type]
		if !ok {
			continue
		}
		for _, f := range def.Fields {
			if f.Kind != FieldKindDatetime {
				continue
			}
			v, present := n.Properties[f.Name]
			if !present || v == nil {
				continue
			}
			if !isValidDatetime(v) {
				errs = append(errs, CustomValidationError{
					Path:     fmt.Sprintf("nodes[%d].properties.%s", i, f.Name),
					Message:  fmt.Sprintf("value %v is not a valid ISO-8601 datetime", v),
					Code:     "invalid_datetime",
					Severity: SeverityError,
					Context:  map[string]any{"field": f.Name},
				})
			}
		}
	}
	return errs
}

// isValidNumber explicitly rejects booleans (Go's encoding/json never
// decodes a JSON boolean into float64 so this mirrors the Python
// source's defensive bool check for documentation purposes) and rejects
// NaN/Inf.
func isValidNumber(v any) bool {
	switch n := v.(type) {
	case bool:
		return false
	case float64:
		return !math.IsNaN(n) && !math.IsInf(n, 0)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return false
	}
}

func validateNumberFields(data SeedData, sch DomainSchema) []CustomValidationError {
	var errs []CustomValidationError
	for i, n := range data.Nodes {
		def, ok := sch.NodeTypes[n.Type]
		if !ok {
			continue
		}
		for _, f := range def.Fields {
			if f.Kind != FieldKindNumber {
				continue
			}
			v, present := n.Properties[f.Name]
			if !present || v == nil {
				continue
			}
			if !isValidNumber(v) {
				errs = append(errs, CustomValidationError{
					Path:     fmt.Sprintf("nodes[%d].properties.%s", i, f.Name),
					Message:  fmt.Sprintf("value %v is not a finite number", v),
					Code:     "invalid_number",
					Severity: SeverityError,
					Context:  map[string]any{"field": f.Name},
				})
			}
		}
	}
	return errs
}

func validateArrayFields(data SeedData, sch DomainSchema) []CustomValidationError {
	var errs []CustomValidationError
	for i, n := range data.Nodes {
		def, ok := sch.NodeTypes[n.Type]
		if !ok {
			continue
		}
		for _, f := range def.Fields {
			if f.Kind != FieldKindTagArray && f.Kind != FieldKindFileArray {
				continue
			}
			v, present := n.Properties[f.Name]
			if !present || v == nil {
				continue
			}
			if _, ok := v.([]any); !ok {
				errs = append(errs, CustomValidationError{
					Path:     fmt.Sprintf("nodes[%d].properties.%s", i, f.Name),
					Message:  fmt.Sprintf("field %q must be an array", f.Name),
					Code:     "invalid_array",
					Severity: SeverityError,
					Context:  map[string]any{"field": f.Name},
				})
			}
		}
	}
	return errs
}

// validateUniqueFields scopes uniqueness per node_type, mirroring
// seed_validators.py's validate_unique_fields.
func validateUniqueFields(data SeedData, sch DomainSchema) []CustomValidationError {
	type seenKey struct{ typ, field string }
	seenValues := make(map[seenKey]map[string]int)

	var errs []CustomValidationError
	for i, n := range data.Nodes {
		def, ok := sch.NodeTypes[n.Type]
		if !ok {
			continue
		}
		for _, f := range def.Fields {
			if !f.Unique {
				continue
			}
			v, present := n.Properties[f.Name]
			if !present || v == nil {
				continue
			}
			key := seenKey{n.Type, f.Name}
			valStr := fmt.Sprintf("%v", v)
			if seenValues[key] == nil {
				seenValues[key] = make(map[string]int)
			}
			if first, ok := seenValues[key][valStr]; ok {
				errs = append(errs, CustomValidationError{
					Path:     fmt.Sprintf("nodes[%d].properties.%s", i, f.Name),
					Message:  fmt.Sprintf("duplicate unique value %v for %q on node type %q (first seen at nodes[%d])", v, f.Name, n.Type, first),
					Code:     "duplicate_unique_value",
					Severity: SeverityError,
					Context:  map[string]any{"field": f.Name, "value": v},
				})
				continue
			}
			seenValues[key][valStr] = i
		}
	}
	return errs
}

func validateEmptySeedData(data SeedData, _ DomainSchema) []CustomValidationError {
	if len(data.Nodes) == 0 && len(data.Edges) == 0 {
		return []CustomValidationError{{
			Path:     "$",
			Message:  "seed data contains no nodes and no edges",
			Code:     "empty_seed_data",
			Severity: SeverityWarning,
		}}
	}
	return nil
}

func validateOrphanNodes(data SeedData, _ DomainSchema) []CustomValidationError {
	if len(data.Edges) == 0 {
		return nil
	}
	touched := make(map[string]bool, len(data.Edges)*2)
	for _, e := range data.Edges {
		touched[e.FromTempID] = true
		touched[e.ToTempID] = true
	}

	var warnings []CustomValidationError
	for i, n := range data.Nodes {
		if n.TempID == "" || touched[n.TempID] {
			continue
		}
		warnings = append(warnings, CustomValidationError{
			Path:     fmt.Sprintf("nodes[%d]", i),
			Message:  fmt.Sprintf("node %q has no edges", n.TempID),
			Code:     "orphan_node",
			Severity: SeverityWarning,
			Context:  map[string]any{"temp_id": n.TempID},
		})
	}
	return warnings
}

func validateLowEdgeDensity(data SeedData, _ DomainSchema) []CustomValidationError {
	if len(data.Nodes) < 2 {
		return nil
	}
	threshold := 0.3 * float64(len(data.Nodes))
	if float64(len(data.Edges)) < threshold {
		return []CustomValidationError{{
			Path:    "$",
			Message: fmt.Sprintf("edge count %d is below 0.3x node count %d", len(data.Edges), len(data.Nodes)),
			Code:     "low_edge_density",
			Severity: SeverityWarning,
			Context:  map[string]any{"edges": len(data.Edges), "nodes": len(data.Nodes)},
		}}
	}
	return nil
}

func nodeTypesByTempID(nodes []Node) map[string]string {
	out := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if n.TempID != "" {
			out[n.TempID] = n.Type
		}
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
