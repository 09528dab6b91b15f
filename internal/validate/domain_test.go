package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() DomainSchema {
	return DomainSchema{
		NodeTypes: map[string]NodeTypeDef{
			"account": {
				Name: "account",
				Fields: []FieldDef{
					{Name: "name", Kind: FieldKindString, Required: true},
					{Name: "balance", Kind: FieldKindNumber},
					{Name: "tier", Kind: FieldKindEnum, EnumValues: []string{"gold", "silver"}},
					{Name: "opened_at", Kind: FieldKindDatetime},
					{Name: "tags", Kind: FieldKindTagArray},
					{Name: "email", Kind: FieldKindString, Unique: true},
				},
				Statuses: []string{"active", "closed"},
			},
			"transaction": {
				Name:   "transaction",
				Fields: []FieldDef{{Name: "amount", Kind: FieldKindNumber, Required: true}},
			},
		},
		EdgeTypes: map[string]EdgeTypeDef{
			"owns": {Name: "owns", FromType: "account", ToType: "transaction"},
		},
	}
}

func strPtr(s string) *string { return &s }

func TestValidateDomainCleanGraphHasNoErrors(t *testing.T) {
	data := SeedData{
		Nodes: []Node{
			{TempID: "account_1", Type: "account", Properties: map[string]any{"name": "Acme", "email": "a@example.com"}, Status: strPtr("active")},
			{TempID: "txn_1", Type: "transaction", Properties: map[string]any{"amount": 10.0}},
		},
		Edges: []Edge{{Type: "owns", FromTempID: "account_1", ToTempID: "txn_1"}},
	}
	issues := ValidateDomain(data, testSchema(), 10)
	for _, issue := range issues {
		assert.NotEqual(t, SeverityError, issue.Severity, "unexpected error: %+v", issue)
	}
}

func TestValidateDomainDuplicateTempID(t *testing.T) {
	data := SeedData{Nodes: []Node{
		{TempID: "account_1", Type: "account", Properties: map[string]any{"name": "A", "email": "a@example.com"}},
		{TempID: "account_1", Type: "account", Properties: map[string]any{"name": "B", "email": "b@example.com"}},
	}}
	issues := ValidateDomain(data, testSchema(), 10)
	require.NotEmpty(t, issues)
	assert.Equal(t, "duplicate_temp_id", issues[0].Code)
}

func TestValidateDomainTempIDReferenceSuggestsTypoCorrection(t *testing.T) {
	data := SeedData{
		Nodes: []Node{
			{TempID: "account_1", Type: "account", Properties: map[string]any{"name": "A", "email": "a@example.com"}},
			{TempID: "txn_1", Type: "transaction", Properties: map[string]any{"amount": 1.0}},
		},
		Edges: []Edge{{Type: "owns", FromTempID: "acount_1", ToTempID: "txn_1"}},
	}
	issues := ValidateDomain(data, testSchema(), 10)
	var found *CustomValidationError
	for i := range issues {
		if issues[i].Code == "invalid_temp_id_reference" {
			found = &issues[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "account_1", found.Context["suggested_correction"])
}

func TestValidateDomainMissingRequiredFieldExcludesStatus(t *testing.T) {
	data := SeedData{Nodes: []Node{
		{TempID: "account_1", Type: "account", Properties: map[string]any{"email": "a@example.com"}},
	}}
	issues := ValidateDomain(data, testSchema(), 10)
	found := false
	for _, issue := range issues {
		if issue.Code == "missing_required_field" {
			found = true
			assert.Equal(t, "name", issue.Context["field"])
		}
	}
	assert.True(t, found)
}

func TestValidateDomainInvalidEdgeConnectivity(t *testing.T) {
	data := SeedData{
		Nodes: []Node{
			{TempID: "account_1", Type: "account", Properties: map[string]any{"name": "A", "email": "a@example.com"}},
			{TempID: "account_2", Type: "account", Properties: map[string]any{"name": "B", "email": "b@example.com"}},
		},
		Edges: []Edge{{Type: "owns", FromTempID: "account_1", ToTempID: "account_2"}},
	}
	issues := ValidateDomain(data, testSchema(), 10)
	found := false
	for _, issue := range issues {
		if issue.Code == "invalid_edge_connectivity" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateDomainDuplicateUniqueValueScopedPerType(t *testing.T) {
	data := SeedData{Nodes: []Node{
		{TempID: "account_1", Type: "account", Properties: map[string]any{"name": "A", "email": "dup@example.com"}},
		{TempID: "account_2", Type: "account", Properties: map[string]any{"name": "B", "email": "dup@example.com"}},
	}}
	issues := ValidateDomain(data, testSchema(), 10)
	found := false
	for _, issue := range issues {
		if issue.Code == "duplicate_unique_value" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateDomainEmptySeedDataWarning(t *testing.T) {
	issues := ValidateDomain(SeedData{}, testSchema(), 10)
	require.Len(t, issues, 1)
	assert.Equal(t, "empty_seed_data", issues[0].Code)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
}

func TestValidateDomainOrphanNodeWarningOnlyWhenGraphHasEdges(t *testing.T) {
	data := SeedData{
		Nodes: []Node{
			{TempID: "account_1", Type: "account", Properties: map[string]any{"name": "A", "email": "a@example.com"}},
			{TempID: "account_2", Type: "account", Properties: map[string]any{"name": "B", "email": "b@example.com"}},
			{TempID: "txn_1", Type: "transaction", Properties: map[string]any{"amount": 1.0}},
		},
		Edges: []Edge{{Type: "owns", FromTempID: "account_1", ToTempID: "txn_1"}},
	}
	issues := ValidateDomain(data, testSchema(), 10)
	found := false
	for _, issue := range issues {
		if issue.Code == "orphan_node" {
			found = true
			assert.Equal(t, "account_2", issue.Context["temp_id"])
		}
	}
	assert.True(t, found)
}

func TestValidateDomainOrphanNodeSuppressedWhenNoEdgesAtAll(t *testing.T) {
	data := SeedData{Nodes: []Node{
		{TempID: "account_1", Type: "account", Properties: map[string]any{"name": "A", "email": "a@example.com"}},
	}}
	issues := ValidateDomain(data, testSchema(), 10)
	for _, issue := range issues {
		assert.NotEqual(t, "orphan_node", issue.Code)
	}
}

func TestValidateDomainLowEdgeDensityRequiresAtLeastTwoNodes(t *testing.T) {
	data := SeedData{Nodes: []Node{
		{TempID: "account_1", Type: "account", Properties: map[string]any{"name": "A", "email": "a@example.com"}},
	}}
	issues := ValidateDomain(data, testSchema(), 10)
	for _, issue := range issues {
		assert.NotEqual(t, "low_edge_density", issue.Code)
	}
}

func TestValidateDomainStopsAtMaxErrors(t *testing.T) {
	data := SeedData{Nodes: []Node{
		{TempID: "a", Type: "account", Properties: map[string]any{"name": "x", "email": "1@example.com"}},
		{TempID: "a", Type: "account", Properties: map[string]any{"name": "y", "email": "2@example.com"}},
		{TempID: "a", Type: "account", Properties: map[string]any{"name": "z", "email": "3@example.com"}},
	}}
	// max_errors is checked between validators, not mid-validator, so the
	// single duplicate_temp_id validator call still reports all duplicates
	// it finds in one pass; the *next* validator must not run at all.
	issues := ValidateDomain(data, testSchema(), 1)
	for _, issue := range issues {
		assert.Equal(t, "duplicate_temp_id", issue.Code)
	}
}
