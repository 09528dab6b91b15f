package validate

import "fmt"

// SeedDataFromJSON converts a decoded JSON document into SeedData, the
// shape domain validation operates over. The expected document is a
// single object with "nodes" and "edges" arrays, each element an object
// using the seed_validators.py field names (temp_id/node_type/status/
// properties for nodes; edge_type/from_temp_id/to_temp_id/properties for
// edges; edge properties are not read). An error is returned when the
// document is not an object, "nodes" or "edges" is not an array, or an
// element is not an object. A missing or non-string temp_id, node_type,
// edge_type, from_temp_id or to_temp_id decodes as an empty string.
func SeedDataFromJSON(doc any) (SeedData, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return SeedData{}, fmt.Errorf("seed data document must be a JSON object with nodes/edges, got %T", doc)
	}

	nodes, err := decodeNodes(obj["nodes"])
	if err != nil {
		return SeedData{}, err
	}
	edges, err := decodeEdges(obj["edges"])
	if err != nil {
		return SeedData{}, err
	}
	return SeedData{Nodes: nodes, Edges: edges}, nil
}

func decodeNodes(raw any) ([]Node, error) {
	if raw == nil {
		return nil, nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("seed data \"nodes\" must be an array, got %T", raw)
	}
	nodes := make([]Node, 0, len(arr))
	for i, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("nodes[%d] must be an object, got %T", i, item)
		}
		tempID, _ := obj["temp_id"].(string)
		nodeType, _ := obj["node_type"].(string)
		node := Node{TempID: tempID, Type: nodeType}
		if props, ok := obj["properties"].(map[string]any); ok {
			node.Properties = props
		}
		if status, ok := obj["status"].(string); ok {
			node.Status = &status
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func decodeEdges(raw any) ([]Edge, error) {
	if raw == nil {
		return nil, nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("seed data \"edges\" must be an array, got %T", raw)
	}
	edges := make([]Edge, 0, len(arr))
	for i, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("edges[%d] must be an object, got %T", i, item)
		}
		edgeType, _ := obj["edge_type"].(string)
		fromTempID, _ := obj["from_temp_id"].(string)
		toTempID, _ := obj["to_temp_id"].(string)
		edges = append(edges, Edge{Type: edgeType, FromTempID: fromTempID, ToTempID: toTempID})
	}
	return edges, nil
}
