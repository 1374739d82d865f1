package roomstore

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// normalize converts an arbitrary Go value into the generic JSON tree form the
// stores keep. Empty objects and nulls collapse to nil so that deleting the
// last child of a node removes the node as well.
func normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	var data []byte
	switch v := value.(type) {
	case json.RawMessage:
		data = v
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode value: %w", err)
		}
		data = encoded
	}
	if len(data) == 0 {
		return nil, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var node any
	if err := decoder.Decode(&node); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return prune(node), nil
}

func prune(node any) any {
	obj, ok := node.(map[string]any)
	if !ok {
		return node
	}
	for key, child := range obj {
		pruned := prune(child)
		if pruned == nil {
			delete(obj, key)
			continue
		}
		obj[key] = pruned
	}
	if len(obj) == 0 {
		return nil
	}
	return obj
}

func getNode(root map[string]any, parts []string) any {
	var node any = root
	for _, part := range parts {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node, ok = obj[part]
		if !ok {
			return nil
		}
	}
	return node
}

// setNode stores value (already normalized) at parts below root. Scalars in the
// way are replaced by objects; a nil value deletes and prunes empty parents.
func setNode(root map[string]any, parts []string, value any) {
	if len(parts) == 0 {
		return
	}
	if value == nil {
		deleteNode(root, parts)
		return
	}
	node := root
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[part] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = value
}

func deleteNode(node map[string]any, parts []string) bool {
	if len(parts) == 1 {
		delete(node, parts[0])
		return len(node) == 0
	}
	child, ok := node[parts[0]].(map[string]any)
	if !ok {
		return len(node) == 0
	}
	if deleteNode(child, parts[1:]) {
		delete(node, parts[0])
	}
	return len(node) == 0
}

func encodeNode(node any) (json.RawMessage, error) {
	if node == nil {
		return nil, nil
	}
	data, err := json.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("encode node: %w", err)
	}
	return data, nil
}

// overlaps reports whether a change at one path can affect the other.
func overlaps(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
