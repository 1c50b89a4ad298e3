/*
 * Copyright 2020 VMware, Inc.
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package dictwalk

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FromYAML decodes a YAML (or JSON, which is valid YAML) document into a
// Value tree: mappings become ordered maps, sequences become lists, and
// scalars are classified by the node's resolved tag.
func FromYAML(data []byte) (Value, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return Value{}, fmt.Errorf("dictwalk: decode yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return Null(), nil
	}
	return valueFromYAMLNode(node.Content[0])
}

// ToYAML encodes a Value tree back to YAML text.
func ToYAML(v Value) ([]byte, error) {
	out, err := yaml.Marshal(valueToInterface(v))
	if err != nil {
		return nil, fmt.Errorf("dictwalk: encode yaml: %w", err)
	}
	return out, nil
}

func valueFromYAMLNode(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null(), nil
		}
		return valueFromYAMLNode(node.Content[0])
	case yaml.MappingNode:
		mp := NewMapValue()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			val, err := valueFromYAMLNode(node.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			mp.Set(key, val)
		}
		return NewMap(mp), nil
	case yaml.SequenceNode:
		items := make([]Value, 0, len(node.Content))
		for _, child := range node.Content {
			val, err := valueFromYAMLNode(child)
			if err != nil {
				return Value{}, err
			}
			items = append(items, val)
		}
		return List(items...), nil
	case yaml.ScalarNode:
		return valueFromYAMLScalar(node)
	case yaml.AliasNode:
		return valueFromYAMLNode(node.Alias)
	default:
		return Null(), nil
	}
}

func valueFromYAMLScalar(node *yaml.Node) (Value, error) {
	switch node.Tag {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return Value{}, fmt.Errorf("dictwalk: decode bool: %w", err)
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			return Value{}, fmt.Errorf("dictwalk: decode int: %w", err)
		}
		return Int(i), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return Value{}, fmt.Errorf("dictwalk: decode float: %w", err)
		}
		return Float(f), nil
	case "!!timestamp":
		if t, err := parseISO8601(node.Value); err == nil {
			return DateTime(t), nil
		}
		return String(node.Value), nil
	default:
		return String(node.Value), nil
	}
}

// ToInterface converts a Value tree to the map[string]any / []any / scalar
// shape encoding/json already produces, the seam a JSON host bridge or the
// CLI attaches to.
func ToInterface(v Value) interface{} {
	return valueToInterface(v)
}

func valueToInterface(v Value) interface{} {
	switch v.Kind() {
	case KindNull:
		return nil
	case KindBool:
		return v.AsBool()
	case KindInt:
		return v.AsInt()
	case KindFloat:
		return v.AsFloat()
	case KindString:
		return v.AsString()
	case KindDateTime:
		return v.AsTime()
	case KindList:
		items := v.AsList().Items
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = valueToInterface(item)
		}
		return out
	case KindMap:
		mp := v.AsMap()
		out := make(map[string]interface{}, mp.Len())
		for _, key := range mp.Keys() {
			val, _ := mp.Get(key)
			out[key] = valueToInterface(val)
		}
		return out
	default:
		return nil
	}
}

// FromInterface converts a map[string]any / []any / scalar Go value (the
// shape encoding/json decodes into) into a Value tree.
func FromInterface(x interface{}) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case []interface{}:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			val, err := FromInterface(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, val)
		}
		return List(items...), nil
	case map[string]interface{}:
		mp := NewMapValue()
		for key, item := range t {
			val, err := FromInterface(item)
			if err != nil {
				return Value{}, err
			}
			mp.Set(key, val)
		}
		return NewMap(mp), nil
	default:
		return Value{}, newTypeError("", fmt.Sprintf("cannot convert %T to a dictwalk value", x))
	}
}
