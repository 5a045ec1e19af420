package graph

import (
	"sort"

	"github.com/vektah/gqlparser/v2/ast"
)

// introspectSchema describes s in the shape of the __Schema type.
func introspectSchema(s *ast.Schema) map[string]interface{} {
	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	types := make([]interface{}, 0, len(names))
	for _, name := range names {
		types = append(types, introspectType(s, s.Types[name]))
	}

	dirNames := make([]string, 0, len(s.Directives))
	for name := range s.Directives {
		dirNames = append(dirNames, name)
	}
	sort.Strings(dirNames)
	directives := make([]interface{}, 0, len(dirNames))
	for _, name := range dirNames {
		d := s.Directives[name]
		locations := make([]interface{}, 0, len(d.Locations))
		for _, l := range d.Locations {
			locations = append(locations, string(l))
		}
		directives = append(directives, map[string]interface{}{
			"name":         d.Name,
			"description":  optional(d.Description),
			"locations":    locations,
			"args":         arguments(s, d.Arguments),
			"isRepeatable": d.IsRepeatable,
		})
	}

	return map[string]interface{}{
		"types":            types,
		"queryType":        typeOf(s, s.Query),
		"mutationType":     typeOf(s, s.Mutation),
		"subscriptionType": typeOf(s, s.Subscription),
		"directives":       directives,
	}
}

// introspectType describes def in the shape of the __Type type. Types it
// refers to are built lazily.
func introspectType(s *ast.Schema, def *ast.Definition) map[string]interface{} {
	t := map[string]interface{}{
		"kind":        string(def.Kind),
		"name":        def.Name,
		"description": optional(def.Description),
	}
	switch def.Kind {
	case ast.Object, ast.Interface:
		fields := make([]interface{}, 0, len(def.Fields))
		for _, f := range def.Fields {
			if len(f.Name) > 1 && f.Name[:2] == "__" {
				continue
			}
			reason, deprecated := deprecation(f.Directives)
			fields = append(fields, map[string]interface{}{
				"name":              f.Name,
				"description":       optional(f.Description),
				"args":              arguments(s, f.Arguments),
				"type":              typeRef(s, f.Type),
				"isDeprecated":      deprecated,
				"deprecationReason": reason,
			})
		}
		t["fields"] = fields
		interfaces := make([]interface{}, 0, len(def.Interfaces))
		for _, name := range def.Interfaces {
			interfaces = append(interfaces, typeOf(s, s.Types[name]))
		}
		t["interfaces"] = interfaces
		if def.Kind == ast.Interface {
			t["possibleTypes"] = possibleTypes(s, def)
		}
	case ast.Union:
		t["possibleTypes"] = possibleTypes(s, def)
	case ast.Enum:
		values := make([]interface{}, 0, len(def.EnumValues))
		for _, v := range def.EnumValues {
			reason, deprecated := deprecation(v.Directives)
			values = append(values, map[string]interface{}{
				"name":              v.Name,
				"description":       optional(v.Description),
				"isDeprecated":      deprecated,
				"deprecationReason": reason,
			})
		}
		t["enumValues"] = values
	case ast.InputObject:
		fields := make([]interface{}, 0, len(def.Fields))
		for _, f := range def.Fields {
			fields = append(fields, inputValue(s, f.Name, f.Description, f.Type, f.DefaultValue))
		}
		t["inputFields"] = fields
	}
	return t
}

func possibleTypes(s *ast.Schema, def *ast.Definition) []interface{} {
	out := []interface{}{}
	for _, p := range s.GetPossibleTypes(def) {
		out = append(out, typeOf(s, p))
	}
	return out
}

func arguments(s *ast.Schema, args ast.ArgumentDefinitionList) []interface{} {
	out := make([]interface{}, 0, len(args))
	for _, a := range args {
		out = append(out, inputValue(s, a.Name, a.Description, a.Type, a.DefaultValue))
	}
	return out
}

func inputValue(s *ast.Schema, name, description string, typ *ast.Type, def *ast.Value) map[string]interface{} {
	var defaultValue interface{}
	if def != nil {
		defaultValue = def.String()
	}
	return map[string]interface{}{
		"name":         name,
		"description":  optional(description),
		"type":         typeRef(s, typ),
		"defaultValue": defaultValue,
	}
}

// typeRef describes a field type, unwrapping non-null and list wrappers.
func typeRef(s *ast.Schema, t *ast.Type) interface{} {
	if t.NonNull {
		inner := *t
		inner.NonNull = false
		return map[string]interface{}{"kind": "NON_NULL", "ofType": typeRef(s, &inner)}
	}
	if t.Elem != nil {
		return map[string]interface{}{"kind": "LIST", "ofType": typeRef(s, t.Elem)}
	}
	return typeOf(s, s.Types[t.NamedType])
}

func typeOf(s *ast.Schema, def *ast.Definition) interface{} {
	if def == nil {
		return nil
	}
	return lazy(func() interface{} { return introspectType(s, def) })
}

func deprecation(directives ast.DirectiveList) (interface{}, bool) {
	d := directives.ForName("deprecated")
	if d == nil {
		return nil, false
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw, true
	}
	return "No longer supported", true
}

func optional(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
