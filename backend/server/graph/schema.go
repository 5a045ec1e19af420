// Package graph serves the procedure table as a GraphQL schema. Root fields
// are mapped to procedures by their @procedure directive; the procedure's
// result is projected onto the selection set of the query.
package graph

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

//go:embed schema.graphqls
var sourceData string

var parsedSchema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: sourceData, BuiltIn: false})

// Resolver runs one procedure with its JSON encoded arguments.
type Resolver interface {
	Call(ctx context.Context, procedure string, args []byte) (interface{}, error)
}

type Config struct {
	Resolvers Resolver
	// Errors turns a failed procedure into the error reported to the
	// client. When nil the error text is reported as is.
	Errors func(procedure string, err error) *gqlerror.Error
}

// NewExecutableSchema creates an ExecutableSchema from the Config.
func NewExecutableSchema(cfg Config) graphql.ExecutableSchema {
	return &executableSchema{resolvers: cfg.Resolvers, errors: cfg.Errors}
}

type executableSchema struct {
	resolvers Resolver
	errors    func(procedure string, err error) *gqlerror.Error
}

func (e *executableSchema) Schema() *ast.Schema {
	return parsedSchema
}

func (e *executableSchema) Complexity(typeName, field string, childComplexity int, rawArgs map[string]interface{}) (int, bool) {
	return 0, false
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	rc := graphql.GetOperationContext(ctx)
	var root *ast.Definition
	switch rc.Operation.Operation {
	case ast.Query:
		root = parsedSchema.Query
	case ast.Mutation:
		root = parsedSchema.Mutation
	default:
		return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported GraphQL operation"))
	}

	first := true
	return func(ctx context.Context) *graphql.Response {
		if !first {
			return nil
		}
		first = false
		data, errs := e.execRoot(ctx, rc, root)
		return &graphql.Response{Data: data, Errors: errs}
	}
}

// execRoot resolves the root fields in order. A failed field is null in the
// data and reported in the error list.
func (e *executableSchema) execRoot(ctx context.Context, rc *graphql.OperationContext, root *ast.Definition) (json.RawMessage, gqlerror.List) {
	var (
		buf  bytes.Buffer
		errs gqlerror.List
	)
	buf.WriteByte('{')
	for i, f := range graphql.CollectFields(rc, rc.Operation.SelectionSet, []string{root.Name}) {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeKey(&buf, f.Alias)

		switch f.Name {
		case "__typename":
			writeScalar(&buf, root.Name)
			continue
		case "__schema", "__type":
			if rc.DisableIntrospection {
				errs = append(errs, &gqlerror.Error{Message: "introspection disabled", Path: ast.Path{ast.PathName(f.Alias)}})
				buf.WriteString("null")
				continue
			}
		}

		switch f.Name {
		case "__schema":
			project(&buf, rc, introspectSchema(parsedSchema), f.Definition.Type, f.Selections)
			continue
		case "__type":
			name, _ := f.ArgumentMap(rc.Variables)["name"].(string)
			var t interface{}
			if def := parsedSchema.Types[name]; def != nil {
				t = introspectType(parsedSchema, def)
			}
			project(&buf, rc, t, f.Definition.Type, f.Selections)
			continue
		}

		value, err := e.resolve(ctx, rc, f)
		if err != nil {
			errs = append(errs, err)
			buf.WriteString("null")
			continue
		}
		project(&buf, rc, value, f.Definition.Type, f.Selections)
	}
	buf.WriteByte('}')
	return buf.Bytes(), errs
}

func (e *executableSchema) resolve(ctx context.Context, rc *graphql.OperationContext, f graphql.CollectedField) (interface{}, *gqlerror.Error) {
	path := ast.Path{ast.PathName(f.Alias)}
	procedure := procedureOf(f.Definition)
	if procedure == "" {
		return nil, &gqlerror.Error{Message: fmt.Sprintf("field %s has no procedure", f.Name), Path: path}
	}

	args, err := json.Marshal(f.ArgumentMap(rc.Variables))
	if err != nil {
		return nil, &gqlerror.Error{Message: "invalid arguments", Path: path}
	}
	result, err := e.resolvers.Call(ctx, procedure, args)
	if err != nil {
		gerr := &gqlerror.Error{Message: err.Error()}
		if e.errors != nil {
			gerr = e.errors(procedure, err)
		}
		gerr.Path = path
		return nil, gerr
	}

	tree, err := toTree(result)
	if err != nil {
		return nil, &gqlerror.Error{Message: "invalid result", Path: path}
	}
	return tree, nil
}

func procedureOf(def *ast.FieldDefinition) string {
	if def == nil {
		return ""
	}
	d := def.Directives.ForName("procedure")
	if d == nil {
		return ""
	}
	arg := d.Arguments.ForName("name")
	if arg == nil || arg.Value == nil {
		return ""
	}
	return arg.Value.Raw
}

// toTree turns a procedure result into the generic JSON shapes project
// walks. Numbers stay json.Number so they are written back unchanged.
func toTree(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// lazy defers building a value until a selection asks for it. The
// introspection types refer to each other through it.
type lazy func() interface{}

// project writes the part of v that sel selects, typed by typ.
func project(buf *bytes.Buffer, rc *graphql.OperationContext, v interface{}, typ *ast.Type, sel ast.SelectionSet) {
	if l, ok := v.(lazy); ok {
		v = l()
	}
	if v == nil {
		buf.WriteString("null")
		return
	}

	if typ.Elem != nil {
		items, ok := v.([]interface{})
		if !ok {
			buf.WriteString("null")
			return
		}
		buf.WriteByte('[')
		for i, item := range items {
			if i > 0 {
				buf.WriteByte(',')
			}
			project(buf, rc, item, typ.Elem, sel)
		}
		buf.WriteByte(']')
		return
	}

	obj, ok := v.(map[string]interface{})
	if !ok || len(sel) == 0 {
		writeScalar(buf, v)
		return
	}

	name := typ.Name()
	buf.WriteByte('{')
	for i, f := range graphql.CollectFields(rc, sel, []string{name}) {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeKey(buf, f.Alias)
		if f.Name == "__typename" {
			writeScalar(buf, name)
			continue
		}
		fieldType := ast.NamedType("String", nil)
		if f.Definition != nil {
			fieldType = f.Definition.Type
		}
		project(buf, rc, obj[f.Name], fieldType, f.Selections)
	}
	buf.WriteByte('}')
}

func writeKey(buf *bytes.Buffer, key string) {
	writeScalar(buf, key)
	buf.WriteByte(':')
}

func writeScalar(buf *bytes.Buffer, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		buf.WriteString("null")
		return
	}
	buf.Write(raw)
}

// Procedures lists the procedures called by the root fields of the schema.
func Procedures() []string {
	var out []string
	for _, root := range []*ast.Definition{parsedSchema.Query, parsedSchema.Mutation} {
		for _, f := range root.Fields {
			if name := procedureOf(f); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}
