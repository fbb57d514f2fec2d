package graph

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// selectsMutation reports whether executing query with operationName could
// run a mutation. When no single operation is selected, any mutation in the
// document counts.
func selectsMutation(query, operationName string) (bool, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return false, err
	}

	if def := doc.Operations.ForName(operationName); def != nil {
		return def.Operation == ast.Mutation, nil
	}
	for _, def := range doc.Operations {
		if def.Operation == ast.Mutation {
			return true, nil
		}
	}
	return false, nil
}
