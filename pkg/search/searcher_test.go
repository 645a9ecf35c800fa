package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[]", VectorLiteral(nil))
	assert.Equal(t, "[1]", VectorLiteral([]float32{1}))
	assert.Equal(t, "[0.5,-0.25,2]", VectorLiteral([]float32{0.5, -0.25, 2}))
}

func TestDocumentQualifiedName(t *testing.T) {
	doc := Document{SchemaName: "public", TableName: "orders"}
	assert.Equal(t, "public.orders", doc.QualifiedName())
}
