package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToValue(t *testing.T) {
	t.Run("wraps_plain_values", func(t *testing.T) {
		assert.Equal(t, Scalar{V: 1}, toValue(1))
		assert.Equal(t, Scalar{V: "Ann"}, toValue("Ann"))
		assert.Equal(t, Scalar{V: nil}, toValue(nil))
	})

	t.Run("passes_value_forms_through", func(t *testing.T) {
		assert.Equal(t, Raw("NOW()"), toValue(Raw("NOW()")))
		assert.Equal(t, Ref("id"), toValue(Ref("id")))
		assert.Equal(t, Expr("ROUND(?, 2)", 3.14), toValue(Expr("ROUND(?, 2)", 3.14)))
	})
}

func TestRef(t *testing.T) {
	t.Run("strips_single_leading_colon", func(t *testing.T) {
		assert.Equal(t, NamedRef{Name: "id"}, Ref("id"))
		assert.Equal(t, NamedRef{Name: "id"}, Ref(":id"))
	})

	t.Run("keeps_inner_colons", func(t *testing.T) {
		assert.Equal(t, NamedRef{Name: ":id"}, Ref("::id"))
	})
}

func TestExpr(t *testing.T) {
	x := Expr("GREATEST(?, ?)", 1, 2)
	assert.Equal(t, "GREATEST(?, ?)", x.SQL)
	assert.Equal(t, []any{1, 2}, x.Args)

	empty := Expr("1 + 1")
	assert.Empty(t, empty.Args)
}
