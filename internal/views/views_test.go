package views_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
	"storefront/internal/views"
)

func render(t *testing.T, e *views.Engine, name string, page views.Page) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, e.Render(&buf, name, page))
	return buf.String()
}

func TestEngine_RenderPages(t *testing.T) {
	e := views.New()
	require.NoError(t, e.Load())

	products := []models.Product{{ID: 1, Name: "T-shirt", Price: 500, Department: "Clothing"}}

	out := render(t, e, "catalog", views.Page{Username: "bob", Products: products})
	assert.Contains(t, out, "T-shirt")
	assert.Contains(t, out, "bob")
	assert.NotContains(t, out, "/add_product")
	assert.NotContains(t, out, "/delete_product")

	out = render(t, e, "catalog_admin", views.Page{Username: "admin", IsAdmin: true, Products: products})
	assert.Contains(t, out, "/add_product")
	assert.Contains(t, out, "/delete_product")
	assert.Contains(t, out, "(admin)")

	out = render(t, e, "catalog_admin", views.Page{IsAdmin: true, Notice: "Product #9 was not found", Form: views.Form{Name: "Hat", Aisle: "C3"}})
	assert.Contains(t, out, `<p class="notice">Product #9 was not found</p>`)
	assert.Contains(t, out, `value="Hat"`)
	assert.Contains(t, out, `value="C3"`)

	out = render(t, e, "login", views.Page{Error: "Invalid username or password", Form: views.Form{Username: "eve"}})
	assert.Contains(t, out, "Invalid username or password")
	assert.Contains(t, out, `value="eve"`)

	out = render(t, e, "product", views.Page{Username: "bob", Product: &products[0]})
	assert.Contains(t, out, "<title>T-shirt</title>")
	assert.Contains(t, out, "Clothing")
}

func TestEngine_EscapesUserInput(t *testing.T) {
	e := views.New()
	require.NoError(t, e.Load())

	out := render(t, e, "catalog", views.Page{Products: []models.Product{{ID: 2, Name: "<script>alert(1)</script>"}}})
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestEngine_UnknownTemplate(t *testing.T) {
	e := views.New()
	require.NoError(t, e.Load())

	var buf bytes.Buffer
	assert.Error(t, e.Render(&buf, "missing", views.Page{}))
}
