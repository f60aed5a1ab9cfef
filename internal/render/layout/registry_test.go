package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suratdesa/internal/request/models"
	dErrors "suratdesa/pkg/domainerrors"
)

func TestRegistry(t *testing.T) {
	registry, err := New()
	require.NoError(t, err)

	t.Run("resolves every renderable type", func(t *testing.T) {
		for _, code := range []models.TypeCode{
			models.TypeDomicile, models.TypeBusiness, models.TypePoverty,
			models.TypeBirth, models.TypeSingleStatus,
		} {
			l, err := registry.Resolve(code)
			require.NoError(t, err)
			assert.Equal(t, code, l.Code)
		}
	})

	t.Run("unknown type fails hard with no fallback", func(t *testing.T) {
		_, err := registry.Resolve(models.TypeGeneral)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTemplateNotFound))
	})
}

func TestBind(t *testing.T) {
	registry, err := New()
	require.NoError(t, err)

	t.Run("empty context renders placeholders, never fails", func(t *testing.T) {
		for _, code := range []models.TypeCode{
			models.TypeDomicile, models.TypeBusiness, models.TypePoverty,
			models.TypeBirth, models.TypeSingleStatus,
		} {
			l, err := registry.Resolve(code)
			require.NoError(t, err)
			markup, err := l.Bind(map[string]any{})
			require.NoError(t, err, "layout %s", code)
			assert.Contains(t, markup, Placeholder)
		}
	})

	t.Run("context values land in the markup", func(t *testing.T) {
		l, err := registry.Resolve(models.TypeDomicile)
		require.NoError(t, err)
		markup, err := l.Bind(map[string]any{
			"applicant_name": "Dewi Lestari",
			"letter_number":  "Kel.042/X/2025",
		})
		require.NoError(t, err)
		assert.Contains(t, markup, "Dewi Lestari")
		assert.Contains(t, markup, "Kel.042/X/2025")
	})

	t.Run("markup is escaped", func(t *testing.T) {
		l, err := registry.Resolve(models.TypeDomicile)
		require.NoError(t, err)
		markup, err := l.Bind(map[string]any{"applicant_name": "<script>x</script>"})
		require.NoError(t, err)
		assert.False(t, strings.Contains(markup, "<script>"))
	})
}
