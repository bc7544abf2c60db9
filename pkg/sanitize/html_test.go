package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeHTML(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"script removed and trimmed", "  <script>x</script><b>hi</b>  ", "<b>hi</b>"},
		{"plain text", "\n hello \t", "hello"},
		{"event handler dropped", `<b onclick="alert(1)">x</b>`, "<b>x</b>"},
		{"javascript link dropped", `<a href="javascript:alert(1)">x</a>`, "x"},
		{"empty", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeHTML(tc.in))
		})
	}
}

func TestNew(t *testing.T) {
	strict, err := New("STRICT")
	require.NoError(t, err)
	assert.Equal(t, "hi", strict.HTML(" <b>hi</b> "))

	ugc, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "<i>hi</i>", ugc.HTML("<i>hi</i>"))

	_, err = New("lax")
	assert.Error(t, err)
}
