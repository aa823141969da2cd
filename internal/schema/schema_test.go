package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalKeepsPropertyOrder(t *testing.T) {
	t.Parallel()

	s := Object(
		P("zeta", String()),
		P("alpha", Array(String()).WithDefault([]string{})),
		P("mid", Number()),
	).WithRequired("zeta")

	out, err := Marshal(s)
	require.NoError(t, err)
	require.Equal(t,
		`{"type":"object","properties":{"zeta":{"type":"string"},"alpha":{"type":"array","items":{"type":"string"},"default":[]},"mid":{"type":"number"}},"required":["zeta"]}`,
		out,
	)
}

func TestParseRoundTripsOrder(t *testing.T) {
	t.Parallel()

	s, err := Parse([]byte(`{"type":"object","properties":{"b":{"type":"string","default":""},"a":{"type":"string","enum":["x","y"]}}}`))
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, s.Names())

	a, ok := s.Property("a")
	require.True(t, ok)
	require.Equal(t, []any{"x", "y"}, a.Enum)

	b, _ := s.Property("b")
	require.Equal(t, "", b.Default)
}

func TestMarshalNil(t *testing.T) {
	t.Parallel()

	_, err := Marshal(nil)
	require.Error(t, err)
}
