package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextStripsScript(t *testing.T) {
	require.Equal(t, "ETH Warsaw", Text(`ETH Warsaw<script>alert(1)</script>`))
}

func TestTextKeepsPlainText(t *testing.T) {
	require.Equal(t, "Building the Future of Ethereum", Text("Building the Future of Ethereum"))
}

func TestTextSlice(t *testing.T) {
	require.Nil(t, TextSlice(nil))
	require.Equal(t,
		[]string{"https://twitter.com/ethwarsaw", "b"},
		TextSlice([]string{"https://twitter.com/ethwarsaw", "<b>b</b>"}))
}
