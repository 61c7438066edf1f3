package universe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUniverse(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "universe.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeUniverse(t, `{
		"sectors": {
			"materials": ["BHP.AX", "RIO.AX", "FMG.AX"],
			"financials": ["CBA.AX", "NAB.AX"]
		}
	}`)

	u, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, u.Count())
	assert.Equal(t, "financials", u.SectorOf("NAB.AX"))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty sectors", `{"sectors": {}}`},
		{"empty sector members", `{"sectors": {"materials": []}}`},
		{"blank symbol", `{"sectors": {"materials": [" "]}}`},
		{"duplicate symbol", `{"sectors": {"a": ["BHP.AX"], "b": ["BHP.AX"]}}`},
		{"unknown field", `{"sectors": {"a": ["BHP.AX"]}, "extra": 1}`},
		{"not json", `sectors: {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeUniverse(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
