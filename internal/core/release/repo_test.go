package release

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepo(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", DefaultRepo},
		{"acme/templates", "acme/templates"},
		{"  acme/templates  ", "acme/templates"},
		{"https://github.com/acme/templates", "acme/templates"},
		{"https://github.com/acme/templates.git", "acme/templates"},
		{"https://github.com/acme/templates/releases/latest", "acme/templates"},
		{"git@github.com:acme/templates.git", "acme/templates"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRepo(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRepo_Invalid(t *testing.T) {
	for _, input := range []string{"acme", "acme/templates/extra", "https://github.com/acme", "git@github.com", "bad owner/repo"} {
		_, err := ParseRepo(input)
		assert.Error(t, err, "ParseRepo(%q)", input)
	}
}
