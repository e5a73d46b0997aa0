package checkout

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewReferenceFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^VELT-\d+-\d{6}$`)
	ref := NewReference("VELT")
	require.Regexp(t, pattern, ref)
}

func TestNewReferenceUniqueUnderTightLoop(t *testing.T) {
	pattern := regexp.MustCompile(`^SUB-\d+-\d+$`)
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		ref := NewReference("SUB")
		require.Regexp(t, pattern, ref)
		_, dup := seen[ref]
		require.False(t, dup, "duplicate reference %s", ref)
		seen[ref] = struct{}{}
	}
}

func TestNewReferenceDefaultPrefix(t *testing.T) {
	require.Regexp(t, regexp.MustCompile(`^VELT-`), NewReference(""))
}
