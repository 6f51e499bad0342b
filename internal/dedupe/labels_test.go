package dedupe_test

import (
	"testing"

	"github.com/DeafMist/tripboard/backend/internal/dedupe"
	"github.com/stretchr/testify/require"
)

func TestLabelsFirstOccurrenceWins(t *testing.T) {
	labels := dedupe.NewLabels(4)
	require.True(t, labels.Add("Kyoto"))
	require.False(t, labels.Add("kyoto"))
	require.False(t, labels.Add("  KYOTO "))
	require.True(t, labels.Add("Osaka"))
	require.Equal(t, 2, labels.Len())
}

func TestLabelsRejectsBlank(t *testing.T) {
	labels := dedupe.NewLabels(0)
	require.False(t, labels.Add(""))
	require.False(t, labels.Add("   "))
	require.Equal(t, 0, labels.Len())
}
