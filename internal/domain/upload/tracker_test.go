package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsForwardOnly(t *testing.T) {
	tracker := NewTracker()
	report := tracker.Observe("t-1")
	require.NotNil(t, report)

	report(40)
	report(10)
	report(80)

	percent, ok := tracker.Percent("t-1")
	require.True(t, ok)
	assert.Equal(t, 80, percent)

	_, ok = tracker.Percent("t-2")
	assert.False(t, ok)
}

func TestTrackerEmptyIDDisablesTracking(t *testing.T) {
	tracker := NewTracker()
	assert.Nil(t, tracker.Observe(""))
}
