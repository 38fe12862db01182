package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMockClipboardRecords(t *testing.T) {
	c := &MockClipboard{}

	assert.NoError(t, c.Copy("ns-1"))
	assert.NoError(t, c.Copy("TXT dedi-verify=abc"))
	assert.Equal(t, []string{"ns-1", "TXT dedi-verify=abc"}, c.Copied)
}

func TestMockClock(t *testing.T) {
	fixed := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	var clock Clock = MockClock{Time: fixed}
	assert.Equal(t, fixed, clock.Now())
}
