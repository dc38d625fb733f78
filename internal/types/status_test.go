//nolint:revive // types is a standard Go package name pattern
package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseApplicationStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    ApplicationStatus
		wantErr bool
	}{
		{input: "NEW", want: StatusNew},
		{input: " contacted ", want: StatusContacted},
		{input: "Qualified", want: StatusQualified},
		{input: "PLACED", want: StatusPlaced},
		{input: "rejected", want: StatusRejected},
		{input: "interview", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseApplicationStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplicationStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusNew.IsTerminal())
	assert.False(t, StatusContacted.IsTerminal())
	assert.False(t, StatusQualified.IsTerminal())
	assert.True(t, StatusPlaced.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
}

func TestParseClientDecision(t *testing.T) {
	d, err := ParseClientDecision("approved")
	require.NoError(t, err)
	assert.Equal(t, DecisionApproved, d)

	d, err = ParseClientDecision("PENDING")
	require.NoError(t, err)
	assert.Equal(t, DecisionPending, d)

	_, err = ParseClientDecision("maybe")
	assert.Error(t, err)
}

func TestAppendNote(t *testing.T) {
	assert.Equal(t, "line", AppendNote("", "line"))
	assert.Equal(t, "old\n\nline", AppendNote("old", "line"))
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" go ", "", "remote", "go", "  "})
	assert.Equal(t, []string{"go", "remote"}, got)
}
