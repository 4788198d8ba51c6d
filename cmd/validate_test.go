package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/avisos/internal/config"
	apperrors "github.com/ginjaninja78/avisos/internal/errors"
	"github.com/ginjaninja78/avisos/internal/registry"
	"github.com/ginjaninja78/avisos/internal/types"
)

func TestCheckActivityConfigs(t *testing.T) {
	configs := map[types.ActivityType]*config.ActivityConfig{
		types.ActivityRealEstate: {
			ActivityType:         types.ActivityRealEstate,
			FileMatchingPatterns: []string{"inmuebles_*.csv"},
			ColumnMapping:        map[string]string{"amount": "Importe"},
		},
		types.ActivityVehicles: {
			ActivityType:  types.ActivityVehicles,
			ColumnMapping: map[string]string{"colour": "Color"},
		},
		types.ActivityGaming: {
			ActivityType:         types.ActivityGaming,
			FileMatchingPatterns: []string{"juegos_[.csv"},
		},
		"loteria": {ActivityType: "loteria"},
	}

	problems := checkActivityConfigs(registry.Default(), configs)
	assert.NotContains(t, problems, types.ActivityRealEstate)
	require.Len(t, problems, 3)
	assert.Equal(t, apperrors.ErrCodeInvalidConfig, apperrors.CodeOf(problems[types.ActivityVehicles]))
	assert.Equal(t, apperrors.ErrCodeInvalidConfig, apperrors.CodeOf(problems[types.ActivityGaming]))
	assert.Equal(t, apperrors.ErrCodeUnknownActivity, apperrors.CodeOf(problems["loteria"]))
}

func TestListActivities(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, listActivities(&out, registry.Default()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 16)
	assert.True(t, strings.HasPrefix(lines[0], "ACTIVITY"))
	assert.Contains(t, out.String(), "juegos_apuestas")
	assert.Contains(t, out.String(), "JYS")
}
