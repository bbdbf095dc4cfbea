package remediate

import (
	"testing"

	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/rileyhilliard/patchctl/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := ParseKind(" Restart ")
	require.NoError(t, err)
	assert.Equal(t, Restart, got)

	_, err = ParseKind("reimage")
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestKindLabels(t *testing.T) {
	assert.Equal(t, "install", InstallUpdates.String())
	assert.Equal(t, "Assessing", TriggerAssessment.Verb())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestCheckTarget(t *testing.T) {
	assert.NoError(t, CheckTarget(resource.ID{Subscription: "s", ResourceGroup: "g", Name: "n"}))

	err := CheckTarget(resource.ID{Subscription: "s", ResourceGroup: "g"})
	assert.True(t, errors.IsCode(err, errors.ErrDispatch))
}

func TestDefaultInstallParams(t *testing.T) {
	p := DefaultInstallParams()
	assert.Equal(t, "PT2H", p.MaxDuration)
	assert.Equal(t, "IfRequired", p.RebootSetting)
	assert.Contains(t, p.Classifications, "Security")
}
