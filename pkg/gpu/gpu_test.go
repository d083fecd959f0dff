package gpu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suivanity/miner/internal/errs"
	"github.com/suivanity/miner/pkg/matcher"
	"github.com/suivanity/miner/pkg/types"
)

func TestStubReturnsNotImplemented(t *testing.T) {
	m, err := matcher.New("0")
	require.NoError(t, err)

	var b Backend = Stub{}
	hit, err := b.Run(types.Template{}, m, 0)
	require.Nil(t, hit)
	require.ErrorIs(t, err, errs.ErrNotImplemented)
}
