package specfile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pepmatch/psmsearch/internal/query"
)

type stubParser struct{}

func (stubParser) InitQueryFile(string, int) (int, int, error)             { return 0, 0, nil }
func (stubParser) ExtractQueryChunk(int, *query.SpectrumBatch, *int) error { return nil }
func (stubParser) DeinitQueryFile() error                                 { return nil }

var _ Parser = stubParser{}

func TestRegisterAndFor(t *testing.T) {
	Register(".testfmt", func() Parser { return stubParser{} })

	factory, err := For(".testfmt")
	require.NoError(t, err)
	require.NotNil(t, factory)

	parser := factory()
	require.Implements(t, (*Parser)(nil), parser)
}

func TestForUnregisteredExtensionReturnsError(t *testing.T) {
	_, err := For(".doesnotexist")
	require.Error(t, err)
	require.Contains(t, err.Error(), ".doesnotexist")
}
