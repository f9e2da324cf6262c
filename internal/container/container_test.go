package container

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/soundtrace/engine/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Log, _ = zap.NewDevelopment()
	os.Exit(m.Run())
}

func TestValidate_FailsWhenDependenciesMissing(t *testing.T) {
	c := New()
	err := c.Validate()
	require.Error(t, err)

	var initErr *InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Contains(t, initErr.MissingDeps, "database (DB)")
	assert.Contains(t, initErr.MissingDeps, "audio decoder")
}

func TestSetDB_GetterRoundTrips(t *testing.T) {
	c := New()
	assert.Nil(t, c.DB())

	result := c.SetDB(nil)
	assert.Same(t, c, result, "setters should return the same container for chaining")
}

func TestCleanup_RunsInLIFOOrder(t *testing.T) {
	c := New()

	var order []int
	c.OnCleanup(func(ctx context.Context) error {
		order = append(order, 1)
		return nil
	})
	c.OnCleanup(func(ctx context.Context) error {
		order = append(order, 2)
		return nil
	})
	c.OnCleanup(func(ctx context.Context) error {
		order = append(order, 3)
		return nil
	})

	err := c.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestCleanup_ContinuesAfterFailure(t *testing.T) {
	c := New()

	ran := false
	c.OnCleanup(func(ctx context.Context) error {
		ran = true
		return nil
	})
	c.OnCleanup(func(ctx context.Context) error {
		return errors.New("last-registered cleanup failed")
	})

	err := c.Cleanup(context.Background())
	assert.NoError(t, err, "Cleanup logs per-hook errors but does not fail overall")
	assert.True(t, ran, "earlier-registered (later-run) hooks must still execute after a failure")
}

func TestLogger_FallsBackToPackageLogger(t *testing.T) {
	var err error
	logger.Log, err = zap.NewDevelopment()
	require.NoError(t, err)

	c := New()
	assert.Same(t, logger.Log, c.Logger())
}

func TestLogger_PrefersExplicitlySetLogger(t *testing.T) {
	custom := zap.NewNop()
	c := New()
	c.SetLogger(custom)
	assert.Same(t, custom, c.Logger())
}
