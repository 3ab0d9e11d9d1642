package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-training/internal/errs"
)

func TestLocal_RoundTrip(t *testing.T) {
	a, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, a.Put(ctx, "doc-123", []byte("MISFIRE PROCEDURES")))
	got, err := a.Get(ctx, "doc-123")
	require.NoError(t, err)
	assert.Equal(t, "MISFIRE PROCEDURES", string(got))

	require.NoError(t, a.Put(ctx, "doc-123", []byte("replaced")))
	got, err = a.Get(ctx, "doc-123")
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(got))

	require.NoError(t, a.Delete(ctx, "doc-123"))
	require.NoError(t, a.Delete(ctx, "doc-123"))

	_, err = a.Get(ctx, "doc-123")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestObjectKey(t *testing.T) {
	k, err := objectKey("abcdef")
	require.NoError(t, err)
	assert.Equal(t, "ab/abcdef.txt", k)

	for _, bad := range []string{"", "..", "a/b", `a\b`} {
		_, err := objectKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestNew_None(t *testing.T) {
	a, err := New(context.Background(), Config{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, a)

	_, err = New(context.Background(), Config{Type: "ftp"})
	assert.Error(t, err)
}
