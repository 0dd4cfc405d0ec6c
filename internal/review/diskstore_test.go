package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkallio/photoguard-go/internal/datastore"
)

func TestDiskImageStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewDiskImageStore(t.TempDir())
	require.NoError(t, err)

	entry := &datastore.Entry{ID: 7, Filename: "holiday.jpg"}
	data := []byte{0xff, 0xd8, 0xff, 0xe0}
	require.NoError(t, store.Save(context.Background(), entry, data))

	loaded, err := store.Load(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, data, loaded)
}

func TestDiskImageStore_FilenameIsNotAPathComponent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewDiskImageStore(dir)
	require.NoError(t, err)

	entry := &datastore.Entry{ID: 3, Filename: "../../etc/passwd"}
	require.NoError(t, store.Save(context.Background(), entry, []byte("x")))

	loaded, err := store.Load(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), loaded)
}

func TestDiskImageStore_LoadMissing(t *testing.T) {
	t.Parallel()

	store, err := NewDiskImageStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), &datastore.Entry{ID: 99, Filename: "gone.png"})
	require.Error(t, err)
}
