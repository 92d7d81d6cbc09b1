package disk

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/chatapp/chatapp"
	"github.com/stretchr/testify/assert"
)

func fakePng(size int, fill byte) []byte {
	data := bytes.Repeat([]byte{fill}, size)
	copy(data, []byte("\x89PNG\r\n\x1a\n"))
	return data
}

func TestProfileImageStore(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	root := t.TempDir()

	store := NewProfileImageStore(root)
	image := fakePng(10*1024, 0x11)

	stored, err := store.Store(ctx, 42, bytes.NewReader(image))
	if !assert.NoError(err) {
		return
	}
	expectedPath := filepath.Join(root, "42", "profile1.png")
	sum := sha256.Sum256(image)
	assert.Equal(chatapp.StoredImage{
		UserId: 42,
		Path:   expectedPath,
		Size:   int64(len(image)),
		Hash:   hex.EncodeToString(sum[:]),
	}, stored)
	assert.Equal(expectedPath, store.Path(42))

	content, err := ioutil.ReadFile(expectedPath)
	if assert.NoError(err) {
		assert.Equal(image, content)
	}
}

func TestProfileImageStoreOverwrite(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	root := t.TempDir()
	store := NewProfileImageStore(root)

	first := fakePng(2048, 0x01)
	second := fakePng(512, 0x02)
	_, err := store.Store(ctx, 7, bytes.NewReader(first))
	if !assert.NoError(err) {
		return
	}
	_, err = store.Store(ctx, 7, bytes.NewReader(second))
	if !assert.NoError(err) {
		return
	}

	entries, err := os.ReadDir(filepath.Join(root, "7"))
	if !assert.NoError(err) {
		return
	}
	if assert.Len(entries, 1) {
		assert.Equal("profile1.png", entries[0].Name())
	}
	content, err := ioutil.ReadFile(store.Path(7))
	if assert.NoError(err) {
		assert.Equal(second, content)
	}
}

func TestProfileImageStoreInvalidUserId(t *testing.T) {
	assert := assert.New(t)
	root := t.TempDir()
	store := NewProfileImageStore(root)

	for _, uid := range []chatapp.UserId{0, -1} {
		_, err := store.Store(context.Background(), uid, bytes.NewReader(fakePng(16, 0)))
		assert.ErrorIs(err, chatapp.ErrInvalidUserId, "uid: %d", uid)
	}
	entries, err := os.ReadDir(root)
	if assert.NoError(err) {
		assert.Empty(entries)
	}
}

func TestProfileImageStoreDirCreateFailure(t *testing.T) {
	assert := assert.New(t)
	base := t.TempDir()

	// root is a regular file, so no user dir can be created below it
	root := filepath.Join(base, "profile-images")
	if !assert.NoError(ioutil.WriteFile(root, []byte("not a dir"), 0o644)) {
		return
	}
	store := NewProfileImageStore(root)

	_, err := store.Store(context.Background(), 42, bytes.NewReader(fakePng(64, 0)))
	assert.ErrorIs(err, chatapp.ErrImageIO)
	assert.False(errors.Is(err, chatapp.ErrImageInput))
}

func TestProfileImageStoreInputFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	root := t.TempDir()
	store := NewProfileImageStore(root)

	previous := fakePng(256, 0x05)
	_, err := store.Store(ctx, 9, bytes.NewReader(previous))
	if !assert.NoError(err) {
		return
	}

	broken := iotest.TimeoutReader(bytes.NewReader(fakePng(64*1024, 0x06)))
	_, err = store.Store(ctx, 9, broken)
	assert.ErrorIs(err, chatapp.ErrImageInput)
	assert.False(errors.Is(err, chatapp.ErrImageIO))

	// previous image is intact and no temp file is left behind
	content, err := ioutil.ReadFile(store.Path(9))
	if assert.NoError(err) {
		assert.Equal(previous, content)
	}
	entries, err := os.ReadDir(store.UserDir(9))
	if assert.NoError(err) {
		assert.Len(entries, 1)
	}
}

func TestProfileImageStoreCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewProfileImageStore(t.TempDir())
	_, err := store.Store(ctx, 3, bytes.NewReader(fakePng(16, 0)))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProfileImageStoreConcurrentSameUser(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	root := t.TempDir()
	store := NewProfileImageStore(root)

	images := make([][]byte, 8)
	for i := range images {
		images[i] = fakePng(32*1024, byte(i+1))
	}

	var wg sync.WaitGroup
	for _, image := range images {
		wg.Add(1)
		go func(image []byte) {
			defer wg.Done()
			_, err := store.Store(ctx, 11, bytes.NewReader(image))
			assert.NoError(err)
		}(image)
	}
	wg.Wait()

	// last writer wins, but the file is always one whole upload
	content, err := ioutil.ReadFile(store.Path(11))
	if !assert.NoError(err) {
		return
	}
	assert.Contains(images, content)

	entries, err := os.ReadDir(store.UserDir(11))
	if assert.NoError(err) {
		assert.Len(entries, 1)
	}
	assert.Empty(store.locks.locks)
}
