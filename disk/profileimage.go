package disk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/chatapp/chatapp"
	"github.com/sirupsen/logrus"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Stores profile images as <Root>/<user id>/profile1.png.
type ProfileImageStore struct {
	Root string

	locks userLocks
}

var _ chatapp.ProfileImageStore = (*ProfileImageStore)(nil)

func NewProfileImageStore(root string) *ProfileImageStore {
	return &ProfileImageStore{Root: root}
}

func (s *ProfileImageStore) UserDir(userId chatapp.UserId) string {
	return filepath.Join(s.Root, userId.String())
}

func (s *ProfileImageStore) Path(userId chatapp.UserId) string {
	return filepath.Join(s.UserDir(userId), chatapp.ProfileImageName)
}

func (s *ProfileImageStore) Store(ctx context.Context, userId chatapp.UserId, r io.Reader) (chatapp.StoredImage, error) {
	if err := userId.Validate(); err != nil {
		return chatapp.StoredImage{}, err
	}
	if err := ctx.Err(); err != nil {
		return chatapp.StoredImage{}, err
	}

	unlock := s.locks.lock(userId)
	defer unlock()

	dir := s.UserDir(userId)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return chatapp.StoredImage{}, fmt.Errorf("%w: create user dir: %s", chatapp.ErrImageIO, err)
	}

	// Write next to the target and rename over it, so the fixed path
	// always holds either the previous or the new image.
	tmp, err := os.CreateTemp(dir, ".profile-*.tmp")
	if err != nil {
		return chatapp.StoredImage{}, fmt.Errorf("%w: create temp file: %s", chatapp.ErrImageIO, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if committed {
			return
		}
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			logrus.WithError(err).WithField("path", tmpPath).Warningln("Could not remove temp profile image.")
		}
	}()

	src := &sourceReader{r: r}
	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), src)
	if err != nil {
		tmp.Close()
		if src.err != nil {
			return chatapp.StoredImage{}, fmt.Errorf("%w: read upload: %s", chatapp.ErrImageInput, src.err)
		}
		return chatapp.StoredImage{}, fmt.Errorf("%w: write temp file: %s", chatapp.ErrImageIO, err)
	}
	if err := tmp.Close(); err != nil {
		return chatapp.StoredImage{}, fmt.Errorf("%w: close temp file: %s", chatapp.ErrImageIO, err)
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		return chatapp.StoredImage{}, fmt.Errorf("%w: chmod temp file: %s", chatapp.ErrImageIO, err)
	}

	target := filepath.Join(dir, chatapp.ProfileImageName)
	if err := os.Rename(tmpPath, target); err != nil {
		return chatapp.StoredImage{}, fmt.Errorf("%w: replace profile image: %s", chatapp.ErrImageIO, err)
	}
	committed = true

	return chatapp.StoredImage{
		UserId: userId,
		Path:   target,
		Size:   size,
		Hash:   hexSum(hasher),
	}, nil
}

func hexSum(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

// Remembers read error so it can be told apart from write errors after io.Copy.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		s.err = err
	}
	return n, err
}

type userLock struct {
	mutex sync.Mutex
	refs  int
}

// Per user mutexes. Entries live only while someone holds or waits for them.
type userLocks struct {
	mutex sync.Mutex
	locks map[chatapp.UserId]*userLock
}

func (l *userLocks) lock(userId chatapp.UserId) (unlock func()) {
	l.mutex.Lock()
	if l.locks == nil {
		l.locks = make(map[chatapp.UserId]*userLock)
	}
	ul, ok := l.locks[userId]
	if !ok {
		ul = &userLock{}
		l.locks[userId] = ul
	}
	ul.refs++
	l.mutex.Unlock()

	ul.mutex.Lock()
	return func() {
		ul.mutex.Unlock()

		l.mutex.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, userId)
		}
		l.mutex.Unlock()
	}
}
