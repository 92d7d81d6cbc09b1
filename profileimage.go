package chatapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
)

// Fixed file name of every stored profile image. One image per user,
// each store overwrites the previous one.
const ProfileImageName = "profile1.png"

var (
	ErrInvalidUserId = errors.New("invalid user id")

	// Filesystem failure (directory creation, write, rename).
	ErrImageIO = errors.New("profile image io failure")

	// Upload stream could not be read.
	ErrImageInput = errors.New("profile image input failure")

	// Probe answered with a status that is neither found nor not found.
	ErrUnexpectedStatus = errors.New("unexpected probe status")
)

type UserId int64

func (id UserId) Validate() error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidUserId, id)
	}
	return nil
}

func (id UserId) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Path of user's profile image relative to the profile image root
// (and to the public profile-images url prefix).
func ProfileImageRelPath(userId UserId) string {
	return path.Join(userId.String(), ProfileImageName)
}

type StoredImage struct {
	UserId UserId
	Path   string // absolute path of the written file
	Size   int64
	Hash   string // hex encoded sha256 of written bytes
}

type ProfileImageStore interface {
	// Store image read from r as the user's only profile image.
	// Errors wrap ErrInvalidUserId, ErrImageInput or ErrImageIO.
	Store(ctx context.Context, userId UserId, r io.Reader) (StoredImage, error)
}

type LookupStatus byte

const (
	LookupNotFound LookupStatus = 0
	LookupFound    LookupStatus = 1
	LookupError    LookupStatus = 2
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not_found"
	case LookupError:
		return "lookup_error"
	default:
		return "unknown"
	}
}

// Result of profile image lookup. Url is set only when Status is LookupFound,
// Err only when Status is LookupError.
type Lookup struct {
	Status LookupStatus
	Url    string
	Err    error
}

func Found(url string) Lookup {
	return Lookup{Status: LookupFound, Url: url}
}

func NotFound() Lookup {
	return Lookup{Status: LookupNotFound}
}

func LookupFailed(err error) Lookup {
	return Lookup{Status: LookupError, Err: err}
}

// Url of the profile image or empty string when it was not found
// or the lookup failed.
func (l Lookup) ProfileUrl() string {
	if l.Status != LookupFound {
		return ""
	}
	return l.Url
}

type ProfileImageLocator interface {
	// Locate never fails outward, lookup errors are reported in the result.
	Locate(ctx context.Context, userId UserId) Lookup
}
