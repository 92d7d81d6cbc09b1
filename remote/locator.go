package remote

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/chatapp/chatapp"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

const (
	DefaultServicePath    = "ChatApp-Backend"
	DefaultConnectTimeout = 5 * time.Second
	DefaultReadTimeout    = 5 * time.Second

	profileImagesDir = "profile-images"
)

// Locates profile images by probing the static serving layer with HEAD requests.
type ImageLocator struct {
	// Public base address of the serving layer e.g. https://chat.example.com.
	BaseUrl     string
	ServicePath string

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

var _ chatapp.ProfileImageLocator = (*ImageLocator)(nil)

func NewImageLocator(baseUrl string) *ImageLocator {
	return &ImageLocator{
		BaseUrl:        baseUrl,
		ServicePath:    DefaultServicePath,
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
	}
}

// Public url of user's profile image. Profile image may not exist.
func (l *ImageLocator) CandidateUrl(userId chatapp.UserId) (string, error) {
	base, err := url.Parse(strings.TrimSpace(l.BaseUrl))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return "", fmt.Errorf("unsupported base url scheme %q", base.Scheme)
	}
	if base.Host == "" {
		return "", fmt.Errorf("base url %q has no host", l.BaseUrl)
	}
	base.Path = path.Join("/", base.Path, l.ServicePath, profileImagesDir, chatapp.ProfileImageRelPath(userId))
	base.RawQuery = ""
	base.Fragment = ""
	return base.String(), nil
}

func (l *ImageLocator) Locate(ctx context.Context, userId chatapp.UserId) chatapp.Lookup {
	log := logrus.WithField("user_id", userId)

	candidate, err := l.CandidateUrl(userId)
	if err != nil {
		log.WithError(err).Warningln("Could not build profile image url.")
		return chatapp.LookupFailed(err)
	}
	if err := ctx.Err(); err != nil {
		return chatapp.LookupFailed(err)
	}

	statusCode, err := l.head(candidate)
	if err != nil {
		log.WithError(err).WithField("url", candidate).Warningln("Profile image probe failed.")
		return chatapp.LookupFailed(err)
	}

	switch statusCode {
	case fiber.StatusOK:
		return chatapp.Found(candidate)
	case fiber.StatusNotFound, fiber.StatusGone:
		return chatapp.NotFound()
	default:
		err := fmt.Errorf("%w %d", chatapp.ErrUnexpectedStatus, statusCode)
		log.WithError(err).WithField("url", candidate).Warningln("Profile image probe failed.")
		return chatapp.LookupFailed(err)
	}
}

// Existence probe, transfers no body.
func (l *ImageLocator) head(rawUrl string) (int, error) {
	agent := fiber.AcquireAgent()

	req := agent.Request()
	req.Header.SetMethod(fiber.MethodHead)
	req.SetRequestURI(rawUrl)

	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return 0, fmt.Errorf("agent parse: %w", err)
	}

	connectTimeout := l.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	readTimeout := l.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	agent.HostClient.Dial = func(addr string) (net.Conn, error) {
		return fasthttp.DialTimeout(addr, connectTimeout)
	}
	agent.HostClient.ReadTimeout = readTimeout
	agent.HostClient.MaxIdleConnDuration = time.Second

	// Bytes releases the agent.
	statusCode, _, errs := agent.Bytes()
	if len(errs) != 0 {
		return 0, fmt.Errorf("agent bytes: %v", errs)
	}
	return statusCode, nil
}
