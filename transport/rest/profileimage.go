package rest

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/chatapp/chatapp"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Name of the multipart part holding uploaded image.
const profileImageFormKey = "profileImage"

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

type ProfileImageController struct {
	Store         chatapp.ProfileImageStore
	Locator       chatapp.ProfileImageLocator
	MetaStore     chatapp.ImageMetaStore
	ActivityStore chatapp.ActivityStore

	// Largest accepted image in bytes, 0 means no limit.
	MaxImageBytes int64
}

func (c *ProfileImageController) InstallTo(app *fiber.App) {
	app.Get("/profile-images/recent", c.serveRecent)
	app.Post("/profile-images/:user_id", c.serveUpload)
	app.Get("/profile-images/:user_id/url", c.serveUrl)
	app.Get("/profile-images/:user_id/meta", c.serveMeta)
}

func (c *ProfileImageController) serveUpload(ctx *fiber.Ctx) error {
	userId, err := userIdParam(ctx)
	if err != nil {
		return err
	}

	fileHeader, err := ctx.FormFile(profileImageFormKey)
	if err != nil {
		requestLog(ctx).WithError(err).Infoln("Missing profile image part.")
		return fiber.NewError(fiber.StatusBadRequest, "missing profile image")
	}
	if c.MaxImageBytes > 0 && fileHeader.Size > c.MaxImageBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "profile image too large")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("open uploaded profile image: %w", err)
	}
	defer file.Close()

	stored, err := c.Store.Store(ctx.Context(), userId, file)
	if err != nil {
		switch {
		case errors.Is(err, chatapp.ErrInvalidUserId):
			return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
		case errors.Is(err, chatapp.ErrImageInput):
			return fiber.NewError(fiber.StatusBadRequest, "unreadable profile image")
		default:
			return fmt.Errorf("store profile image: %w", err)
		}
	}

	uploadId := uuid.New().String()
	storedAt := time.Now().UTC()
	log := requestLog(ctx).
		WithField("user_id", userId).
		WithField("upload_id", uploadId).
		WithField("size", stored.Size)

	// image is already in place, bookkeeping failures don't fail the upload
	err = c.MetaStore.Put(chatapp.ImageMeta{
		UserId:   userId,
		UploadId: uploadId,
		Size:     stored.Size,
		Hash:     stored.Hash,
		StoredAt: storedAt,
	})
	if err != nil {
		log.WithError(err).Warningln("Could not save profile image meta.")
	}
	err = c.ActivityStore.AddLog(ctx.Context(), userId, chatapp.Activity{
		Name: chatapp.ActivityProfileImageStored,
		Data: map[string]interface{}{
			"upload_id": uploadId,
			"size":      stored.Size,
			"sha256":    stored.Hash,
		},
	})
	if err != nil {
		log.WithError(err).Warningln("Could not add profile image activity log.")
	}
	log.Infoln("Profile image stored.")

	return ctx.Status(fiber.StatusCreated).JSON(map[string]interface{}{
		"userId":   userId,
		"uploadId": uploadId,
		"path":     chatapp.ProfileImageRelPath(userId),
		"size":     stored.Size,
		"sha256":   stored.Hash,
	})
}

func (c *ProfileImageController) serveUrl(ctx *fiber.Ctx) error {
	userId, err := userIdParam(ctx)
	if err != nil {
		return err
	}

	lookup := c.Locator.Locate(ctx.Context(), userId)

	type UrlResponse struct {
		Status string `json:"status"`
		Url    string `json:"url"`
	}
	var status int
	switch lookup.Status {
	case chatapp.LookupFound:
		status = fiber.StatusOK
	case chatapp.LookupNotFound:
		status = fiber.StatusNotFound
	default:
		status = fiber.StatusServiceUnavailable
	}
	return ctx.Status(status).JSON(UrlResponse{
		Status: lookup.Status.String(),
		Url:    lookup.ProfileUrl(),
	})
}

type imageMetaResponse struct {
	UserId   chatapp.UserId `json:"userId"`
	UploadId string         `json:"uploadId"`
	Size     int64          `json:"size"`
	Hash     string         `json:"sha256"`
	StoredAt int64          `json:"storedAt"`
}

func toImageMetaResponse(meta chatapp.ImageMeta) imageMetaResponse {
	return imageMetaResponse{
		UserId:   meta.UserId,
		UploadId: meta.UploadId,
		Size:     meta.Size,
		Hash:     meta.Hash,
		StoredAt: meta.StoredAt.Unix(),
	}
}

func (c *ProfileImageController) serveMeta(ctx *fiber.Ctx) error {
	userId, err := userIdParam(ctx)
	if err != nil {
		return err
	}

	meta, err := c.MetaStore.ByUserId(userId)
	if err != nil {
		if errors.Is(err, chatapp.ErrImageMetaNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "profile image not found")
		} else {
			return fmt.Errorf("get image meta by user id: %w", err)
		}
	}
	return ctx.JSON(toImageMetaResponse(meta))
}

func (c *ProfileImageController) serveRecent(ctx *fiber.Ctx) error {
	limit, err := strconv.Atoi(ctx.Query("limit", strconv.Itoa(defaultRecentLimit)))
	if err != nil || limit <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid limit")
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	metas, err := c.MetaStore.Recent(limit)
	if err != nil {
		return fmt.Errorf("recent image metas: %w", err)
	}
	mapped := make([]imageMetaResponse, len(metas))
	for i, meta := range metas {
		mapped[i] = toImageMetaResponse(meta)
	}
	return ctx.JSON(mapped)
}
