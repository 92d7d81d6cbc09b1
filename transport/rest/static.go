package rest

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/chatapp/chatapp"
	"github.com/gofiber/fiber/v2"
)

// Public url prefix of stored profile images, the one probed by remote.ImageLocator.
func ProfileImagesPrefix(servicePath string) string {
	return path.Join("/", servicePath, "profile-images")
}

// Serve stored profile images under ProfileImagesPrefix. Only the fixed image
// name is reachable, temp files of uploads in progress are not. The file is
// opened on every request so an overwrite is served as soon as Store returns.
func InstallProfileImageServing(app *fiber.App, servicePath string, root string) {
	route := ProfileImagesPrefix(servicePath) + "/:user_id/" + chatapp.ProfileImageName
	app.Get(route, func(ctx *fiber.Ctx) error {
		userId, err := userIdParam(ctx)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound)
		}
		return sendProfileImage(ctx, filepath.Join(root, filepath.FromSlash(chatapp.ProfileImageRelPath(userId))))
	})
}

func sendProfileImage(ctx *fiber.Ctx, imagePath string) error {
	file, err := os.Open(imagePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fiber.NewError(fiber.StatusNotFound)
		}
		return fmt.Errorf("open profile image: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat profile image: %w", err)
	}

	ctx.Type("png")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	// response closes the file once it is written
	return ctx.SendStream(file, int(stat.Size()))
}
