package rest

import (
	"fmt"

	"github.com/chatapp/chatapp"
	"github.com/gofiber/fiber/v2"
)

type ActivityController struct {
	Store chatapp.ActivityStore
}

func (c *ActivityController) InstallTo(app *fiber.App) {
	app.Get("/profile-images/:user_id/activities", c.serveActivities)
}

func (c *ActivityController) serveActivities(ctx *fiber.Ctx) error {
	userId, err := userIdParam(ctx)
	if err != nil {
		return err
	}
	logs, err := c.Store.ByUserId(ctx.Context(), userId)
	if err != nil {
		return fmt.Errorf("get logs by user id: %w", err)
	}

	type Log struct {
		Id        int64                  `json:"id"`
		CreatedAt int64                  `json:"createdAt"`
		Name      string                 `json:"name"`
		Data      map[string]interface{} `json:"data,omitempty"`
	}
	mapped := make([]Log, len(logs))
	for i, log := range logs {
		mapped[i] = Log{Id: log.Id, CreatedAt: log.CreatedAt.Unix(), Name: log.Name, Data: log.Data}
	}
	return ctx.JSON(mapped)
}
