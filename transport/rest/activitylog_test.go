package rest

import (
	"context"
	"io/ioutil"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chatapp/chatapp"
	"github.com/chatapp/chatapp/mock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestActivityController(t *testing.T) {
	var requestedUserId chatapp.UserId
	store := &mock.ActivityStore{
		ByUserIdFn: func(ctx context.Context, userId chatapp.UserId) ([]chatapp.ActivityLog, error) {
			requestedUserId = userId
			return []chatapp.ActivityLog{
				{
					Id:        2,
					CreatedAt: time.Date(2022, 1, 1, 16, 0, 0, 0, time.UTC),
					UserId:    22,
					Name:      chatapp.ActivityProfileImageStored,
					Data: map[string]interface{}{
						"size":      512,
						"upload_id": "b",
					},
				},
				{
					Id:        1,
					CreatedAt: time.Date(2022, 1, 1, 15, 0, 0, 0, time.UTC),
					UserId:    22,
					Name:      "imported",
				},
			}, nil
		},
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	controller := ActivityController{
		Store: store,
	}
	controller.InstallTo(app)

	req := httptest.NewRequest("GET", "/profile-images/22/activities", nil)
	resp, err := app.Test(req)
	if !assert.NoError(t, err) {
		return
	}
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, chatapp.UserId(22), requestedUserId)
	assert.Equal(t, `[{"id":2,"createdAt":1641052800,"name":"profile_image_stored","data":{"size":512,"upload_id":"b"}},`+
		`{"id":1,"createdAt":1641049200,"name":"imported"}]`,
		string(body))
}

func TestActivityControllerInvalidUserId(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	controller := ActivityController{Store: &mock.ActivityStore{}}
	controller.InstallTo(app)

	for _, path := range []string{"/profile-images/abc/activities", "/profile-images/0/activities"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if assert.NoError(t, err, path) {
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, path)
			resp.Body.Close()
		}
	}
}
