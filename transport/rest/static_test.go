package rest

import (
	"bytes"
	"context"
	"io/ioutil"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/chatapp/chatapp/disk"
	"github.com/chatapp/chatapp/remote"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func newServingApp(root string) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	InstallProfileImageServing(app, remote.DefaultServicePath, root)
	app.Use(NotFoundHandler)
	return app
}

func fetch(t *testing.T, app *fiber.App, method string, target string) (int, []byte) {
	resp, err := app.Test(httptest.NewRequest(method, target, nil), -1)
	if !assert.NoError(t, err) {
		return 0, nil
	}
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	assert.NoError(t, err)
	return resp.StatusCode, body
}

func TestProfileImageServingAfterOverwrite(t *testing.T) {
	assert := assert.New(t)
	root := t.TempDir()
	store := disk.NewProfileImageStore(root)
	app := newServingApp(root)
	const url = "/ChatApp-Backend/profile-images/7/profile1.png"

	first := bytes.Repeat([]byte{0x01}, 100)
	_, err := store.Store(context.Background(), 7, bytes.NewReader(first))
	if !assert.NoError(err) {
		return
	}
	status, body := fetch(t, app, "GET", url)
	assert.Equal(fiber.StatusOK, status)
	assert.Equal(first, body)

	second := bytes.Repeat([]byte{0x02}, 50)
	_, err = store.Store(context.Background(), 7, bytes.NewReader(second))
	if !assert.NoError(err) {
		return
	}
	status, body = fetch(t, app, "GET", url)
	assert.Equal(fiber.StatusOK, status)
	assert.Equal(second, body)
}

func TestProfileImageServing(t *testing.T) {
	assert := assert.New(t)
	root := t.TempDir()
	store := disk.NewProfileImageStore(root)
	app := newServingApp(root)

	_, err := store.Store(context.Background(), 7, bytes.NewReader([]byte("png")))
	if !assert.NoError(err) {
		return
	}
	// leftover of an upload in progress
	tmpPath := filepath.Join(root, "7", ".profile-123.tmp")
	if !assert.NoError(os.WriteFile(tmpPath, []byte("partial"), 0o644)) {
		return
	}

	useCases := []struct {
		method     string
		target     string
		returnCode int
	}{
		{"GET", "/ChatApp-Backend/profile-images/7/profile1.png", fiber.StatusOK},
		{"HEAD", "/ChatApp-Backend/profile-images/7/profile1.png", fiber.StatusOK},
		{"HEAD", "/ChatApp-Backend/profile-images/8/profile1.png", fiber.StatusNotFound},
		{"GET", "/ChatApp-Backend/profile-images/x/profile1.png", fiber.StatusNotFound},
		{"GET", "/ChatApp-Backend/profile-images/-7/profile1.png", fiber.StatusNotFound},
		{"GET", "/ChatApp-Backend/profile-images/7/.profile-123.tmp", fiber.StatusNotFound},
		{"GET", "/ChatApp-Backend/profile-images/7/", fiber.StatusNotFound},
	}
	for _, useCase := range useCases {
		status, _ := fetch(t, app, useCase.method, useCase.target)
		assert.Equal(useCase.returnCode, status, useCase.method+" "+useCase.target)
	}
}
