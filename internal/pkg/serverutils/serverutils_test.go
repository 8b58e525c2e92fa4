package serverutils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"messaging-be/internal/pkg/apperror"
	"messaging-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestApp() *fiber.App {
	log := logger.NewNopLogger()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	app.Use(ErrorHandlerMiddleware(log))
	return app
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestJwtMiddleware(t *testing.T) {
	app := newTestApp()
	app.Get("/me", NewJwtMiddleware(testSecret), func(ctx *fiber.Ctx) error {
		uid, err := CurrentUserID(ctx)
		if err != nil {
			return err
		}
		return ctx.JSON(SuccessResponse("ok", uid.String()))
	})

	userId := uuid.New()
	token, err := IssueToken(testSecret, userId, time.Hour)
	require.NoError(t, err)
	forged, err := IssueToken("other-secret", userId, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"forged", "Bearer " + forged, http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == http.StatusOK {
				assert.Equal(t, userId.String(), decode(t, resp)["data"])
			}
		})
	}
}

func TestErrorHandlerMapsAppErrors(t *testing.T) {
	app := newTestApp()
	app.Get("/denied", func(ctx *fiber.Ctx) error {
		return apperror.PermissionDenied("not yours")
	})
	app.Get("/boom", func(ctx *fiber.Ctx) error {
		return assert.AnError
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/denied", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "PERMISSION_DENIED", body["error"])
	assert.Equal(t, false, body["success"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", decode(t, resp)["message"])
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Content string    `validate:"required"`
		To      uuid.UUID `validate:"required"`
	}

	assert.NoError(t, ValidateRequest(req{Content: "hi", To: uuid.New()}))

	err := ValidateRequest(req{})
	require.Error(t, err)
	appErr := apperror.From(err)
	assert.Equal(t, apperror.CodeInvalidArgument, appErr.Code)
	fields, ok := appErr.Details.([]FieldError)
	require.True(t, ok)
	assert.Len(t, fields, 2)
}

func TestSuccessResponseKeepsEmptyList(t *testing.T) {
	raw, err := json.Marshal(SuccessResponse("empty", []string{}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"code":200,"message":"empty","data":[]}`, string(raw))
}
