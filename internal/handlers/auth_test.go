package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/dto"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type authTestEnv struct {
	db          *gorm.DB
	handler     *AuthHandler
	authService *services.AuthService
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("handler-test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
		&models.TaskComment{},
		&models.TaskAttachment{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	authService := services.NewAuthService(userRepo, 1)
	handler := NewAuthHandler(authService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return authTestEnv{
		db:          db,
		handler:     handler,
		authService: authService,
	}
}

type authResponse struct {
	Token string      `json:"token"`
	User  dto.UserDTO `json:"user"`
}

func registerPayload(username, email string) map[string]string {
	return map[string]string{
		"username":   username,
		"email":      email,
		"password":   "supersecret",
		"first_name": "Test",
		"last_name":  "User",
	}
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Register(t *testing.T) {
	env := setupAuthTestEnv(t)

	r := gin.New()
	r.POST("/api/auth/register", env.handler.Register)

	w := postJSON(t, r, "/api/auth/register", registerPayload("newuser", "new@example.com"))

	require.Equal(t, http.StatusCreated, w.Code)

	var response authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotEmpty(t, response.Token)
	require.Equal(t, "newuser", response.User.Username)
	require.Equal(t, models.UserRoleMember, response.User.Role)
	require.True(t, response.User.IsActive)

	// The token must round-trip through the verifier.
	claims, err := utils.ParseToken(response.Token)
	require.NoError(t, err)
	require.Equal(t, response.User.ID, claims.UserID)

	// The password hash never leaks into the response body.
	require.NotContains(t, w.Body.String(), "password")
}

func TestAuthHandler_RegisterDuplicate(t *testing.T) {
	env := setupAuthTestEnv(t)

	r := gin.New()
	r.POST("/api/auth/register", env.handler.Register)

	w := postJSON(t, r, "/api/auth/register", registerPayload("dupe", "dupe@example.com"))
	require.Equal(t, http.StatusCreated, w.Code)

	// Same email again.
	w = postJSON(t, r, "/api/auth/register", registerPayload("other", "dupe@example.com"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	require.Equal(t, "User already exists", apiErr.Message)

	// Same username again.
	w = postJSON(t, r, "/api/auth/register", registerPayload("dupe", "other@example.com"))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_RegisterMissingFields(t *testing.T) {
	env := setupAuthTestEnv(t)

	r := gin.New()
	r.POST("/api/auth/register", env.handler.Register)

	w := postJSON(t, r, "/api/auth/register", map[string]string{"username": "incomplete"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	require.Equal(t, "Missing required fields", apiErr.Message)
}

func TestAuthHandler_RegisterShortPassword(t *testing.T) {
	env := setupAuthTestEnv(t)

	r := gin.New()
	r.POST("/api/auth/register", env.handler.Register)

	payload := registerPayload("shorty", "shorty@example.com")
	payload["password"] = "12345"
	w := postJSON(t, r, "/api/auth/register", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, _, err := env.authService.Register(services.RegisterInput{
		Username:  "existing",
		Email:     "existing@example.com",
		Password:  "supersecret",
		FirstName: "Ex",
		LastName:  "Isting",
	})
	require.NoError(t, err)

	r := gin.New()
	r.POST("/api/auth/login", env.handler.Login)

	w := postJSON(t, r, "/api/auth/login", map[string]string{
		"email":    "existing@example.com",
		"password": "supersecret",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var response authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotEmpty(t, response.Token)
	require.Equal(t, "existing", response.User.Username)
	require.NotNil(t, response.User.LastLogin)
}

func TestAuthHandler_LoginBadCredentials(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, _, err := env.authService.Register(services.RegisterInput{
		Username:  "victim",
		Email:     "victim@example.com",
		Password:  "supersecret",
		FirstName: "Vic",
		LastName:  "Tim",
	})
	require.NoError(t, err)

	r := gin.New()
	r.POST("/api/auth/login", env.handler.Login)

	// Wrong password and unknown email must be indistinguishable.
	wrongPassword := postJSON(t, r, "/api/auth/login", map[string]string{
		"email":    "victim@example.com",
		"password": "wrongpassword",
	})
	unknownEmail := postJSON(t, r, "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "supersecret",
	})

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	require.JSONEq(t, wrongPassword.Body.String(), unknownEmail.Body.String())

	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(wrongPassword.Body.Bytes(), &apiErr))
	require.Equal(t, "Invalid credentials", apiErr.Message)
}

func TestAuthHandler_Me(t *testing.T) {
	env := setupAuthTestEnv(t)

	user, _, err := env.authService.Register(services.RegisterInput{
		Username:  "current-user",
		Email:     "current@example.com",
		Password:  "supersecret",
		FirstName: "Cur",
		LastName:  "Rent",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(constants.ContextKeyUserID, user.ID)

	env.handler.Me(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		User dto.UserDTO `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, user.Username, response.User.Username)
}
