package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/database"
	"github.com/yukikurage/project-management-api/internal/dto"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ProjectHandlerTestSuite defines the test suite for ProjectHandler
type ProjectHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	handler *ProjectHandler
}

// SetupTest runs before each test
func (suite *ProjectHandlerTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
		&models.TaskComment{},
		&models.TaskAttachment{},
	)
	suite.Require().NoError(err)

	database.SetDB(suite.db)

	projectRepo := repository.NewProjectRepository(suite.db)
	taskRepo := repository.NewTaskRepository(suite.db)
	projectService := services.NewProjectService(projectRepo, taskRepo)
	suite.handler = NewProjectHandler(projectService)

	gin.SetMode(gin.TestMode)
}

// TearDownTest runs after each test
func (suite *ProjectHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *ProjectHandlerTestSuite) createTestUser(username string) *models.User {
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword",
		FirstName:    "Test",
		LastName:     "User",
		Role:         models.UserRoleMember,
		IsActive:     true,
	}
	suite.db.Create(user)
	return user
}

func (suite *ProjectHandlerTestSuite) createTestProject(name string, owner *models.User, members ...models.ProjectMember) *models.Project {
	project := &models.Project{
		Name:     name,
		OwnerID:  owner.ID,
		Status:   models.ProjectStatusActive,
		Priority: models.ProjectPriorityMedium,
		IsActive: true,
		Members:  members,
	}
	suite.db.Create(project)
	return project
}

// routerAs builds a router whose requests run as the given user
func (suite *ProjectHandlerTestSuite) routerAs(userID uint64) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	})
	r.GET("/api/projects", suite.handler.ListProjects)
	r.POST("/api/projects", suite.handler.CreateProject)
	r.GET("/api/projects/:id", suite.handler.GetProject)
	r.PUT("/api/projects/:id", suite.handler.UpdateProject)
	return r
}

func (suite *ProjectHandlerTestSuite) request(r *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		suite.Require().NoError(err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func (suite *ProjectHandlerTestSuite) TestCreateProject() {
	owner := suite.createTestUser("owner")
	r := suite.routerAs(owner.ID)

	w := suite.request(r, http.MethodPost, "/api/projects", map[string]any{
		"name":         "New Project",
		"description":  "something to build",
		"tags":         []string{"backend"},
		"technologies": []string{"go"},
	})

	suite.Equal(http.StatusCreated, w.Code)

	var response struct {
		Project dto.ProjectDTO `json:"project"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Equal("New Project", response.Project.Name)
	suite.Equal(owner.ID, response.Project.OwnerID)
	suite.Equal(models.ProjectStatusActive, response.Project.Status)
	suite.Equal(models.ProjectPriorityMedium, response.Project.Priority)

	// The creator is seeded as a project_manager member.
	suite.Require().Len(response.Project.Members, 1)
	suite.Equal(owner.ID, response.Project.Members[0].User.ID)
	suite.Equal(models.RoleProjectManager, response.Project.Members[0].Role)
}

func (suite *ProjectHandlerTestSuite) TestCreateProjectWithoutName() {
	owner := suite.createTestUser("owner")
	r := suite.routerAs(owner.ID)

	w := suite.request(r, http.MethodPost, "/api/projects", map[string]any{
		"description": "missing the name",
	})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *ProjectHandlerTestSuite) TestListProjectsFiltersByAccess() {
	owner := suite.createTestUser("owner")
	member := suite.createTestUser("member")
	stranger := suite.createTestUser("stranger")

	suite.createTestProject("Owned", owner)
	suite.createTestProject("Shared", owner, models.ProjectMember{
		UserID: member.ID, Role: models.RoleDeveloper, JoinedAt: time.Now(),
	})

	type listResponse struct {
		Projects []dto.ProjectDTO `json:"projects"`
	}

	// The owner sees both projects.
	w := suite.request(suite.routerAs(owner.ID), http.MethodGet, "/api/projects", nil)
	suite.Equal(http.StatusOK, w.Code)
	var ownerList listResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &ownerList))
	suite.Len(ownerList.Projects, 2)

	// The member sees only the shared project.
	w = suite.request(suite.routerAs(member.ID), http.MethodGet, "/api/projects", nil)
	suite.Equal(http.StatusOK, w.Code)
	var memberList listResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &memberList))
	suite.Require().Len(memberList.Projects, 1)
	suite.Equal("Shared", memberList.Projects[0].Name)

	// The stranger sees nothing.
	w = suite.request(suite.routerAs(stranger.ID), http.MethodGet, "/api/projects", nil)
	suite.Equal(http.StatusOK, w.Code)
	var strangerList listResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &strangerList))
	suite.Len(strangerList.Projects, 0)
}

func (suite *ProjectHandlerTestSuite) TestGetProjectIncludesTasks() {
	owner := suite.createTestUser("owner")
	project := suite.createTestProject("With Tasks", owner)

	task := &models.Task{
		Title:       "First task",
		ProjectID:   project.ID,
		CreatedByID: owner.ID,
		Status:      models.TaskStatusTodo,
		Priority:    models.TaskPriorityMedium,
		Type:        models.TaskTypeFeature,
		IsActive:    true,
	}
	suite.db.Create(task)

	w := suite.request(suite.routerAs(owner.ID), http.MethodGet, "/api/projects/1", nil)
	suite.Equal(http.StatusOK, w.Code)

	var response struct {
		Project dto.ProjectDTO `json:"project"`
		Tasks   []dto.TaskDTO  `json:"tasks"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Equal("With Tasks", response.Project.Name)
	suite.Require().Len(response.Tasks, 1)
	suite.Equal("First task", response.Tasks[0].Title)
}

func (suite *ProjectHandlerTestSuite) TestGetProjectDeniedForStranger() {
	owner := suite.createTestUser("owner")
	stranger := suite.createTestUser("stranger")
	suite.createTestProject("Private", owner)

	w := suite.request(suite.routerAs(stranger.ID), http.MethodGet, "/api/projects/1", nil)
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *ProjectHandlerTestSuite) TestGetProjectNotFound() {
	user := suite.createTestUser("anyone")

	w := suite.request(suite.routerAs(user.ID), http.MethodGet, "/api/projects/999", nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *ProjectHandlerTestSuite) TestUpdateProjectByProjectManager() {
	owner := suite.createTestUser("owner")
	manager := suite.createTestUser("manager")
	suite.createTestProject("Managed", owner, models.ProjectMember{
		UserID: manager.ID, Role: models.RoleProjectManager, JoinedAt: time.Now(),
	})

	w := suite.request(suite.routerAs(manager.ID), http.MethodPut, "/api/projects/1", map[string]any{
		"status":   "completed",
		"progress": 100,
	})
	suite.Equal(http.StatusOK, w.Code)

	var response struct {
		Project dto.ProjectDTO `json:"project"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Equal(models.ProjectStatusCompleted, response.Project.Status)
	suite.Equal(100, response.Project.Progress)
}

func (suite *ProjectHandlerTestSuite) TestUpdateProjectDeniedForDeveloper() {
	owner := suite.createTestUser("owner")
	dev := suite.createTestUser("dev")
	suite.createTestProject("Locked", owner, models.ProjectMember{
		UserID: dev.ID, Role: models.RoleDeveloper, JoinedAt: time.Now(),
	})

	w := suite.request(suite.routerAs(dev.ID), http.MethodPut, "/api/projects/1", map[string]any{
		"name": "Renamed",
	})
	suite.Equal(http.StatusForbidden, w.Code)

	// A developer can still read the project they cannot mutate.
	w = suite.request(suite.routerAs(dev.ID), http.MethodGet, "/api/projects/1", nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *ProjectHandlerTestSuite) TestUpdateProjectReplacesMembers() {
	owner := suite.createTestUser("owner")
	oldMember := suite.createTestUser("old")
	newMember := suite.createTestUser("new")
	suite.createTestProject("Rotating", owner, models.ProjectMember{
		UserID: oldMember.ID, Role: models.RoleDeveloper, JoinedAt: time.Now(),
	})

	w := suite.request(suite.routerAs(owner.ID), http.MethodPut, "/api/projects/1", map[string]any{
		"members": []map[string]any{
			{"user_id": newMember.ID, "role": "tester"},
		},
	})
	suite.Equal(http.StatusOK, w.Code)

	var response struct {
		Project dto.ProjectDTO `json:"project"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Require().Len(response.Project.Members, 1)
	suite.Equal(newMember.ID, response.Project.Members[0].User.ID)
	suite.Equal(models.RoleTester, response.Project.Members[0].Role)

	// The removed member loses access.
	w = suite.request(suite.routerAs(oldMember.ID), http.MethodGet, "/api/projects/1", nil)
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *ProjectHandlerTestSuite) TestUpdateProjectInvalidProgress() {
	owner := suite.createTestUser("owner")
	suite.createTestProject("Bounded", owner)

	w := suite.request(suite.routerAs(owner.ID), http.MethodPut, "/api/projects/1", map[string]any{
		"progress": 150,
	})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *ProjectHandlerTestSuite) TestUpdateProjectRollsBackOnMemberFailure() {
	owner := suite.createTestUser("owner")
	dupe := suite.createTestUser("dupe")
	suite.createTestProject("Atomic", owner)

	// Listing the same user twice violates the member table's composite
	// primary key, which must roll the whole update back.
	w := suite.request(suite.routerAs(owner.ID), http.MethodPut, "/api/projects/1", map[string]any{
		"name": "Renamed",
		"members": []map[string]any{
			{"user_id": dupe.ID, "role": "developer"},
			{"user_id": dupe.ID, "role": "tester"},
		},
	})
	suite.Equal(http.StatusInternalServerError, w.Code)

	// The column update must not survive the failed member replacement.
	var project models.Project
	suite.Require().NoError(suite.db.First(&project, 1).Error)
	suite.Equal("Atomic", project.Name)
}

func (suite *ProjectHandlerTestSuite) TestUpdateProjectIdempotent() {
	owner := suite.createTestUser("owner")
	suite.createTestProject("Repeated", owner)

	payload := map[string]any{
		"name":     "Renamed",
		"status":   "on_hold",
		"progress": 40,
	}

	type updateResponse struct {
		Project dto.ProjectDTO `json:"project"`
	}

	w := suite.request(suite.routerAs(owner.ID), http.MethodPut, "/api/projects/1", payload)
	suite.Equal(http.StatusOK, w.Code)
	var first updateResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &first))

	// The same body again lands on the same record state.
	w = suite.request(suite.routerAs(owner.ID), http.MethodPut, "/api/projects/1", payload)
	suite.Equal(http.StatusOK, w.Code)
	var second updateResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &second))

	suite.Equal(first.Project.Name, second.Project.Name)
	suite.Equal(first.Project.Status, second.Project.Status)
	suite.Equal(first.Project.Progress, second.Project.Progress)
	suite.Equal(first.Project.OwnerID, second.Project.OwnerID)
}

func TestProjectHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectHandlerTestSuite))
}
