// Package authz holds the access rules for projects, tasks and user
// profiles. Every function is a pure predicate over already-loaded records:
// nothing here touches the database, the request context or any other
// process state, so the package is safe to call concurrently and trivial to
// test without I/O.
//
// Decisions are ternary. Callers must be able to tell "exists but denied"
// (403) apart from "does not exist" (404), so a plain bool is not enough.
package authz

import "github.com/yukikurage/project-management-api/internal/models"

type Decision int

const (
	Allowed Decision = iota
	Forbidden
	NotFound
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	}
	return "unknown"
}

// ViewProject reports whether the user may read a project: the owner and
// every member qualify, regardless of role. Ownership and membership are
// independent conditions; an owner who is not listed as a member still
// passes.
func ViewProject(userID uint64, project *models.Project) Decision {
	if project == nil {
		return NotFound
	}
	if project.OwnerID == userID || isMember(userID, project) {
		return Allowed
	}
	return Forbidden
}

// MutateProject reports whether the user may update a project, including its
// status, priority and member list: the owner, or a member whose role is
// exactly project_manager. Any other role string, known or not, is
// non-privileged.
func MutateProject(userID uint64, project *models.Project) Decision {
	if project == nil {
		return NotFound
	}
	if project.OwnerID == userID {
		return Allowed
	}
	if role, ok := memberRole(userID, project); ok && role == models.RoleProjectManager {
		return Allowed
	}
	return Forbidden
}

// CreateTask reports whether the user may create tasks inside a project.
// Any member or the owner qualifies; role is irrelevant.
func CreateTask(userID uint64, project *models.Project) Decision {
	return ViewProject(userID, project)
}

// ViewTask reports whether the user may read a task: the assignee and the
// creator always may; anyone else falls back to the view rule of the task's
// project. A task whose project record is missing is never silently
// readable.
func ViewTask(userID uint64, task *models.Task, project *models.Project) Decision {
	if task == nil {
		return NotFound
	}
	if isAssigneeOrCreator(userID, task) {
		return Allowed
	}
	if project == nil {
		return Forbidden
	}
	return ViewProject(userID, project)
}

// MutateTask reports whether the user may update a task, including its
// status: the assignee and the creator always may; anyone else needs project
// mutation rights (owner or project_manager). A plain member without
// assignment or authorship cannot mutate.
func MutateTask(userID uint64, task *models.Task, project *models.Project) Decision {
	if task == nil {
		return NotFound
	}
	if isAssigneeOrCreator(userID, task) {
		return Allowed
	}
	if project == nil {
		return Forbidden
	}
	return MutateProject(userID, project)
}

// CommentTask reports whether the user may append a comment. Deliberately
// looser than MutateTask: any project member may comment, whatever their
// role.
func CommentTask(userID uint64, task *models.Task, project *models.Project) Decision {
	if task == nil {
		return NotFound
	}
	if isAssigneeOrCreator(userID, task) {
		return Allowed
	}
	if project == nil {
		return Forbidden
	}
	return ViewProject(userID, project)
}

// MutateUser reports whether the requester may update a user profile: the
// user themselves, or any admin.
func MutateUser(requester *models.User, targetID uint64) Decision {
	if requester == nil {
		return Forbidden
	}
	if requester.ID == targetID || requester.Role == models.UserRoleAdmin {
		return Allowed
	}
	return Forbidden
}

func isMember(userID uint64, project *models.Project) bool {
	for _, m := range project.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func memberRole(userID uint64, project *models.Project) (models.ProjectRole, bool) {
	for _, m := range project.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

func isAssigneeOrCreator(userID uint64, task *models.Task) bool {
	if task.AssignedToID != nil && *task.AssignedToID == userID {
		return true
	}
	return task.CreatedByID == userID
}
