// Package policy decides who may do what. It performs no I/O: callers load
// the facts about a resource and pass them in.
package policy

import (
	"fmt"
	"slices"

	"github.com/yukikurage/project-management-api/internal/models"
)

type Action string

const (
	ProjectCreate  Action = "project:create"
	ProjectUpdate  Action = "project:update"
	ProjectDelete  Action = "project:delete"
	ProjectRead    Action = "project:read"
	ProjectListAll Action = "project:list-all"
	TaskListAll    Action = "task:list-all"
	TaskRead       Action = "task:read"
	TaskCreate     Action = "task:create"
	TaskUpdate     Action = "task:update"
	TaskDelete     Action = "task:delete"
	CommentCreate  Action = "comment:create"
	EventDelete    Action = "event:delete"
)

// TaskWriteRule selects who may update or delete tasks.
type TaskWriteRule string

const (
	// TaskWriteAny lets users modify every task they can see.
	TaskWriteAny TaskWriteRule = "any"
	// TaskWriteAssigned limits Team Members to tasks they are assigned to or created.
	TaskWriteAssigned TaskWriteRule = "assigned"
)

// ParseTaskWriteRule reads a TASK_WRITE_POLICY value; empty means any.
func ParseTaskWriteRule(raw string) (TaskWriteRule, error) {
	switch TaskWriteRule(raw) {
	case "", TaskWriteAny:
		return TaskWriteAny, nil
	case TaskWriteAssigned:
		return TaskWriteAssigned, nil
	default:
		return "", fmt.Errorf("unknown task write policy %q", raw)
	}
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID   uint64
	Role models.Role

	// Name and Email are carried for notifications only; decisions never
	// depend on them.
	Name  string
	Email string
}

// ActorOf builds the actor for an authenticated user.
func ActorOf(user *models.User) Actor {
	return Actor{ID: user.ID, Role: user.Role, Name: user.Name, Email: user.Email}
}

// DisplayName is the name shown to other users.
func (a Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Email
}

// Resource carries the facts a decision may depend on. Fields irrelevant to
// the action are ignored.
type Resource struct {
	CreatorID  uint64
	AssigneeID *uint64
	MemberIDs  []uint64
	// InMemberProject is true when the resource belongs to a project the actor
	// is a member of.
	InMemberProject bool
}

// Policy holds the configurable parts of the rule set.
type Policy struct {
	taskWrite TaskWriteRule
}

// New returns a Policy applying taskWrite to task updates and deletes.
func New(taskWrite TaskWriteRule) *Policy {
	return &Policy{taskWrite: taskWrite}
}

// CanPerform reports whether actor may perform action on resource.
func (p *Policy) CanPerform(actor Actor, action Action, resource Resource) bool {
	if actor.ID == 0 {
		return false
	}

	switch action {
	case ProjectCreate, ProjectUpdate, ProjectDelete, ProjectListAll, TaskListAll:
		return actor.Role.Privileged()
	case ProjectRead:
		return actor.Role.Privileged() || slices.Contains(resource.MemberIDs, actor.ID)
	case TaskRead:
		return actor.Role.Privileged() || isAssignee(actor, resource) || resource.InMemberProject
	case TaskCreate, CommentCreate:
		return true
	case TaskUpdate, TaskDelete:
		if actor.Role.Privileged() || isAssignee(actor, resource) || resource.CreatorID == actor.ID {
			return true
		}
		return p.taskWrite == TaskWriteAny && resource.InMemberProject
	case EventDelete:
		return resource.CreatorID == actor.ID
	default:
		return false
	}
}

func isAssignee(actor Actor, resource Resource) bool {
	return resource.AssigneeID != nil && *resource.AssigneeID == actor.ID
}
