package mapping

import (
	"github.com/google/uuid"
)

// UserNode is one row of a survey's user hierarchy joined with user and
// role display fields.
type UserNode struct {
	UserID       uuid.UUID
	RoleUID      uuid.UUID
	RoleName     string
	Name         string
	Email        string
	ParentUserID *uuid.UUID
}

// ChainEntry is one supervisor in a resolved chain of command, immediate
// supervisor first.
type ChainEntry struct {
	UserID   uuid.UUID `json:"user_uid"`
	RoleUID  uuid.UUID `json:"role_uid"`
	RoleName string    `json:"role_name"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
}

// SupervisorChain is a bottom-level user together with their ancestor
// chain of supervisors.
type SupervisorChain struct {
	User  UserNode
	Chain []ChainEntry
}

// ResolveAdminChains returns every bottom-level user with their full
// upward chain. Walks are capped at the role-chain length: the role chain
// is validated before it is persisted, but a malformed hierarchy must
// still terminate here.
func ResolveAdminChains(users []UserNode, bottomRoleUID uuid.UUID, roleChainLen int) []SupervisorChain {
	byUserID := make(map[uuid.UUID]UserNode, len(users))
	for _, u := range users {
		byUserID[u.UserID] = u
	}

	var out []SupervisorChain
	for _, u := range users {
		if u.RoleUID != bottomRoleUID {
			continue
		}
		out = append(out, SupervisorChain{User: u, Chain: ancestorChain(u, byUserID, roleChainLen, nil)})
	}
	return out
}

// ResolveScopedChains returns only the bottom-level users inside the
// caller's subtree. The caller is excluded from every printed chain: a
// supervisor sees their own reports' chains of command, not themselves.
func ResolveScopedChains(users []UserNode, bottomRoleUID uuid.UUID, roleChainLen int, callerID uuid.UUID) []SupervisorChain {
	byUserID := make(map[uuid.UUID]UserNode, len(users))
	children := make(map[uuid.UUID][]UserNode, len(users))
	for _, u := range users {
		byUserID[u.UserID] = u
		if u.ParentUserID != nil {
			children[*u.ParentUserID] = append(children[*u.ParentUserID], u)
		}
	}

	caller, ok := byUserID[callerID]
	if !ok {
		return nil
	}

	var out []SupervisorChain
	visited := map[uuid.UUID]bool{caller.UserID: true}
	queue := []UserNode{caller}
	// BFS bound: every user visited at most once
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.RoleUID == bottomRoleUID && current.UserID != callerID {
			out = append(out, SupervisorChain{
				User:  current,
				Chain: ancestorChain(current, byUserID, roleChainLen, &callerID),
			})
		}
		for _, child := range children[current.UserID] {
			if visited[child.UserID] {
				continue
			}
			visited[child.UserID] = true
			queue = append(queue, child)
		}
	}
	return out
}

// ancestorChain walks upward from u, immediate supervisor first, stopping
// at the root, at stopAt, or after limit steps.
func ancestorChain(u UserNode, byUserID map[uuid.UUID]UserNode, limit int, stopAt *uuid.UUID) []ChainEntry {
	var chain []ChainEntry
	current := u
	for i := 0; i < limit; i++ {
		if current.ParentUserID == nil {
			break
		}
		parent, ok := byUserID[*current.ParentUserID]
		if !ok {
			break
		}
		if stopAt != nil && parent.UserID == *stopAt {
			break
		}
		chain = append(chain, ChainEntry{
			UserID:   parent.UserID,
			RoleUID:  parent.RoleUID,
			RoleName: parent.RoleName,
			Name:     parent.Name,
			Email:    parent.Email,
		})
		current = parent
	}
	return chain
}
