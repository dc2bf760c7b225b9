package types

import (
	uuid "github.com/gofrs/uuid"
)

// HTTP Header Constants
const (
	HeaderHMACAuthenticate = "X-Fieldcrew-Signature"
	HeaderTimestamp        = "X-Timestamp"
	HeaderUID              = "uid"
	HeaderBusinessID       = "X-Business-ID"
	HeaderRole             = "X-Role"
	HeaderAuthorization    = "Authorization"
	HeaderContentType      = "Content-Type"
)

// Authentication Constants
const (
	BearerPrefix = "Bearer "
	HMACPrefix   = "sha256="
)

// UserCtxName is the Locals/context key holding the authenticated UserContext
const UserCtxName = "user"

// Team roles
const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleWorker  = "worker"
)

// UserContext is the identity attached to a request after authentication.
// BusinessID is the tenant every data access of the request is scoped to.
type UserContext struct {
	UserID      uuid.UUID `json:"uid"`
	BusinessID  uuid.UUID `json:"businessId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	CreatedDate int64     `json:"createdDate"`
}

// CanManage reports whether the role may change team and organization settings
func (u UserContext) CanManage() bool {
	return u.Role == RoleOwner || u.Role == RoleAdmin
}
