package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gadget-store/internal/core/auth"
	"gadget-store/internal/domain"
	"gadget-store/internal/service"
	httpez "gadget-store/internal/transport/http/ez"
)

// AdminHandler 管理端用户管理；分组已走 AuthJWT(AdminOnly)，动作本身不再重复校验
type AdminHandler struct {
	users *service.UserService
}

func NewAdminHandler(users *service.UserService) *AdminHandler { return &AdminHandler{users: users} }

type listUsersIn struct {
	Offset      int    `form:"offset,default=0"`
	Limit       int    `form:"limit,default=20"`
	Q           string `form:"q"`            // 按 email/name 模糊搜
	WithDeleted bool   `form:"with_deleted"` // 是否包含软删
}

type userRow struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
}

type listUsersOut struct {
	Total int64     `json:"total"`
	Items []userRow `json:"items"`
}

func (h *AdminHandler) MountAdmin(e *httpez.EZ) {
	// --- GET /admin/v1/users  用户列表 ---
	httpez.RegisterAction(e, httpez.Action[listUsersIn, listUsersOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, _ *auth.Claims, in *listUsersIn) (listUsersOut, error) {
			us, total, err := h.users.List(c.Request.Context(), in.Offset, in.Limit, in.Q, in.WithDeleted)
			if err != nil {
				return listUsersOut{}, err
			}
			out := listUsersOut{Total: total, Items: make([]userRow, 0, len(us))}
			for i := range us {
				out.Items = append(out.Items, userRow{
					ID: us[i].ID, Email: us[i].Email, Name: us[i].DisplayName(), IsAdmin: us[i].IsAdmin,
				})
			}
			return out, nil
		},
	})

	// --- POST /admin/v1/users/:id/ban  封禁（软删） ---
	httpez.RegisterAction(e, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/ban",
		Handler: func(c *gin.Context, who *auth.Claims, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if who != nil && who.UserID == id {
				return nil, domain.Validation("cannot ban yourself")
			}
			if err := h.users.Ban(c.Request.Context(), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	h.mountRole(e, "/users/:id/promote", true)
	h.mountRole(e, "/users/:id/demote", false)
}

func (h *AdminHandler) mountRole(e *httpez.EZ, path string, isAdmin bool) {
	httpez.RegisterAction(e, httpez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   path,
		Handler: func(c *gin.Context, who *auth.Claims, _ *struct{}) (gin.H, error) {
			id := c.Param("id")
			if !isAdmin && who != nil && who.UserID == id {
				return nil, domain.Validation("cannot demote yourself")
			}
			if err := h.users.SetAdmin(c.Request.Context(), id, isAdmin); err != nil {
				return nil, err
			}
			return gin.H{"id": id, "isAdmin": isAdmin}, nil
		},
	})
}
