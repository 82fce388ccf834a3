package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-feed-api/internal/domain"
	"go-gin-feed-api/internal/service"
	httpez "go-gin-feed-api/internal/transport/http/ez"
)

// adminModule 运维接口：用户列表、反向引用一致性报告
type adminModule struct{ svc *service.AdminService }

func (m adminModule) MountAdmin(admin gin.IRouter) {
	ezAdmin := httpez.New(admin)

	// --- 用户列表 ---
	type listQ struct {
		Offset int    `form:"offset,default=0"`
		Limit  int    `form:"limit,default=20"`
		Q      string `form:"q"` // 可选：按 email/name 模糊搜
	}
	type row struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		Name      string `json:"name"`
		Status    string `json:"status"`
		PostCount int    `json:"postCount"`
	}
	type listOut struct {
		Total int64 `json:"total"`
		Items []row `json:"items"`
	}

	httpez.RegisterAction(ezAdmin, httpez.Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, _ *domain.Identity, in *listQ) (listOut, error) {
			page, err := m.svc.Users(c.Request.Context(), in.Q, in.Offset, in.Limit)
			if err != nil {
				return listOut{}, err
			}
			out := listOut{Total: page.Total, Items: make([]row, 0, len(page.Users))}
			for _, u := range page.Users {
				out.Items = append(out.Items, row{
					ID: u.ID, Email: u.Email, Name: u.Name, Status: u.Status, PostCount: len(u.PostIDs),
				})
			}
			return out, nil
		},
	})

	// --- 一致性报告（只读，不修复） ---
	httpez.RegisterAction(ezAdmin, httpez.Action[struct{}, *service.ConsistencyReport]{
		Method: http.MethodGet,
		Path:   "/consistency",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *domain.Identity, _ *struct{}) (*service.ConsistencyReport, error) {
			return m.svc.Consistency(c.Request.Context())
		},
	})
}
