package admin

import (
	"errors"
	"net/http"
	"strconv"

	"go-authlog/internal/domain/model"
	"go-authlog/internal/logging"
	"go-authlog/internal/panel"
	"go-authlog/internal/service"
	"go-authlog/internal/util/retcode"
	"go-authlog/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 写操作名，用于指标与日志
const (
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

type AuthLogHandler struct{ d Dependencies }

func NewAuthLogHandler(d Dependencies) *AuthLogHandler { return &AuthLogHandler{d: d} }

// List 面板下全部认证日志
func (h *AuthLogHandler) List(p panel.Panel) gin.HandlerFunc {
	return func(c *gin.Context) { h.render(c, p, nil) }
}

// Relation 某个归属方（/:resource/:id）名下的认证日志
func (h *AuthLogHandler) Relation(p panel.Panel) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			h.fail(c, service.ErrOwnerNotFound)
			return
		}
		owner, err := h.d.AuthLog.ResolveOwner(c.Request.Context(), c.Param("resource"), id)
		if err != nil {
			h.fail(c, err)
			return
		}
		h.render(c, p, owner)
	}
}

// Reject 创建 / 编辑 / 删除一律拒绝
func (h *AuthLogHandler) Reject(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.fail(c, h.d.AuthLog.RejectMutation(c.Request.Context(), action))
	}
}

func (h *AuthLogHandler) render(c *gin.Context, p panel.Panel, owner *model.OwnerRef) {
	req := parseTableRequest(c)
	req.Panel = p.Context(c.Param("tenant"))
	req.Owner = owner
	page, err := h.d.AuthLog.Table(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	if wantsJSON(c) {
		response.Success(c, page)
		return
	}
	c.HTML(http.StatusOK, TableTemplate, newTableView(c, page, h.d.AuthLog.PaginationText(page.Locale, page.Pagination)))
}

func parseTableRequest(c *gin.Context) service.TableRequest {
	return service.TableRequest{
		Page:         qInt(c, "page", 1),
		PerPage:      qInt(c, "per_page", 0),
		Sort:         c.Query("sort"),
		Direction:    c.Query("direction"),
		Search:       c.Query("search"),
		ColumnSearch: c.QueryMap("col_search"),
		Toggled:      qStrings(c, "columns"),
		Filters: service.FilterInput{
			Countries:       qStrings(c, "filters[country]"),
			LoginSuccessful: qBool(c, "filters[login_successful]"),
			LoginFrom:       c.Query("filters[login_from]"),
			LoginUntil:      c.Query("filters[login_until]"),
			ClearedByUser:   qBool(c, "filters[cleared_by_user]"),
		},
	}
}

// fail 业务错误映射为 HTTP 状态 + legacy 业务码
func (h *AuthLogHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReadOnly):
		response.ErrorStatus(c, http.StatusForbidden, retcode.AUTH_ERROR, err.Error())
	case errors.Is(err, service.ErrOwnerNotFound):
		response.ErrorStatus(c, http.StatusNotFound, retcode.NOT_EXISTS, err.Error())
	case errors.Is(err, service.ErrInvalidRequest):
		response.ErrorStatus(c, http.StatusBadRequest, retcode.PARAM_INVALID, err.Error())
	default:
		_ = c.Error(err)
		logging.FromContext(c.Request.Context(), h.d.Logger).Error("authlog_query_failed", zap.Error(err))
		response.ErrorStatus(c, http.StatusInternalServerError, retcode.DB_READ_ERROR, "query failed")
	}
}
