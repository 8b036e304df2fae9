package admin

import (
	"net/http"
	"strconv"

	"techmart/internal/constants"
	"techmart/internal/repository"
	"techmart/internal/service"
	"techmart/pkg/logger"

	"github.com/gin-gonic/gin"
)

// CaseAdminHandler 客服工单后台处理器
type CaseAdminHandler struct {
	registry *service.CaseRegistry
	logger   *logger.Logger
}

// NewCaseAdminHandler 创建工单后台处理器
func NewCaseAdminHandler(registry *service.CaseRegistry, logger *logger.Logger) *CaseAdminHandler {
	return &CaseAdminHandler{registry: registry, logger: logger}
}

// List 工单列表
func (h *CaseAdminHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	f := repository.CaseListFilter{
		Status:     c.Query("status"),
		Type:       c.Query("type"),
		AssigneeID: c.Query("assignee_id"),
		OrderID:    c.Query("order_id"),
		Page:       page,
		PageSize:   pageSize,
	}
	list, total, err := h.registry.List(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessGet, gin.H{"list": list, "total": total})
}

// Create 创建工单
func (h *CaseAdminHandler) Create(c *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required"`
		Type        string `json:"type" binding:"required"`
		OrderID     string `json:"order_id"`
		Requester   string `json:"requester_name"`
		Priority    string `json:"priority"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "message": constants.ErrInvalidParams})
		return
	}

	requester := req.Requester
	if requester == "" {
		requester = currentUser(c).Nickname
	}
	created, err := h.registry.Create(c.Request.Context(), service.CreateCaseInput{
		Title:         req.Title,
		Type:          req.Type,
		OrderID:       req.OrderID,
		RequesterName: requester,
		Priority:      req.Priority,
		Description:   req.Description,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessCreate, created)
}

// Get 工单详情
func (h *CaseAdminHandler) Get(c *gin.Context) {
	view, err := h.registry.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessGet, view)
}

// Assign 指派处理人
func (h *CaseAdminHandler) Assign(c *gin.Context) {
	var req struct {
		AssigneeID string `json:"assignee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "message": constants.ErrInvalidParams})
		return
	}
	if err := h.registry.Assign(c.Request.Context(), c.Param("id"), req.AssigneeID); err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessUpdate, nil)
}

// UpdateStatus 推进工单状态
func (h *CaseAdminHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "message": constants.ErrInvalidParams})
		return
	}
	if err := h.registry.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessUpdate, nil)
}

// AddNote 添加处理备注
func (h *CaseAdminHandler) AddNote(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "message": constants.ErrInvalidParams})
		return
	}
	note, err := h.registry.AddNote(c.Request.Context(), c.Param("id"), currentUser(c), req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessCreate, note)
}

// AddEvidence 添加证据附件
func (h *CaseAdminHandler) AddEvidence(c *gin.Context) {
	var req struct {
		FileID   string `json:"file_id" binding:"required"`
		FileName string `json:"file_name" binding:"required"`
		URL      string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "message": constants.ErrInvalidParams})
		return
	}
	evidence, err := h.registry.AddEvidence(c.Request.Context(), c.Param("id"), req.FileID, req.FileName, req.URL)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessCreate, evidence)
}

// UpdateSla 调整优先级
func (h *CaseAdminHandler) UpdateSla(c *gin.Context) {
	var req struct {
		Priority string `json:"priority" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "message": constants.ErrInvalidParams})
		return
	}
	if err := h.registry.UpdateSla(c.Request.Context(), c.Param("id"), req.Priority); err != nil {
		fail(c, err)
		return
	}
	ok(c, constants.SuccessUpdate, nil)
}
