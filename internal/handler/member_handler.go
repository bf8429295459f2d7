package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	memberService service.MemberService
}

func NewMemberHandler(memberService service.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

func (h *MemberHandler) RegisterRoutes(router *gin.RouterGroup) {
	members := router.Group("/api/members")
	{
		members.POST("", middleware.RequireRole("admin", "staff"), h.CreateMember)
		members.GET("", middleware.RequireRole("admin", "staff"), h.ListMembers)
		members.GET("/:id", middleware.RequireRole("admin", "staff"), h.GetMember)
	}
}

// CreateMember registers a customer account
// @Summary      Create member
// @Tags         members
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateMemberRequest  true  "Create Member Payload"
// @Success      201      {object}  response.Response{data=service.MemberResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/members [post]
func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req service.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	member, err := h.memberService.CreateMember(c.Request.Context(), req)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, member))
}

// ListMembers returns a paginated member list
// @Summary      List members
// @Tags         members
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/members [get]
func (h *MemberHandler) ListMembers(c *gin.Context) {
	p := pagination.Parse(c)

	members, total, err := h.memberService.ListMembers(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"members": members,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}

// GetMember returns one member
// @Summary      Get member
// @Tags         members
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Member ID"
// @Success      200  {object}  response.Response{data=service.MemberResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/members/{id} [get]
func (h *MemberHandler) GetMember(c *gin.Context) {
	member, err := h.memberService.GetMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusForError(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, member))
}
