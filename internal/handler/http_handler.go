package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/git-mahad/group-chat/internal/domain"
	"github.com/git-mahad/group-chat/internal/middleware"
	"github.com/git-mahad/group-chat/internal/repository"
	"github.com/git-mahad/group-chat/internal/service"
	"github.com/git-mahad/group-chat/pkg/response"
)

// HTTPHandler serves the REST surface: auth, groups and message history.
type HTTPHandler struct {
	auth   service.AuthService
	groups service.GroupService
	chat   service.ChatService
}

// NewHTTPHandler creates a new REST handler.
func NewHTTPHandler(auth service.AuthService, groups service.GroupService, chat service.ChatService) *HTTPHandler {
	return &HTTPHandler{auth: auth, groups: groups, chat: chat}
}

// RegisterRoutes mounts all REST routes on the router group.
func (h *HTTPHandler) RegisterRoutes(api *gin.RouterGroup, authMW gin.HandlerFunc) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}

	groups := api.Group("/groups", authMW)
	{
		groups.POST("", h.CreateGroup)
		groups.GET("", h.ListGroups)
		groups.GET("/my", h.ListMyGroups)
		groups.GET("/:id", h.GetGroup)
		groups.DELETE("/:id", h.DeleteGroup)
		groups.POST("/:id/join", h.JoinGroup)
		groups.POST("/:id/leave", h.LeaveGroup)
		groups.GET("/:id/messages", h.ListMessages)
		groups.POST("/:id/messages", h.SendMessage)
	}

	messages := api.Group("/messages", authMW)
	{
		messages.DELETE("/:id", h.DeleteMessage)
	}
}

// Register handles POST /api/auth/register.
func (h *HTTPHandler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.Conflict(c, "email already registered")
			return
		}
		response.InternalError(c, "failed to register user")
		return
	}
	response.Created(c, user)
}

// Login handles POST /api/auth/login.
func (h *HTTPHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	auth, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid email or password")
			return
		}
		response.InternalError(c, "failed to log in")
		return
	}
	response.Success(c, auth)
}

// CreateGroup handles POST /api/groups.
func (h *HTTPHandler) CreateGroup(c *gin.Context) {
	actor, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req domain.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), actor, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotAdmin) {
			response.Forbidden(c, "admin role required")
			return
		}
		response.InternalError(c, "failed to create group")
		return
	}
	response.Created(c, group)
}

// ListGroups handles GET /api/groups.
func (h *HTTPHandler) ListGroups(c *gin.Context) {
	groups, err := h.groups.ListGroups(c.Request.Context())
	if err != nil {
		response.InternalError(c, "failed to list groups")
		return
	}
	response.Success(c, groups)
}

// ListMyGroups handles GET /api/groups/my.
func (h *HTTPHandler) ListMyGroups(c *gin.Context) {
	actor, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	groups, err := h.groups.ListUserGroups(c.Request.Context(), actor.UserID)
	if err != nil {
		response.InternalError(c, "failed to list user groups")
		return
	}
	response.Success(c, groups)
}

// GetGroup handles GET /api/groups/:id.
func (h *HTTPHandler) GetGroup(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	group, err := h.groups.GetGroup(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			response.NotFound(c, "group not found")
			return
		}
		response.InternalError(c, "failed to get group")
		return
	}
	response.Success(c, group)
}

// DeleteGroup handles DELETE /api/groups/:id.
func (h *HTTPHandler) DeleteGroup(c *gin.Context) {
	actor, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.groups.DeleteGroup(c.Request.Context(), actor, id); err != nil {
		switch {
		case errors.Is(err, service.ErrNotAdmin):
			response.Forbidden(c, "admin role required")
		case errors.Is(err, service.ErrNotCreator):
			response.Forbidden(c, "only the group creator can delete the group")
		case errors.Is(err, repository.ErrGroupNotFound):
			response.NotFound(c, "group not found")
		default:
			response.InternalError(c, "failed to delete group")
		}
		return
	}
	response.Success(c, gin.H{"message": "group deleted"})
}

// JoinGroup handles POST /api/groups/:id/join.
func (h *HTTPHandler) JoinGroup(c *gin.Context) {
	actor, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.groups.JoinGroup(c.Request.Context(), actor, id); err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyMember):
			response.Conflict(c, "already a member of this group")
		case errors.Is(err, repository.ErrGroupNotFound):
			response.NotFound(c, "group not found")
		default:
			response.InternalError(c, "failed to join group")
		}
		return
	}
	response.Success(c, gin.H{"message": "joined group"})
}

// LeaveGroup handles POST /api/groups/:id/leave.
func (h *HTTPHandler) LeaveGroup(c *gin.Context) {
	actor, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.groups.LeaveGroup(c.Request.Context(), actor, id); err != nil {
		switch {
		case errors.Is(err, service.ErrCreatorCannotLeave):
			response.Forbidden(c, "group creator cannot leave the group")
		case errors.Is(err, service.ErrNotMember):
			response.BadRequest(c, "not a member of this group")
		case errors.Is(err, repository.ErrGroupNotFound):
			response.NotFound(c, "group not found")
		default:
			response.InternalError(c, "failed to leave group")
		}
		return
	}
	response.Success(c, gin.H{"message": "left group"})
}

// ListMessages handles GET /api/groups/:id/messages.
func (h *HTTPHandler) ListMessages(c *gin.Context) {
	actor, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	messages, err := h.chat.ListMessages(c.Request.Context(), actor, id)
	if err != nil {
		if errors.Is(err, service.ErrNotMember) {
			response.Forbidden(c, "not a member of this group")
			return
		}
		response.InternalError(c, "failed to list messages")
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	response.Success(c, messages)
}

// SendMessage handles POST /api/groups/:id/messages.
func (h *HTTPHandler) SendMessage(c *gin.Context) {
	actor, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	// The body names the group too; a mismatch with the path is rejected
	// rather than silently resolved either way.
	if req.GroupID != id {
		response.BadRequest(c, "group id in body does not match path")
		return
	}

	msg, err := h.chat.CreateMessage(c.Request.Context(), actor, id, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotMember):
			response.Forbidden(c, "not a member of this group")
		case errors.Is(err, domain.ErrEmptyMessage), errors.Is(err, domain.ErrMessageTooLong):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, "failed to send message")
		}
		return
	}
	response.Created(c, msg)
}

// DeleteMessage handles DELETE /api/messages/:id.
func (h *HTTPHandler) DeleteMessage(c *gin.Context) {
	actor, ok := middleware.GetIdentity(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.chat.DeleteMessage(c.Request.Context(), actor, id); err != nil {
		switch {
		case errors.Is(err, service.ErrNotMessageSender):
			response.Forbidden(c, "only the sender can delete a message")
		case errors.Is(err, repository.ErrMessageNotFound):
			response.NotFound(c, "message not found")
		default:
			response.InternalError(c, "failed to delete message")
		}
		return
	}
	response.Success(c, gin.H{"message": "message deleted"})
}

func paramID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}
