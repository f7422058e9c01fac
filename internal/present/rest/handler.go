package rest

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/gatherd/gatherd/internal/domain"
	"github.com/gatherd/gatherd/internal/present/rest/presenter"
	"github.com/gatherd/gatherd/internal/usecase"
)

// RoomDirectory resolves the chat room provisioned for a meeting.
type RoomDirectory interface {
	GetRoomByMeeting(ctx context.Context, meetingID string) (*domain.ChatRoom, error)
}

// EventStreamer feeds the realtime websocket endpoint.
type EventStreamer interface {
	Realtime(ctx context.Context, request <-chan []string, response chan<- domain.Event)
}

type Handler struct {
	meetings      *usecase.MeetingUsecase
	participation *usecase.ParticipationUsecase
	rooms         RoomDirectory
	events        EventStreamer
}

func NewHandler(
	meetings *usecase.MeetingUsecase,
	participation *usecase.ParticipationUsecase,
	rooms RoomDirectory,
	events EventStreamer,
) *Handler {
	return &Handler{
		meetings:      meetings,
		participation: participation,
		rooms:         rooms,
		events:        events,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/meetings", h.handleCreateMeeting)
	e.GET("/api/v1/meetings", h.handleListMeetings)
	e.GET("/api/v1/meetings/:id", h.handleGetMeeting)
	e.PUT("/api/v1/meetings/:id", h.handleModifyMeeting)
	e.PATCH("/api/v1/meetings/:id/end", h.handleEndMeeting)
	e.DELETE("/api/v1/meetings/:id", h.handleDeleteMeeting)
	e.POST("/api/v1/meetings/:id/participants", h.handleJoin)
	e.GET("/api/v1/meetings/:id/participants", h.handleListParticipants)
	e.DELETE("/api/v1/meetings/:id/participants/:userID", h.handleRemoveParticipant)
	e.PATCH("/api/v1/participants/:id", h.handleDecideParticipant)
	e.GET("/api/v1/meetings/:id/chatroom", h.handleGetChatRoom)
	e.GET("/realtime", h.handleRealtime)
}

type createMeetingRequest struct {
	Title            string     `json:"title" validate:"required"`
	Description      string     `json:"description"`
	Place            string     `json:"place"`
	Deadline         *time.Time `json:"deadline"`
	MaxParticipants  int        `json:"maxParticipants" validate:"required,gt=0"`
	ApprovalRequired bool       `json:"approvalRequired"`
}

type participantView struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userID"`
	State    string    `json:"state"`
	JoinedAt time.Time `json:"joinedAt"`
}

type meetingDetailResponse struct {
	Meeting      *domain.Meeting   `json:"meeting"`
	Participants []participantView `json:"participants"`
	IsOwner      bool              `json:"isOwner"`
}

type decideParticipantRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}

// requesterID extracts the identity the auth middleware resolved, if any.
func requesterID(c echo.Context) (string, bool) {
	id, ok := c.Request().Context().Value(domain.RequesterIDCtxKey).(string)
	return id, ok && id != ""
}

func toParticipantViews(participants []domain.Participant) []participantView {
	return lo.Map(participants, func(p domain.Participant, _ int) participantView {
		return participantView{
			ID:       p.ID,
			UserID:   p.UserID,
			State:    string(p.State),
			JoinedAt: p.CreatedAt,
		}
	})
}

// fail translates domain errors into the HTTP taxonomy.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return presenter.NotFound(c, err)
	case errors.Is(err, domain.ErrInvalidCapacity):
		return presenter.BadRequest(c, err)
	case errors.Is(err, domain.ErrConflict):
		return presenter.Conflict(c, err)
	case errors.Is(err, domain.ErrUnauthenticated):
		return presenter.Unauthorized(c)
	case errors.Is(err, domain.ErrStorageUnavailable):
		return presenter.ServiceUnavailable(c, err)
	default:
		return presenter.InternalError(c, err)
	}
}

func (h *Handler) handleCreateMeeting(c echo.Context) error {
	ctx := c.Request().Context()

	owner, ok := requesterID(c)
	if !ok {
		return presenter.Unauthorized(c)
	}

	var req createMeetingRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	meeting, err := h.meetings.Create(ctx, owner, usecase.CreateMeetingInput{
		Title:            req.Title,
		Description:      req.Description,
		Place:            req.Place,
		Deadline:         req.Deadline,
		MaxParticipants:  req.MaxParticipants,
		ApprovalRequired: req.ApprovalRequired,
	})
	if err != nil {
		return fail(c, err)
	}

	return presenter.OK(c, meeting)
}

func (h *Handler) handleListMeetings(c echo.Context) error {
	ctx := c.Request().Context()

	page := 0
	pageStr := c.QueryParam("page")
	if pageStr != "" {
		pageInt, err := strconv.Atoi(pageStr)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid page parameter")
		}
		page = pageInt
	}

	meetings, err := h.meetings.List(ctx, page)
	if err != nil {
		return fail(c, err)
	}
	return presenter.OK(c, meetings)
}

func (h *Handler) handleGetMeeting(c echo.Context) error {
	ctx := c.Request().Context()
	meetingID := c.Param("id")

	meeting, err := h.meetings.Get(ctx, meetingID)
	if err != nil {
		return fail(c, err)
	}

	participants, err := h.participation.List(ctx, meetingID, false)
	if err != nil {
		return fail(c, err)
	}

	requester, _ := requesterID(c)
	return presenter.OK(c, meetingDetailResponse{
		Meeting:      meeting,
		Participants: toParticipantViews(participants),
		IsOwner:      requester != "" && requester == meeting.OwnerID,
	})
}

func (h *Handler) handleModifyMeeting(c echo.Context) error {
	ctx := c.Request().Context()

	if _, ok := requesterID(c); !ok {
		return presenter.Unauthorized(c)
	}

	var patch domain.MeetingPatch
	if err := c.Bind(&patch); err != nil {
		return presenter.BadRequest(c, err)
	}

	if err := h.meetings.Modify(ctx, c.Param("id"), patch); err != nil {
		return fail(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleEndMeeting(c echo.Context) error {
	ctx := c.Request().Context()

	if _, ok := requesterID(c); !ok {
		return presenter.Unauthorized(c)
	}

	if err := h.meetings.End(ctx, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleDeleteMeeting(c echo.Context) error {
	ctx := c.Request().Context()

	if _, ok := requesterID(c); !ok {
		return presenter.Unauthorized(c)
	}

	if err := h.meetings.Delete(ctx, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleJoin(c echo.Context) error {
	ctx := c.Request().Context()

	requester, ok := requesterID(c)
	if !ok {
		return presenter.Unauthorized(c)
	}

	participant, err := h.participation.Join(ctx, c.Param("id"), requester)
	if err != nil {
		return fail(c, err)
	}
	return presenter.OK(c, participant)
}

func (h *Handler) handleListParticipants(c echo.Context) error {
	ctx := c.Request().Context()

	includeWaiting := false
	waitingStr := c.QueryParam("waiting")
	if waitingStr != "" {
		parsed, err := strconv.ParseBool(waitingStr)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid waiting parameter")
		}
		includeWaiting = parsed
	}

	participants, err := h.participation.List(ctx, c.Param("id"), includeWaiting)
	if err != nil {
		return fail(c, err)
	}
	return presenter.OK(c, toParticipantViews(participants))
}

func (h *Handler) handleRemoveParticipant(c echo.Context) error {
	ctx := c.Request().Context()

	if _, ok := requesterID(c); !ok {
		return presenter.Unauthorized(c)
	}

	if err := h.participation.Remove(ctx, c.Param("id"), c.Param("userID")); err != nil {
		return fail(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleDecideParticipant(c echo.Context) error {
	ctx := c.Request().Context()

	if _, ok := requesterID(c); !ok {
		return presenter.Unauthorized(c)
	}

	var req decideParticipantRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.participation.Decide(ctx, c.Param("id"), *req.Approve); err != nil {
		return fail(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleGetChatRoom(c echo.Context) error {
	ctx := c.Request().Context()

	room, err := h.rooms.GetRoomByMeeting(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return presenter.OK(c, room)
}
