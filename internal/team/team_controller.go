package team

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/fivestack-gg/fivestack/internal/middleware"
	"github.com/fivestack-gg/fivestack/internal/roster"
	"github.com/fivestack-gg/fivestack/internal/ws"
	"github.com/fivestack-gg/fivestack/pkg/responses"
)

// TeamController translates HTTP requests into roster engine operations and
// maps the engine's error taxonomy onto status codes.
type TeamController struct {
	engine *roster.Engine
	hub    *ws.Hub
	log    *slog.Logger
}

// NewTeamController creates a new team controller.
func NewTeamController(engine *roster.Engine, hub *ws.Hub, logger *slog.Logger) *TeamController {
	if logger == nil {
		logger = slog.Default()
	}
	return &TeamController{engine: engine, hub: hub, log: logger}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The roster view is public; same-origin enforcement is a deployment concern.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// sendEngineError maps roster sentinels onto HTTP statuses.
func sendEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, roster.ErrTeamNotFound):
		responses.SendError(c, http.StatusNotFound, "Team with this ID doesn't exist")
	case errors.Is(err, roster.ErrNotAMember):
		responses.SendError(c, http.StatusNotFound, "You are not a member of this team")
	case errors.Is(err, roster.ErrAlreadyInThisTeam):
		responses.SendError(c, http.StatusConflict, "You are already in this team")
	case errors.Is(err, roster.ErrAlreadyInAnyTeam):
		responses.SendError(c, http.StatusConflict, "Already in a team; leave it first")
	case errors.Is(err, roster.ErrNotLeader):
		responses.SendError(c, http.StatusForbidden, "Only the team leader can do this")
	case errors.Is(err, roster.ErrTeamFull):
		responses.SendError(c, http.StatusConflict, "The team and reserve are already full")
	case errors.Is(err, roster.ErrIDGenerationExhausted):
		responses.SendError(c, http.StatusServiceUnavailable, "Could not allocate a team ID, try again")
	default:
		responses.SendError(c, http.StatusInternalServerError, err.Error())
	}
}

func currentUser(c *gin.Context) (roster.UserID, bool) {
	uid, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		responses.SendError(c, http.StatusUnauthorized, "User not authenticated")
		return 0, false
	}
	return roster.UserID(uid), true
}

// --- DTOs ---

type InviteRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

type JoinResponse struct {
	Outcome roster.JoinOutcome `json:"outcome"`
	Team    roster.Snapshot    `json:"team"`
}

type LeaveResponse struct {
	Outcome   roster.LeaveOutcome `json:"outcome"`
	NewLeader *uint               `json:"new_leader,omitempty"`
	Team      roster.Snapshot     `json:"team"`
}

// --- Handlers ---

// CreateTeam godoc
// @Summary Create a new team
// @Description Creates a team with the caller seated in slot 0 as leader. Fails if the caller already belongs to a team.
// @Tags Teams
// @Produce json
// @Success 201 {object} responses.SuccessResponse "Team created"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 409 {object} responses.ErrorResponse "Caller already in a team"
// @Failure 503 {object} responses.ErrorResponse "ID space exhausted"
// @Security ApiKeyAuth
// @Router /teams [post]
func (tc *TeamController) CreateTeam(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	snap, err := tc.engine.Create(user)
	if err != nil {
		sendEngineError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "Team created", snap)
}

// JoinTeam godoc
// @Summary Join a team
// @Description Seats the caller in the lowest free slot, or queues them in reserve when the slots are full.
// @Tags Teams
// @Produce json
// @Param team_id path string true "Team ID"
// @Success 200 {object} responses.SuccessResponse "Joined or reserved"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Failure 409 {object} responses.ErrorResponse "Already in a team, or team full"
// @Security ApiKeyAuth
// @Router /teams/{team_id}/join [post]
func (tc *TeamController) JoinTeam(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := tc.engine.Join(c.Param("team_id"), user)
	if err != nil {
		sendEngineError(c, err)
		return
	}

	msg := "You have successfully joined the team"
	if res.Outcome == roster.OutcomeReserved {
		msg = "You have been added to the team's reserve"
	}
	responses.SendSuccess(c, http.StatusOK, msg, JoinResponse{Outcome: res.Outcome, Team: res.Team})
}

// InviteToTeam godoc
// @Summary Invite a player to the team
// @Description Leader-only. Places the invitee like a join: free slot first, reserve as fallback.
// @Tags Teams
// @Accept json
// @Produce json
// @Param team_id path string true "Team ID"
// @Param request body InviteRequest true "Invitee"
// @Success 200 {object} responses.SuccessResponse "Invitee placed"
// @Failure 400 {object} responses.ErrorResponse "Invalid request body"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 403 {object} responses.ErrorResponse "Caller is not the leader"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Failure 409 {object} responses.ErrorResponse "Invitee already in a team, or team full"
// @Security ApiKeyAuth
// @Router /teams/{team_id}/invite [post]
func (tc *TeamController) InviteToTeam(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.SendError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := tc.engine.Invite(c.Param("team_id"), user, roster.UserID(req.UserID))
	if err != nil {
		sendEngineError(c, err)
		return
	}

	msg := "Player has been added to the team"
	if res.Outcome == roster.OutcomeReserved {
		msg = "Player has been added to the team's reserve"
	}
	responses.SendSuccess(c, http.StatusOK, msg, JoinResponse{Outcome: res.Outcome, Team: res.Team})
}

// LeaveTeam godoc
// @Summary Leave a team
// @Description Vacates the caller's slot or reserve spot. A leaving leader hands off to a random remaining member; a sole leader disbands the team.
// @Tags Teams
// @Produce json
// @Param team_id path string true "Team ID"
// @Success 200 {object} responses.SuccessResponse "Left the team"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 404 {object} responses.ErrorResponse "Not a member of this team"
// @Security ApiKeyAuth
// @Router /teams/{team_id}/leave [post]
func (tc *TeamController) LeaveTeam(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := tc.engine.Leave(c.Param("team_id"), user)
	if err != nil {
		sendEngineError(c, err)
		return
	}

	out := LeaveResponse{Outcome: res.Outcome, Team: res.Team}
	msg := "You have successfully left the team"
	switch res.Outcome {
	case roster.OutcomeLeftReserve:
		msg = "You have successfully left the team's reserve"
	case roster.OutcomeLeftWithSuccession:
		leader := uint(res.NewLeader)
		out.NewLeader = &leader
		msg = "You have left the team; leadership was handed over"
	case roster.OutcomeDisbanded:
		msg = "You were the last member; the team was disbanded"
	}
	responses.SendSuccess(c, http.StatusOK, msg, out)
}

// DisbandTeam godoc
// @Summary Disband a team
// @Description Leader-only. Dissolves the team and frees every member and reserve player.
// @Tags Teams
// @Produce json
// @Param team_id path string true "Team ID"
// @Success 200 {object} responses.SuccessResponse "Team disbanded"
// @Failure 401 {object} responses.ErrorResponse "Unauthorized"
// @Failure 403 {object} responses.ErrorResponse "Caller is not the leader"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Security ApiKeyAuth
// @Router /teams/{team_id} [delete]
func (tc *TeamController) DisbandTeam(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := tc.engine.Disband(c.Param("team_id"), user, false)
	if err != nil {
		sendEngineError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "Team has been disbanded", res.Team)
}

// GetTeam godoc
// @Summary Get a team's roster
// @Description Read-only snapshot: ordered slots, leader, reserve order, creation time and fullness.
// @Tags Teams
// @Produce json
// @Param team_id path string true "Team ID"
// @Success 200 {object} responses.SuccessResponse "Roster snapshot"
// @Failure 404 {object} responses.ErrorResponse "Team not found"
// @Router /teams/{team_id} [get]
func (tc *TeamController) GetTeam(c *gin.Context) {
	snap, err := tc.engine.View(c.Param("team_id"))
	if err != nil {
		sendEngineError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", snap)
}

// ListTeams godoc
// @Summary List active teams
// @Tags Teams
// @Produce json
// @Success 200 {object} responses.SuccessResponse "Active team snapshots"
// @Router /teams [get]
func (tc *TeamController) ListTeams(c *gin.Context) {
	responses.SendSuccess(c, http.StatusOK, "", tc.engine.Registry().AllActive())
}

// StreamTeamEvents upgrades the connection to a websocket and subscribes it
// to the team's roster events until the client disconnects or the team is
// disbanded.
func (tc *TeamController) StreamTeamEvents(c *gin.Context) {
	teamID := c.Param("team_id")
	if _, err := tc.engine.View(teamID); err != nil {
		sendEngineError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		tc.log.Warn("websocket upgrade failed", "team_id", teamID, "error", err)
		return
	}

	client := ws.NewClient(conn, tc.log)
	tc.hub.Register(teamID, client)

	// Drain the connection; the read loop ends when the client goes away.
	go func() {
		defer tc.hub.Unregister(teamID, client)
		defer client.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
