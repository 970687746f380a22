// Package server exposes an Inspector over HTTP so a browser or script can
// step a search and fetch recorded states as JSON.
package server

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdrpinto/planinspect"
	"github.com/pdrpinto/planinspect/scenario"
	"github.com/pdrpinto/planinspect/search"
)

// maxStepsPerRequest bounds POST /step?count=n.
const maxStepsPerRequest = 10000

// NodeResponse is one search node.
type NodeResponse struct {
	ID            int     `json:"id"`
	Waypoint      string  `json:"waypoint,omitempty"`
	WaypointIndex int     `json:"waypoint_index"`
	Orientation   float64 `json:"orientation"`
	Cost          float64 `json:"cost"`
	Parent        int     `json:"parent"`
	Chain         string  `json:"chain"`
}

// PlanResponse is a found plan.
type PlanResponse struct {
	Waypoints    []string  `json:"waypoints"`
	Orientations []float64 `json:"orientations"`
	Cost         float64   `json:"cost"`
}

// StateResponse is one recorded step.
type StateResponse struct {
	Step      int            `json:"step"`
	PlanFound bool           `json:"plan_found"`
	Plan      *PlanResponse  `json:"plan,omitempty"`
	Expanded  []NodeResponse `json:"expanded"`
	Terminal  []NodeResponse `json:"terminal"`
}

// StateSummary is the short form used by GET /states.
type StateSummary struct {
	Step      int  `json:"step"`
	Expanded  int  `json:"expanded"`
	Terminal  int  `json:"terminal"`
	PlanFound bool `json:"plan_found"`
}

// StatusResponse reports the session after begin or step.
type StatusResponse struct {
	Session       string         `json:"session"`
	StepNum       int            `json:"step_num"`
	PlanCompleted bool           `json:"plan_completed"`
	State         *StateResponse `json:"state,omitempty"`
}

// ErrorResponse carries a failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server drives one inspector over one scenario.
type Server struct {
	scenario  *scenario.Scenario
	options   search.Options
	inspector *planinspect.Inspector
	logger    *zap.Logger

	// mu serializes Begin and Step.
	mu sync.Mutex
}

// New creates a server; the search is not begun until POST /begin.
func New(s *scenario.Scenario, inspector *planinspect.Inspector, options search.Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{scenario: s, options: options, inspector: inspector, logger: logger}
}

// Router returns a gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	s.RegisterRoutes(router.Group("/"))
	return router
}

// RegisterRoutes adds the stepping API to group.
func (s *Server) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/begin", s.HandleBegin)
	group.POST("/step", s.HandleStep)
	group.GET("/states", s.HandleStates)
	group.GET("/states/:index", s.HandleState)
	group.GET("/states/:index/text", s.HandleStateText)
	group.GET("/plan", s.HandlePlan)
}

// HandleBegin starts (or restarts) the search.
func (s *Server) HandleBegin(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.inspector.Begin(c.Request.Context(), s.scenario.SearchStarts(), s.scenario.SearchGoal(), s.options)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.status())
}

// HandleStep advances the search count times (default 1).
func (s *Server) HandleStep(c *gin.Context) {
	count := 1
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxStepsPerRequest {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "count must be between 1 and " + strconv.Itoa(maxStepsPerRequest)})
			return
		}
		count = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inspector.StepNum() == 0 {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "search not begun"})
		return
	}
	for i := 0; i < count; i++ {
		if err := s.inspector.Step(c.Request.Context()); err != nil {
			s.logger.Warn("Step failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, s.status())
}

// HandleStates lists every recorded state in short form.
func (s *Server) HandleStates(c *gin.Context) {
	history := s.inspector.History()
	out := make([]StateSummary, 0, len(history))
	for _, state := range history {
		out = append(out, StateSummary{
			Step:      state.StepIndex,
			Expanded:  len(state.ExpandedNodes),
			Terminal:  len(state.TerminalNodes),
			PlanFound: state.Plan != nil,
		})
	}
	c.JSON(http.StatusOK, out)
}

// HandleState returns one state as JSON.
func (s *Server) HandleState(c *gin.Context) {
	state, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.stateResponse(state))
}

// HandleStateText returns one state as printed text.
func (s *Server) HandleStateText(c *gin.Context) {
	state, ok := s.lookup(c)
	if !ok {
		return
	}
	c.String(http.StatusOK, state.String())
}

// HandlePlan returns the plan, or 404 while there is none.
func (s *Server) HandlePlan(c *gin.Context) {
	plan := s.inspector.Plan()
	if plan == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no plan yet"})
		return
	}
	c.JSON(http.StatusOK, s.planResponse(plan))
}

func (s *Server) lookup(c *gin.Context) (*planinspect.PlanningState, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "index must be an integer"})
		return nil, false
	}
	state := s.inspector.StateAt(index)
	if state == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "no state " + strconv.Itoa(index)})
		return nil, false
	}
	return state, true
}

func (s *Server) status() StatusResponse {
	resp := StatusResponse{
		Session:       s.inspector.SessionID(),
		StepNum:       s.inspector.StepNum(),
		PlanCompleted: s.inspector.PlanCompleted(),
	}
	if state := s.inspector.State(); state != nil {
		converted := s.stateResponse(state)
		resp.State = &converted
	}
	return resp
}

func (s *Server) stateResponse(state *planinspect.PlanningState) StateResponse {
	resp := StateResponse{
		Step:      state.StepIndex,
		PlanFound: state.Plan != nil,
		Expanded:  s.nodes(state, state.ExpandedNodes),
		Terminal:  s.nodes(state, state.TerminalNodes),
	}
	if state.Plan != nil {
		plan := s.planResponse(state.Plan)
		resp.Plan = &plan
	}
	return resp
}

func (s *Server) nodes(state *planinspect.PlanningState, nodes []search.Node) []NodeResponse {
	out := make([]NodeResponse, 0, len(nodes))
	for _, node := range nodes {
		resp := NodeResponse{
			ID:            int(node.ID),
			WaypointIndex: node.Waypoint,
			Orientation:   node.Orientation,
			Cost:          node.Cost,
			Parent:        int(node.Parent),
			Chain:         state.NodeChain(node),
		}
		if node.HasWaypoint() {
			resp.Waypoint = s.scenario.WaypointName(node.Waypoint)
		}
		out = append(out, resp)
	}
	return out
}

func (s *Server) planResponse(plan *search.Plan) PlanResponse {
	resp := PlanResponse{
		Waypoints:    make([]string, 0, len(plan.Waypoints)),
		Orientations: make([]float64, 0, len(plan.Waypoints)),
		Cost:         plan.Cost,
	}
	for _, wp := range plan.Waypoints {
		resp.Waypoints = append(resp.Waypoints, s.scenario.WaypointName(wp.Waypoint))
		resp.Orientations = append(resp.Orientations, wp.Orientation)
	}
	return resp
}
