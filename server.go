package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// DefaultListLimit caps session listings when no limit is given.
const DefaultListLimit = 50

// Server exposes the debate orchestrator and session history over HTTP
// for the web front-end. One server drives one active debate session.
type Server struct {
	debate  *Debate
	history *HistoryManager
	router  *gin.Engine
}

// NewServer wires the HTTP routes around a debate session and its
// history manager.
func NewServer(debate *Debate, history *HistoryManager) *Server {
	router := gin.Default()

	// Request size limit middleware
	router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBodySize)
		c.Next()
	})

	// CORS middleware with dynamic origin validation
	router.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			// In production, use environment-configured origins
			if len(CORSAllowedOrigins) > 0 && CORSAllowedOrigins[0] != "" {
				for _, allowedOrigin := range CORSAllowedOrigins {
					if origin == allowedOrigin {
						return true
					}
				}
				return false
			}
			// In development, allow any localhost/127.0.0.1 origin
			return len(origin) >= 16 && origin[:16] == "http://localhost" ||
				len(origin) >= 14 && origin[:14] == "http://127.0.0"
		},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))

	s := &Server{
		debate:  debate,
		history: history,
		router:  router,
	}

	router.GET("/", s.healthCheck)
	router.GET("/api/sessions", s.listSessionsHandler)
	router.GET("/api/sessions/search", s.searchSessionsHandler)
	router.GET("/api/sessions/:id", s.getSessionHandler)
	router.POST("/api/sessions/:id/snapshot", s.snapshotHandler)
	router.DELETE("/api/sessions/:id/messages/:index", s.deleteMessageHandler)
	router.POST("/api/debate", s.runDebateHandler)
	router.POST("/api/debate/stream", s.streamDebateHandler)
	router.POST("/api/fetch-url", s.fetchURLHandler)

	return s
}

// Run starts the HTTP server on the given address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// healthCheck returns a simple health check response.
// GET / - Returns service status information.
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "AI Debate API",
	})
}

// listSessionsHandler lists session summaries, newest first.
// GET /api/sessions?limit=N
func (s *Server) listSessionsHandler(c *gin.Context) {
	limit := DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Invalid limit: %q", raw),
			})
			return
		}
		limit = parsed
	}

	summaries, err := s.history.ListAllDebates(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Failed to list sessions: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, summaries)
}

// searchSessionsHandler searches history by keyword and/or date range.
// GET /api/sessions/search?keyword=&start_date=&end_date= (YYYY-MM-DD)
func (s *Server) searchSessionsHandler(c *gin.Context) {
	paths, err := s.history.SearchDebates(c.Query("keyword"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Search failed: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": paths})
}

// getSessionHandler loads one session's canonical file.
// GET /api/sessions/:id
func (s *Server) getSessionHandler(c *gin.Context) {
	sessionID := c.Param("id")

	data, err := s.history.LoadDebate(s.history.sessionPath(sessionID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Session not found",
		})
		return
	}

	c.JSON(http.StatusOK, data)
}

// snapshotHandler creates a point-in-time copy of a session.
// POST /api/sessions/:id/snapshot
func (s *Server) snapshotHandler(c *gin.Context) {
	sessionID := c.Param("id")

	path, err := s.history.CreateSnapshot(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Failed to create snapshot: %v", err),
		})
		return
	}
	if path == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Session not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshot": path})
}

// deleteMessageHandler removes one message from a session by position.
// DELETE /api/sessions/:id/messages/:index
func (s *Server) deleteMessageHandler(c *gin.Context) {
	sessionID := c.Param("id")

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid message index: %q", c.Param("index")),
		})
		return
	}

	if !s.history.DeleteMessage(sessionID, index) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Message not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// runDebateHandler runs one full three-phase cycle and returns all
// phase results at once. Use streamDebateHandler for the SSE version.
// POST /api/debate - Body: {"topic": "..."}
func (s *Server) runDebateHandler(c *gin.Context) {
	var request RunDebateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid request: %v", err),
		})
		return
	}

	results, err := s.debate.RunDebateCycle(c.Request.Context(), request.Topic)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Debate cycle failed: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, RunDebateResponse{
		SessionID: s.debate.SessionID,
		Results:   results,
	})
}

// streamDebateHandler runs one cycle and streams progress via SSE.
// POST /api/debate/stream - Body: {"topic": "..."}
// Events: phase_start, phase_complete (per phase), complete, error.
func (s *Server) streamDebateHandler(c *gin.Context) {
	var request RunDebateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid request: %v", err),
		})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	d := s.debate
	d.Messages = []Message{{Role: RoleInput, Content: request.Topic}}

	var transcript []Message
	for _, phase := range DebatePhases {
		sendSSEEvent(c, gin.H{"type": "phase_start", "phase": phase})

		topic := ""
		if phase == PhasePropose {
			topic = request.Topic
		}
		responses, next := d.RunPhase(ctx, phase, topic, transcript)
		transcript = next

		sendSSEEvent(c, gin.H{"type": "phase_complete", "phase": phase, "data": responses})
	}

	if _, err := d.History.SaveDebate(d.SessionID, d.Messages); err != nil {
		sendSSEError(c, fmt.Sprintf("Failed to save session: %v", err))
		return
	}

	sendSSEEvent(c, gin.H{"type": "complete", "session_id": d.SessionID})
}

// fetchURLHandler fetches and extracts readable content from a URL so
// the front-end can seed a debate topic from a page.
// POST /api/fetch-url - Body: {"url": "https://..."}
func (s *Server) fetchURLHandler(c *gin.Context) {
	var request FetchURLRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid request: %v", err),
		})
		return
	}

	content, err := FetchURLContent(c.Request.Context(), request.URL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Failed to fetch URL content: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"content": content})
}

// sendSSEEvent sends a Server-Sent Event.
func sendSSEEvent(c *gin.Context, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal SSE event: %v", err)
		return
	}
	c.Writer.WriteString(fmt.Sprintf("data: %s\n\n", string(jsonData)))
	c.Writer.Flush()
}

// sendSSEError sends an error event via SSE.
func sendSSEError(c *gin.Context, message string) {
	sendSSEEvent(c, gin.H{"type": "error", "message": message})
}
