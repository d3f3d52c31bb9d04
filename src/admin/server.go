// Package admin is the ops API that runs beside the bot: health, ban list
// readout and the member data-erasure hook.
package admin

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/communitykit/suggestbox/src/suggestions/bans"
	"github.com/communitykit/suggestbox/src/suggestions/erasure"
)

type Server struct {
	engine  *gin.Engine
	addr    string
	eraser  *erasure.Service
	banList *bans.Registry
}

func New(addr string, secret []byte, eraser *erasure.Service, reg *bans.Registry) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"http://localhost:3000"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	s := &Server{engine: r, addr: addr, eraser: eraser, banList: reg}

	v1 := r.Group("/v1")
	{
		v1.GET("/health", s.health)

		secured := v1.Use(JWTMiddleware(secret))
		secured.POST("/erasure/:userID", s.eraseUser)
		secured.GET("/guilds/:guildID/bans", s.listBans)
	}

	return s
}

// Run blocks serving the API until the listener fails.
func (s *Server) Run() error {
	if err := s.engine.Run(s.addr); err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// eraseUser sweeps all guilds and anonymizes the member's suggestions. The
// suggestion bodies and resolutions survive; only the author snapshot goes.
func (s *Server) eraseUser(c *gin.Context) {
	userID := c.Param("userID")
	jobID := uuid.NewString()

	cleared, err := s.eraser.EraseUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"job_id": jobID, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "user_id": userID, "cleared": cleared})
}

func (s *Server) listBans(c *gin.Context) {
	guildID := c.Param("guildID")
	ids, err := s.banList.ListBanned(c.Request.Context(), guildID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"guild_id": guildID, "banned": ids})
}
