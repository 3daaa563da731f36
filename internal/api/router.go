// Package api exposes the read-only HTTP API over the portfolio ledger and
// verdict history.
package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bsc-token-sniper/internal/observability"
	"bsc-token-sniper/internal/portfolio"
	"bsc-token-sniper/internal/storage"
)

// Server holds the API dependencies.
type Server struct {
	ledger   *portfolio.Ledger
	verdicts storage.VerdictSink
}

// NewServer creates an API server. verdicts may be nil when no verdict sink
// is configured.
func NewServer(ledger *portfolio.Ledger, verdicts storage.VerdictSink) *Server {
	return &Server{ledger: ledger, verdicts: verdicts}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/positions", s.listPositions)
		v1.GET("/positions/:address", s.getPosition)
		v1.GET("/portfolio/summary", s.portfolioSummary)
		v1.GET("/verdicts/:address", s.verdictHistory)
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listPositions returns every tracked position.
func (s *Server) listPositions(c *gin.Context) {
	c.JSON(http.StatusOK, s.ledger.Positions())
}

// getPosition returns a single position by token address.
func (s *Server) getPosition(c *gin.Context) {
	address := strings.ToLower(c.Param("address"))
	position, ok := s.ledger.Get(address)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "position not found"})
		return
	}
	c.JSON(http.StatusOK, position)
}

// portfolioSummary returns the aggregated portfolio digest.
func (s *Server) portfolioSummary(c *gin.Context) {
	c.JSON(http.StatusOK, s.ledger.Summary())
}

// verdictHistory returns all recorded verdicts for a token.
func (s *Server) verdictHistory(c *gin.Context) {
	if s.verdicts == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "verdict history not configured"})
		return
	}
	address := strings.ToLower(c.Param("address"))
	verdicts, err := s.verdicts.GetByToken(c.Request.Context(), address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, verdicts)
}
