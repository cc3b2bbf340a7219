// Package visualization serves the generated data files and a small lookup
// API for local development of the mini-program.
package visualization

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"investnotes/internal/export"
	"investnotes/internal/scoring"
	"investnotes/internal/utils"
	"investnotes/models"
)

const maxSearchResults = 20

type Server struct {
	dataDir string
	logger  *utils.Logger
	engine  *gin.Engine

	mu     sync.RWMutex
	stocks map[string]models.Stock
}

// NewServer serves the files under dataDir at /data. Call Reload to load
// the stock lists for the API.
func NewServer(dataDir string, logger *utils.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		dataDir: dataDir,
		logger:  logger,
		engine:  gin.New(),
		stocks:  make(map[string]models.Stock),
	}

	s.engine.Use(gin.Recovery(), s.logRequests())
	s.engine.Static("/data", dataDir)
	s.engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/data/"+export.FileSummary)
	})
	s.engine.GET("/healthz", s.health)
	s.engine.GET("/api/stocks/:code", s.stock)
	s.engine.GET("/api/search", s.search)
	s.engine.POST("/api/reload", s.reload)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Reload reads stocks_a.json and stocks_hk.json from the data directory.
func (s *Server) Reload() error {
	a, hk, err := export.LoadStocks(s.dataDir)
	if err != nil {
		return err
	}
	stocks := make(map[string]models.Stock, len(a.Stocks)+len(hk.Stocks))
	for _, st := range append(a.Stocks, hk.Stocks...) {
		stocks[st.Code] = st
	}

	s.mu.Lock()
	s.stocks = stocks
	s.mu.Unlock()
	s.logger.Info("Loaded %d stocks from %s", len(stocks), s.dataDir)
	return nil
}

// Run listens on addr until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.logger.Info("Starting server on %s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}

func (s *Server) health(c *gin.Context) {
	s.mu.RLock()
	n := len(s.stocks)
	s.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "stocks": n})
}

// stock returns the record and a fresh analysis. The target price here
// scales with the score, unlike the fixed ratio of analysis_samples.json.
func (s *Server) stock(c *gin.Context) {
	code := c.Param("code")
	s.mu.RLock()
	st, ok := s.stocks[code]
	s.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "stock not found", "code": code})
		return
	}

	analysis := export.Sample(st)
	analysis.InvestmentSummary.TargetPrice = scoring.TargetPrice(st.CurrentPrice, st.LaoLiuScore)
	c.JSON(http.StatusOK, gin.H{"stock": st, "analysis": analysis})
}

// search matches q against code prefix, name and pinyin initials.
func (s *Server) search(c *gin.Context) {
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing q"})
		return
	}

	s.mu.RLock()
	var hits []models.Stock
	for _, st := range s.stocks {
		if strings.HasPrefix(st.Code, q) ||
			strings.Contains(strings.ToLower(st.Name), q) ||
			strings.HasPrefix(export.Initials(st.Name), q) {
			hits = append(hits, st)
		}
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].LaoLiuScore != hits[j].LaoLiuScore {
			return hits[i].LaoLiuScore > hits[j].LaoLiuScore
		}
		return hits[i].Code < hits[j].Code
	})
	if len(hits) > maxSearchResults {
		hits = hits[:maxSearchResults]
	}
	if hits == nil {
		hits = []models.Stock{}
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "results": hits})
}

func (s *Server) reload(c *gin.Context) {
	if err := s.Reload(); err != nil {
		s.logger.Error("Reload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.health(c)
}
