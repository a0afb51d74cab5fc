// Package api exposes the memory graph over HTTP
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"memgraph/backend/internal/constants"
	"memgraph/backend/internal/graph"
	"memgraph/backend/internal/memorize"
	"memgraph/backend/internal/observe"
	apperrors "memgraph/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Snapshots saves and loads the whole graph. Implementations serialize the
// two. *graphstore.Store satisfies it.
type Snapshots interface {
	Save(ctx context.Context, g *graph.Graph) error
	Load(ctx context.Context, g *graph.Graph) error
}

// Memorizer turns text into memories. *memorize.Memorizer satisfies it.
type Memorizer interface {
	Memorize(ctx context.Context, text string) (*memorize.Result, error)
}

// FetchFunc returns the readable text of a web page
type FetchFunc func(ctx context.Context, url string) (string, error)

// Deps are the collaborators served by the router
type Deps struct {
	Graph       *graph.Graph
	Snapshots   Snapshots
	Memorizer   Memorizer
	Fetch       FetchFunc
	RecallDepth int
	Metrics     *observe.Metrics
	Logger      *zap.Logger
}

type server struct {
	Deps
}

// NewRouter builds the gin engine with every route registered
func NewRouter(d Deps) *gin.Engine {
	if d.Metrics == nil {
		d.Metrics = observe.DefaultMetrics()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	s := &server{Deps: d}

	router := gin.New()
	router.Use(requestID())
	router.Use(ginLogger(d.Logger, d.Metrics))
	router.Use(gin.Recovery())
	router.Use(cors())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(observe.Handler()))

	api := router.Group("/api")
	{
		api.GET("/concepts", s.listConcepts)
		api.GET("/concepts/:concept", s.getConcept)
		api.GET("/concepts/:concept/related", s.getRelated)
		api.POST("/concepts/:concept/fragments", s.addFragment)
		api.POST("/associations", s.addAssociation)
		api.GET("/graph/prominent", s.prominent)
		api.POST("/memorize", s.memorize)
		api.POST("/snapshot/save", s.saveSnapshot)
		api.POST("/snapshot/load", s.loadSnapshot)
	}

	return router
}

func (s *server) listConcepts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"concepts": s.Graph.Stats(),
		"edges":    s.Graph.EdgeCount(),
	})
}

func (s *server) getConcept(c *gin.Context) {
	concept := c.Param("concept")
	node, ok := s.Graph.Node(concept)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Concept not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"concept":   node.Concept,
		"fragments": node.Fragments,
		"degree":    s.Graph.Degree(concept),
	})
}

func (s *server) getRelated(c *gin.Context) {
	depth, err := intQuery(c, "depth", s.RecallDepth)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "depth must be an integer"})
		return
	}
	c.JSON(http.StatusOK, s.Graph.Recall(c.Param("concept"), depth))
}

func (s *server) addFragment(c *gin.Context) {
	var req struct {
		Fragment string `json:"fragment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	concept := c.Param("concept")
	s.Graph.AddFragment(concept, req.Fragment)
	node, _ := s.Graph.Node(concept)
	c.JSON(http.StatusCreated, node)
}

func (s *server) addAssociation(c *gin.Context) {
	var req struct {
		Source string `json:"source" binding:"required"`
		Target string `json:"target" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.Graph.Connect(req.Source, req.Target)
	c.JSON(http.StatusCreated, graph.Edge{Source: req.Source, Target: req.Target})
}

func (s *server) prominent(c *gin.Context) {
	minFragments, err := intQuery(c, "min_fragments", constants.DefaultProminentFragments)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_fragments must be an integer"})
		return
	}
	minDegree, err := intQuery(c, "min_degree", constants.DefaultProminentDegree)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_degree must be an integer"})
		return
	}

	concepts := s.Graph.Prominent(minFragments, minDegree)
	if concepts == nil {
		concepts = []graph.NodeStat{}
	}
	c.JSON(http.StatusOK, gin.H{"concepts": concepts})
}

func (s *server) memorize(c *gin.Context) {
	if s.Memorizer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Memorizer not configured"})
		return
	}

	var req struct {
		Text string `json:"text"`
		URL  string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	text := strings.TrimSpace(req.Text)
	if text == "" && req.URL != "" {
		if s.Fetch == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Page fetching not configured"})
			return
		}
		fetched, err := s.Fetch(ctx, req.URL)
		if err != nil {
			s.Logger.Warn("Failed to fetch page", zap.String("url", req.URL), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		text = fetched
	}
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text or url is required"})
		return
	}

	res, err := s.Memorizer.Memorize(ctx, text)
	if err != nil {
		if errors.Is(err, memorize.ErrNoTopics) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		s.Logger.Error("Failed to memorize text", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "result": res})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *server) saveSnapshot(c *gin.Context) {
	s.persist(c, "saved")
}

func (s *server) loadSnapshot(c *gin.Context) {
	s.persist(c, "loaded")
}

func (s *server) persist(c *gin.Context, status string) {
	if s.Snapshots == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Snapshot store not configured"})
		return
	}

	op := s.Snapshots.Save
	if status == "loaded" {
		op = s.Snapshots.Load
	}

	if err := op(c.Request.Context(), s.Graph); err != nil {
		s.Logger.Error("Snapshot operation failed",
			zap.String("op", status),
			zap.Bool("retryable", apperrors.IsRetryable(err)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"nodes":  s.Graph.Len(),
		"edges":  s.Graph.EdgeCount(),
	})
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
