package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stroke-risk-api/internal/encoder"
	"stroke-risk-api/internal/features"
	"stroke-risk-api/internal/inference"
)

// DefaultMaxBodyBytes caps prediction request bodies when Config leaves it unset.
const DefaultMaxBodyBytes int64 = 1 << 20

// Config defines server options.
type Config struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// Predictor scores prediction request bodies.
type Predictor interface {
	Predict(body []byte) ([]inference.Prediction, error)
	Info() inference.ModelInfo
}

// Server wires HTTP handlers with the inference pipeline.
type Server struct {
	predictor      Predictor
	allowedOrigins []string
	maxBodyBytes   int64
}

// NewServer constructs the API server.
func NewServer(cfg Config, predictor Predictor) (*Server, error) {
	if predictor == nil {
		return nil, errors.New("predictor required")
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Server{
		predictor:      predictor,
		allowedOrigins: cfg.AllowedOrigins,
		maxBodyBytes:   maxBody,
	}, nil
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	if err := corsCfg.Validate(); err != nil {
		return nil, fmt.Errorf("cors config: %w", err)
	}
	r.Use(cors.New(corsCfg))

	api := r.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.GET("/model", s.handleModel)
		api.POST("/hfp_prediction", s.handlePredict)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleModel(c *gin.Context) {
	c.JSON(http.StatusOK, toModelInfoDTO(s.predictor.Info()))
}

func (s *Server) handlePredict(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.renderError(c, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("read request body: %w", err))
		return
	}

	preds, err := s.predictor.Predict(body)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			logrus.WithError(err).Error("prediction failed")
		}
		s.renderError(c, status, err)
		return
	}

	resp := PredictionsResponse{Predictions: make([]PredictionDTO, len(preds))}
	for i, p := range preds {
		resp.Predictions[i] = toPredictionDTO(p)
	}
	c.JSON(http.StatusOK, resp)
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		missing *features.MissingFeatureError
		invalid *features.InvalidValueError
		unknown *encoder.UnknownCategoryError
	)
	switch {
	case errors.Is(err, features.ErrMalformedRequest),
		errors.As(err, &missing),
		errors.As(err, &invalid),
		errors.As(err, &unknown):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
