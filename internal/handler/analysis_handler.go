package handler

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/etf-lens/internal/analysis"
	"github.com/fleveque/etf-lens/internal/market"
	"github.com/fleveque/etf-lens/internal/model"
)

// Analyzer fetches live ETF data for a ticker.
// Go interfaces are satisfied implicitly: *analysis.Service never says
// "implements Analyzer", it just has the method. Tests pass a fake instead.
type Analyzer interface {
	Analyze(ctx context.Context, ticker string) (*model.ETFData, error)
}

// liveDataError is the only failure text clients see; the error kind is logged.
const liveDataError = "failed to fetch live data; verify the ticker and try again"

// AnalysisResponse is the body of a successful analysis.
type AnalysisResponse struct {
	Ticker  string              `json:"ticker"`
	Data    *model.ETFData      `json:"data"`
	Chart   []model.SeriesPoint `json:"chart"`
	Display model.Display       `json:"display"`
	Market  market.Session      `json:"market"`
}

// AnalysisHandler serves ETF analyses.
type AnalysisHandler struct {
	analyzer Analyzer
	logger   *zap.Logger
	now      func() time.Time
	pick     func() string
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analyzer Analyzer, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer: analyzer,
		logger:   logger,
		now:      time.Now,
		pick:     randomPopularETF,
	}
}

func randomPopularETF() string {
	return model.PopularETFs[rand.IntN(len(model.PopularETFs))]
}

// GetAnalysis returns structured data for one ETF.
// Route: GET /api/v1/analysis?ticker=voo
//
// A blank ticker picks one of the popular ETFs at random.
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	ticker := model.NormalizeTicker(c.Query("ticker"))
	if ticker == "" {
		ticker = h.pick()
	}

	data, err := h.analyzer.Analyze(c.Request.Context(), ticker)
	if err != nil {
		h.logger.Warn("analysis failed",
			zap.String("ticker", ticker),
			zap.String("kind", errorKind(err)),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": liveDataError})
		return
	}

	c.JSON(http.StatusOK, AnalysisResponse{
		Ticker:  ticker,
		Data:    data,
		Chart:   data.Performance.Series(),
		Display: data.Display(),
		Market:  market.SessionFor(ticker, h.now()),
	})
}

// errorKind names the analysis failure for logs.
func errorKind(err error) string {
	switch {
	case errors.Is(err, analysis.ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, analysis.ErrUpstreamTransport):
		return "upstream_transport"
	case errors.Is(err, analysis.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, analysis.ErrParseFailure):
		return "parse_failure"
	case errors.Is(err, analysis.ErrEmptyTicker):
		return "empty_ticker"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unknown"
	}
}
