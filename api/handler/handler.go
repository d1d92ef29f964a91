package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rfq-match/api/response"
	"rfq-match/service"
	"rfq-match/types"
)

// Matcher 由 service.MatchService 实现
type Matcher interface {
	Process(ctx context.Context, doc *types.Document) (*types.ProcessResult, error)
	Suggest(ctx context.Context, in types.SuggestRequest) ([]types.SupplierMatchResult, error)
	GetMatches(ctx context.Context, documentID string) (*types.MatchesResponse, error)
	SubmitFeedback(ctx context.Context, in types.FeedbackRequest) (*types.Feedback, error)
	UpsertSupplier(ctx context.Context, s *types.Supplier) error
}

type MatchHandler struct {
	svc Matcher
	log *zap.Logger
}

func NewMatchHandler(svc Matcher, log *zap.Logger) *MatchHandler {
	return &MatchHandler{svc: svc, log: log.Named("http")}
}

// ClassifyDocument 同步跑完整流水线
func (h *MatchHandler) ClassifyDocument(c *gin.Context) {
	var doc types.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	result, err := h.svc.Process(c.Request.Context(), &doc)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, result)
}

func (h *MatchHandler) Suggest(c *gin.Context) {
	var req types.SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	matches, err := h.svc.Suggest(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"matches": matches, "total": len(matches)})
}

// GetMatches 没有记录时仍返回成功，found=false
func (h *MatchHandler) GetMatches(c *gin.Context) {
	docID := c.Param("documentId")
	resp, err := h.svc.GetMatches(c.Request.Context(), docID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, resp)
}

func (h *MatchHandler) SubmitFeedback(c *gin.Context) {
	var req types.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	fb, err := h.svc.SubmitFeedback(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, fb)
}

// UpsertSupplier 路径里的 id 为准
func (h *MatchHandler) UpsertSupplier(c *gin.Context) {
	var sup types.Supplier
	if err := c.ShouldBindJSON(&sup); err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	sup.ID = c.Param("id")
	if err := h.svc.UpsertSupplier(c.Request.Context(), &sup); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, sup)
}

func (h *MatchHandler) fail(c *gin.Context, err error) {
	var extErr *types.ExtractionError
	switch {
	// 超时/取消可能被包在 ExtractionError 里，要先于 400 判断
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		h.log.Warn("request timed out", zap.String("path", c.FullPath()), zap.Error(err))
		response.FailWithStatus(c, http.StatusServiceUnavailable, "request timed out")
	case errors.Is(err, service.ErrEmptySuggestion),
		errors.Is(err, service.ErrInvalidFeedback),
		errors.Is(err, service.ErrInvalidSupplier),
		errors.As(err, &extErr):
		response.FailWithStatus(c, http.StatusBadRequest, err.Error())
	case types.IsTransient(err), errors.Is(err, types.ErrCatalogUnavailable):
		h.log.Warn("dependency unavailable", zap.String("path", c.FullPath()), zap.Error(err))
		response.FailWithStatus(c, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.FailWithStatus(c, http.StatusInternalServerError, "internal error")
	}
}
