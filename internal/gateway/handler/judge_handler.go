// Package handler serves the judge gateway endpoints.
package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"codejudge/internal/codec"
	"codejudge/internal/common/cache"
	"codejudge/internal/judge0"
	pkgerrors "codejudge/pkg/errors"
	"codejudge/pkg/utils/logger"
	"codejudge/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Judge runs a submission to completion.
type Judge interface {
	CreateAndWait(ctx context.Context, req judge0.SubmissionRequest) (codec.ServiceResponse, error)
}

// JudgeHandler serves the single-shot execution endpoint.
type JudgeHandler struct {
	judge     Judge
	languages codec.LanguageTable
	results   cache.BasicOps
	resultTTL time.Duration
}

// NewJudgeHandler builds a handler. results may be nil to disable result
// caching.
func NewJudgeHandler(judge Judge, languages codec.LanguageTable, results cache.BasicOps, resultTTL time.Duration) *JudgeHandler {
	return &JudgeHandler{judge: judge, languages: languages, results: results, resultTTL: resultTTL}
}

type submitCodeRequest struct {
	SourceCode string `json:"sourceCode" binding:"required"`
	LanguageID int    `json:"languageId" binding:"required"`
	Stdin      string `json:"stdin"`
	// ProgramInput is accepted as an alias of stdin.
	ProgramInput string `json:"programInput"`
}

type languageView struct {
	Key string `json:"key"`
	ID  int    `json:"id"`
}

// SubmitCode forwards plain source to the judge and returns its raw answer,
// text fields still in transport form.
func (h *JudgeHandler) SubmitCode(c *gin.Context) {
	var req submitCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	key, ok := h.languages.Lookup(req.LanguageID)
	if !ok {
		response.Error(c, pkgerrors.UnsupportedLanguage(strconv.Itoa(req.LanguageID)))
		return
	}
	stdin := req.Stdin
	if stdin == "" {
		stdin = req.ProgramInput
	}
	ctx := c.Request.Context()

	submission := judge0.NewSubmissionRequest(req.SourceCode, req.LanguageID, stdin, nil)
	load := func(ctx context.Context) (codec.ServiceResponse, error) {
		return h.judge.CreateAndWait(ctx, submission)
	}

	var (
		result codec.ServiceResponse
		hit    bool
		err    error
	)
	if h.results != nil {
		result, hit, err = cache.GetWithCached(ctx, h.results, resultKey(req.LanguageID, req.SourceCode, stdin), h.resultTTL,
			cacheableResult, marshalResult, unmarshalResult, load)
	} else {
		result, err = load(ctx)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Status == nil {
		response.Error(c, pkgerrors.New(pkgerrors.JudgeBadResponse).WithMessage("judge response has no status"))
		return
	}
	logger.Debug(ctx, "execution finished",
		zap.String("language", key),
		zap.Int("status_id", result.Status.ID),
		zap.Bool("cached", hit))
	c.JSON(http.StatusOK, result)
}

// Languages lists the supported language keys and ids.
func (h *JudgeHandler) Languages(c *gin.Context) {
	keys := h.languages.Keys()
	views := make([]languageView, 0, len(keys))
	for _, k := range keys {
		id, _ := h.languages.Resolve(k)
		views = append(views, languageView{Key: k, ID: id})
	}
	response.Success(c, views)
}

func resultKey(languageID int, source, stdin string) string {
	sum := sha256.New()
	sum.Write([]byte(strconv.Itoa(languageID)))
	sum.Write([]byte{0})
	sum.Write([]byte(source))
	sum.Write([]byte{0})
	sum.Write([]byte(stdin))
	return "judge:result:" + hex.EncodeToString(sum.Sum(nil))
}

// cacheableResult keeps only verdicts that depend on the program alone.
func cacheableResult(r codec.ServiceResponse) bool {
	if r.Status == nil {
		return false
	}
	status := codec.StatusFromID(r.Status.ID)
	return status.IsTerminal() && status != codec.StatusOther
}

func marshalResult(r codec.ServiceResponse) (string, error) {
	data, err := json.Marshal(r)
	return string(data), err
}

func unmarshalResult(s string) (codec.ServiceResponse, error) {
	var r codec.ServiceResponse
	err := json.Unmarshal([]byte(s), &r)
	return r, err
}
