package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"codejudge/internal/judgeclient"
	"codejudge/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	defaultWriteTimeout   = 10 * time.Second
	maxStreamMessageBytes = 1 << 20
	maxQueuedRequests     = 4
)

// Workflows runs the judge workflows on behalf of stream clients.
type Workflows interface {
	Run(ctx context.Context, in judgeclient.ExecutionInput, reporter judgeclient.StatusReporter) string
	Submit(ctx context.Context, in judgeclient.SubmissionInput, reporter judgeclient.StatusReporter) string
}

// StreamHandler runs workflows over a websocket and streams every status
// update. A connection may carry several requests; they run one at a time,
// up to maxQueuedRequests wait behind the running one and further requests
// are dropped. A closed connection cancels the workflow in flight.
type StreamHandler struct {
	workflows    Workflows
	defaultCase  judgeclient.TestCase
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
}

// NewStreamHandler builds a handler. An empty allowedOrigins accepts only
// same-origin upgrades; "*" accepts any origin.
func NewStreamHandler(workflows Workflows, defaultCase judgeclient.TestCase, allowedOrigins []string) *StreamHandler {
	h := &StreamHandler{
		workflows:    workflows,
		defaultCase:  defaultCase,
		writeTimeout: defaultWriteTimeout,
	}
	if len(allowedOrigins) > 0 {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return origin == ""
		}
	}
	return h
}

// StreamRequest is one workflow request read from the socket.
type StreamRequest struct {
	Mode           string  `json:"mode"` // run | submit, defaults to submit
	SourceCode     string  `json:"sourceCode"`
	Language       string  `json:"language"`
	Stdin          string  `json:"stdin"`
	ExpectedOutput *string `json:"expectedOutput,omitempty"`
}

// StreamMessage is one status update written to the socket.
type StreamMessage struct {
	InvocationID string `json:"invocationId,omitempty"`
	Workflow     string `json:"workflow,omitempty"`
	Stage        string `json:"stage"`
	Token        string `json:"token,omitempty"`
	Status       string `json:"status,omitempty"`
	Text         string `json:"text"`
	Final        bool   `json:"final"`
	Error        string `json:"error,omitempty"`
}

func (h *StreamHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already answered the request
		logger.Warn(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxStreamMessageBytes)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The reader never blocks on the queue so it sees a close while a
	// workflow is running.
	frames := make(chan []byte, maxQueuedRequests)
	go func() {
		defer close(frames)
		defer cancel()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			select {
			case frames <- data:
			default:
				logger.Warn(ctx, "websocket request dropped, queue full", zap.Int("queued", maxQueuedRequests))
			}
		}
	}()

	for data := range frames {
		if ctx.Err() != nil {
			return
		}
		var req StreamRequest
		if err := json.Unmarshal(data, &req); err != nil {
			h.write(ctx, conn, StreamMessage{Stage: judgeclient.StageFinished.String(), Final: true, Error: "invalid request: " + err.Error()})
			continue
		}
		h.serve(ctx, conn, req)
	}
}

func (h *StreamHandler) serve(ctx context.Context, conn *websocket.Conn, req StreamRequest) {
	reporter := judgeclient.ReporterFunc(func(ctx context.Context, u judgeclient.StatusUpdate) {
		msg := StreamMessage{
			InvocationID: u.InvocationID,
			Workflow:     string(u.Workflow),
			Stage:        u.Stage.String(),
			Token:        u.Token,
			Text:         u.Text,
			Final:        u.Final(),
		}
		if u.Final() || u.Token != "" {
			msg.Status = u.Status.String()
		}
		h.write(ctx, conn, msg)
	})

	switch strings.ToLower(strings.TrimSpace(req.Mode)) {
	case "run":
		h.workflows.Run(ctx, judgeclient.ExecutionInput{
			SourceCode: req.SourceCode,
			Language:   req.Language,
			Stdin:      req.Stdin,
		}, reporter)
	case "", "submit":
		testCase := h.defaultCase
		if req.ExpectedOutput != nil {
			testCase = judgeclient.TestCase{Stdin: req.Stdin, ExpectedOutput: *req.ExpectedOutput}
		}
		h.workflows.Submit(ctx, judgeclient.SubmissionInput{
			SourceCode: req.SourceCode,
			Language:   req.Language,
			TestCase:   testCase,
		}, reporter)
	default:
		h.write(ctx, conn, StreamMessage{Stage: judgeclient.StageFinished.String(), Final: true, Error: "unknown mode: " + req.Mode})
	}
}

func (h *StreamHandler) write(ctx context.Context, conn *websocket.Conn, msg StreamMessage) {
	_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		logger.Debug(ctx, "websocket write failed", zap.Error(err))
	}
}
