package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/toM7x7/LLM-mindmap/pkg/ai"
	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

type aiChatResponse struct {
	Success          bool   `json:"success"`
	Response         string `json:"response,omitempty"`
	Error            string `json:"error,omitempty"`
	RemainingCredits int    `json:"remaining_credits"`
}

// aiChat is the metered AI proxy. One credit is taken before the call and
// returned when the model fails.
func (s *Server) aiChat(c *gin.Context) {
	var req aiChatRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	user := currentUser(c)
	kind := ai.ProxyType(req.Type)
	if kind == "" {
		kind = ai.ProxyChat
	}

	remaining, err := s.data.CreditManager.CreditConsume(ctx, user.ID, string(kind))
	if err != nil {
		if errors.Is(err, model.ErrInsufficientCredits) {
			respondProblem(c, http.StatusPaymentRequired, "Insufficient credits")
			return
		}
		s.respondError(c, err)
		return
	}

	text, err := s.bridge.Proxy(ctx, kind, req.Prompt, req.mapContext())
	if err != nil {
		s.logger.Warn(ctx, "AI proxy call failed", log.Fields{"userID": user.ID, "type": string(kind), "error": err.Error()})
		if balance, refundErr := s.data.CreditManager.CreditRefund(ctx, user.ID, "refund: "+string(kind)); refundErr == nil {
			remaining = balance
		}
		c.JSON(statusFor(err), aiChatResponse{
			Success:          false,
			Error:            detailFor(err),
			RemainingCredits: remaining,
		})
		return
	}

	c.JSON(http.StatusOK, aiChatResponse{
		Success:          true,
		Response:         text,
		RemainingCredits: remaining,
	})
}
