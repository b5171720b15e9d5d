package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) getCredits(c *gin.Context) {
	credit, err := s.data.CreditManager.CreditGet(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, credit)
}

func (s *Server) purchaseCredits(c *gin.Context) {
	var req purchaseRequest
	if !bindJSON(c, &req) {
		return
	}

	credit, err := s.data.CreditManager.CreditPurchase(c.Request.Context(), currentUser(c).ID, req.PackageID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, credit)
}

func (s *Server) listPackages(c *gin.Context) {
	c.JSON(http.StatusOK, s.data.CreditManager.Packages())
}

func (s *Server) listTransactions(c *gin.Context) {
	txs, err := s.data.CreditManager.Transactions(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}
