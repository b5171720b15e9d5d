package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) createUser(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := s.data.UserManager.UserAdd(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// login implements the OAuth2 password form: username carries the email.
func (s *Server) login(c *gin.Context) {
	email, password := c.PostForm("username"), c.PostForm("password")
	if email == "" || password == "" {
		respondProblem(c, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := s.data.UserManager.UserAuthenticate(c.Request.Context(), email, password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	token, err := s.issuer.IssueToken(user)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (s *Server) getMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (s *Server) updateMe(c *gin.Context) {
	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := s.data.UserManager.UserUpdate(c.Request.Context(), currentUser(c), req.Username, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// deleteMe closes the caller's account. Mindmaps and credits are removed with it.
func (s *Server) deleteMe(c *gin.Context) {
	if err := s.data.UserManager.UserDelete(c.Request.Context(), currentUser(c)); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
