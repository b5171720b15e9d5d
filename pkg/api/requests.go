package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/toM7x7/LLM-mindmap/pkg/ai"
)

// MaxTitleLength bounds mindmap titles.
const MaxTitleLength = 200

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *registerRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Password, validation.Required),
	)
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func (r *updateUserRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.Password, validation.NilOrNotEmpty),
	)
}

type mindmapRequest struct {
	Title string          `json:"title"`
	Data  json.RawMessage `json:"data"`
}

func (r *mindmapRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, MaxTitleLength)),
		validation.Field(&r.Data, validation.Required),
	)
}

type purchaseRequest struct {
	PackageID int `json:"package_id"`
}

func (r *purchaseRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.PackageID, validation.Required, validation.Min(1)),
	)
}

type aiChatRequest struct {
	Prompt  string          `json:"prompt"`
	Context json.RawMessage `json:"context"`
	Type    string          `json:"type"`
}

func (r *aiChatRequest) Validate() error {
	types := make([]interface{}, 0, len(ai.ProxyTypes))
	for _, t := range ai.ProxyTypes {
		types = append(types, string(t))
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.Prompt, validation.Required),
		validation.Field(&r.Type, validation.In(types...)),
	)
}

// mapContext returns the context object as text, or "" when absent.
func (r *aiChatRequest) mapContext() string {
	if len(r.Context) == 0 || string(r.Context) == "null" {
		return ""
	}
	return string(r.Context)
}

// bindJSON decodes and validates the request body, responding with a problem on failure.
func bindJSON(c *gin.Context, req validation.Validatable) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondProblem(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := req.Validate(); err != nil {
		respondProblem(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
