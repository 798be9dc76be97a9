package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	goSeal "github.com/MrEthical07/goSeal"
	"github.com/MrEthical07/goSeal/middleware"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

type postRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=20000"`
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handlers) securityReport(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.SecurityReport())
}

func (h *handlers) tokenResponse(token string) tokenResponse {
	return tokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(h.engine.TokenTTL() / time.Second),
	}
}

/*
====================================
AUTH
====================================
*/

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	principal, err := h.engine.Register(r.Context(), goSeal.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, principal)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	token, err := h.engine.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.tokenResponse(token))
}

// signContent issues a bound token over the raw request body. The body is
// used verbatim, so the client must later submit it with the same member
// order.
func (h *handlers) signContent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "body_too_large", err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	token, err := h.engine.SignContent(r.Context(), middleware.BearerToken(r), json.RawMessage(body))
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.tokenResponse(token))
}

/*
====================================
USERS
====================================
*/

func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	principals, err := h.engine.Principals(r.Context())
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	if principals == nil {
		principals = []goSeal.Principal{}
	}
	respondJSON(w, http.StatusOK, principals)
}

func (h *handlers) getUser(w http.ResponseWriter, r *http.Request) {
	principal, err := h.engine.Principal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, principal)
}

/*
====================================
POSTS
====================================
*/

func (h *handlers) listPosts(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.posts.List())
}

func (h *handlers) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

func (h *handlers) createPost(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.BoundClaimsFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, r, goSeal.ErrMissingSignature)
		return
	}

	var req postRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	post, err := h.posts.Create(claims.Subject, req.Title, req.Content)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	h.logger.Info("post created",
		zap.String("post_id", post.ID),
		zap.String("author_id", post.AuthorID),
		zap.String("token_id", claims.TokenID))
	respondJSON(w, http.StatusCreated, post)
}

func (h *handlers) updatePost(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.BoundClaimsFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, r, goSeal.ErrMissingSignature)
		return
	}

	var req postRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	post, err := h.posts.Update(chi.URLParam(r, "id"), claims.Subject, req.Title, req.Content)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	h.logger.Info("post updated",
		zap.String("post_id", post.ID),
		zap.String("token_id", claims.TokenID))
	respondJSON(w, http.StatusOK, post)
}
