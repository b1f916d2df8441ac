package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/crucial707/blog-client/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ==========================
// Auth
// ==========================

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username    string `json:"username" validate:"required,min=3"`
		Email       string `json:"email" validate:"required,email"`
		Password    string `json:"password" validate:"required,min=6"`
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(input); err != nil {
		jsonError(w, "username, email and password are required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[input.Username]; exists {
		jsonError(w, "username already taken", http.StatusConflict)
		return
	}
	u := s.addAccount(input.Username, input.Password, input.Email, input.DisplayName, models.RoleUser)
	writeJSON(w, http.StatusCreated, map[string]any{"user": u})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var input models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	a, ok := s.accounts[input.Username]
	var u models.User
	if ok {
		u = a.user
	}
	s.mu.Unlock()
	if !ok || a.password != input.Password {
		jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{Token: s.Token(input.Username), User: &u})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var input models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	name := r.Context().Value(usernameKey).(string)

	s.mu.Lock()
	a := s.accounts[name]
	a.user.DisplayName = input.DisplayName
	a.user.Bio = input.Bio
	a.user.Avatar = input.Avatar
	u := a.user
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.ProfileResponse{User: &u})
}

func (s *Server) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		jsonError(w, "invalid upload", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		jsonError(w, "avatar file is required", http.StatusBadRequest)
		return
	}
	file.Close()

	s.mu.Lock()
	s.uploads = append(s.uploads, Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        int(header.Size),
	})
	s.mu.Unlock()

	url := "/uploads/avatars/" + uuid.NewString() + filepath.Ext(header.Filename)
	writeJSON(w, http.StatusOK, models.AvatarUploadResponse{AvatarURL: url})
}

// ==========================
// Posts
// ==========================

// view renders p for the given caller. Callers hold s.mu.
func (s *Server) view(p *post, caller string) map[string]any {
	author := models.User{Username: p.author}
	if a, ok := s.accounts[p.author]; ok {
		author = a.user
	}
	comments := p.comments
	if comments == nil {
		comments = []models.Comment{}
	}
	return map[string]any{
		"id":           p.id,
		"title":        p.title,
		"content":      p.content,
		"author":       author,
		"createdAt":    p.createdAt.Format(time.RFC3339),
		"likeCount":    len(p.likes),
		"isLiked":      caller != "" && p.likes[caller],
		"commentCount": len(p.comments),
		"comments":     comments,
	}
}

func (s *Server) find(id string) *post {
	for _, p := range s.posts {
		if string(p.id) == id {
			return p
		}
	}
	return nil
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	caller := s.usernameFromHeader(r)
	s.mu.Lock()
	out := make([]map[string]any, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, s.view(p, caller))
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) myPosts(w http.ResponseWriter, r *http.Request) {
	caller := r.Context().Value(usernameKey).(string)
	s.mu.Lock()
	out := make([]map[string]any, 0)
	for _, p := range s.posts {
		if p.author == caller {
			out = append(out, s.view(p, caller))
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

type postInput struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var input postInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(input); err != nil {
		jsonError(w, "title and content are required", http.StatusBadRequest)
		return
	}
	caller := r.Context().Value(usernameKey).(string)

	id := s.SeedPost(caller, input.Title, input.Content)
	s.mu.Lock()
	out := s.view(s.find(string(id)), caller)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, out)
}

// owned loads the post and checks the caller may change it. Callers hold s.mu.
func (s *Server) owned(w http.ResponseWriter, r *http.Request) (*post, string, bool) {
	caller := r.Context().Value(usernameKey).(string)
	p := s.find(chi.URLParam(r, "id"))
	if p == nil {
		jsonError(w, "post not found", http.StatusNotFound)
		return nil, caller, false
	}
	if p.author != caller && s.accounts[caller].user.Role != models.RoleAdmin {
		jsonError(w, "forbidden", http.StatusForbidden)
		return nil, caller, false
	}
	return p, caller, true
}

func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	var input postInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(input); err != nil {
		jsonError(w, "title and content are required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, caller, ok := s.owned(w, r)
	if !ok {
		return
	}
	p.title = input.Title
	p.content = input.Content
	writeJSON(w, http.StatusOK, s.view(p, caller))
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, _, ok := s.owned(w, r)
	if !ok {
		return
	}
	kept := s.posts[:0]
	for _, other := range s.posts {
		if other != p {
			kept = append(kept, other)
		}
	}
	s.posts = kept
	writeJSON(w, http.StatusOK, map[string]string{"message": "post deleted"})
}

func (s *Server) toggleLike(w http.ResponseWriter, r *http.Request) {
	caller := r.Context().Value(usernameKey).(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.find(chi.URLParam(r, "id"))
	if p == nil {
		jsonError(w, "post not found", http.StatusNotFound)
		return
	}
	if p.likes[caller] {
		delete(p.likes, caller)
	} else {
		p.likes[caller] = true
	}
	writeJSON(w, http.StatusOK, models.LikeResult{LikeCount: len(p.likes), IsLiked: p.likes[caller]})
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Content string `json:"content" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(input); err != nil {
		jsonError(w, "content is required", http.StatusBadRequest)
		return
	}
	caller := r.Context().Value(usernameKey).(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.find(chi.URLParam(r, "id"))
	if p == nil {
		jsonError(w, "post not found", http.StatusNotFound)
		return
	}
	s.nextID++
	author := s.accounts[caller].user
	c := models.Comment{
		ID:        models.ID(fmt.Sprint(s.nextID)),
		Content:   input.Content,
		Author:    &author,
		CreatedAt: models.Timestamp{Time: time.Now().UTC()},
	}
	p.comments = append(p.comments, c)
	writeJSON(w, http.StatusCreated, c)
}
