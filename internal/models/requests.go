package models

type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type ProfileUpdate struct {
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
	Avatar      string `json:"avatar"`
}

type ProfileResponse struct {
	User *User `json:"user"`
}

type PostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type CommentInput struct {
	Content string `json:"content"`
}

type AvatarUploadResponse struct {
	AvatarURL string `json:"avatarUrl"`
}
