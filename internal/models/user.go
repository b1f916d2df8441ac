package models

const RoleUser = "user"
const RoleAdmin = "admin"

// User is the server's user record as the client sees it. Email is never
// echoed back by the API, so it only exists on RegisterRequest.
type User struct {
	ID          ID     `json:"id,omitempty"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Role        string `json:"role,omitempty"`
}

// Name returns the display name, falling back to the username.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Same reports whether u and other refer to the same account. IDs win when
// both sides carry one; otherwise usernames are compared.
func (u User) Same(other User) bool {
	if !u.ID.Empty() && !other.ID.Empty() {
		return u.ID == other.ID
	}
	return u.Username != "" && u.Username == other.Username
}
