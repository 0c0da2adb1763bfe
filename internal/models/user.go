package models

// User is an account tied to a partner by company name
type User struct {
	Base                `bson:",inline"`
	Firstname           string `json:"firstname" bson:"firstname"`
	Lastname            string `json:"lastname" bson:"lastname"`
	Email               string `json:"email" bson:"email"`
	PasswordHash        string `json:"password,omitempty" bson:"password"`
	Role                Role   `json:"role" bson:"role"`
	Company             string `json:"company" bson:"company"`
	Active              bool   `json:"active" bson:"active"`
	ResetCode           string `json:"resetCode,omitempty" bson:"resetCode,omitempty"`
	ResetCodeExpiration int64  `json:"resetCodeExpiration,omitempty" bson:"resetCodeExpiration,omitempty"`
}

// PublicUser is the client-facing view of a User without credentials
type PublicUser struct {
	ID        string `json:"id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Company   string `json:"company"`
	CompanyID string `json:"companyId,omitempty"`
	Active    bool   `json:"active"`
}

// Public strips secrets from u
func (u *User) Public(companyID string) PublicUser {
	return PublicUser{
		ID:        u.ID,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Email:     u.Email,
		Role:      u.Role,
		Company:   u.Company,
		CompanyID: companyID,
		Active:    u.Active,
	}
}

// SignupRequest is the body of POST /auth/signup
type SignupRequest struct {
	Firstname string `json:"firstname" binding:"required"`
	Lastname  string `json:"lastname" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Company   string `json:"company" binding:"required"`
	Role      Role   `json:"role"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest is the body of POST /auth/forgot-password
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyResetCodeRequest is the body of POST /auth/verify-reset-code
type VerifyResetCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// ResetPasswordRequest is the body of POST /auth/reset-password
type ResetPasswordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Code     string `json:"code" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}
