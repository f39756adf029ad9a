package dto

type RegisterDTO struct {
	Email     string `json:"email"    validate:"required,email"`
	Password  string `json:"password" validate:"required,strongpwd"`
	Username  string `json:"username" validate:"required,alphanum,min=3,max=20"`
	FirstName string `json:"first_name" validate:"max=64"`
	LastName  string `json:"last_name"  validate:"max=64"`
}

type LoginDTO struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	AccessToken  string `json:"access_token"`
}

type ValidateDTO struct {
	AccessToken string `json:"access_token" validate:"required"`
}

type LogoutDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	AccessToken  string `json:"access_token"`
}

type PasswordResetRequestDTO struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmDTO struct {
	NewPassword        string `json:"new_password"         validate:"required,strongpwd"`
	ConfirmNewPassword string `json:"confirm_new_password" validate:"required"`
}

type AdminRevokeDTO struct {
	JTI string `json:"jti" validate:"required,uuid4"`
}
