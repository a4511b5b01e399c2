package api

type SignupForm struct {
	Email    string `schema:"email" validate:"required,email,max=150"`
	Password string `schema:"password" validate:"required,min=6"`
	Confirm  string `schema:"confirm" validate:"required,eqfield=Password"`
}

type LoginForm struct {
	Email    string `schema:"email" validate:"required,email"`
	Password string `schema:"password" validate:"required,min=6"`
}

type RequestResetForm struct {
	Email string `schema:"email" validate:"required,email"`
}

type ResetPasswordForm struct {
	Password string `schema:"password" validate:"required,min=6"`
	Confirm  string `schema:"confirm" validate:"required,eqfield=Password"`
}

type ProfileForm struct {
	Username string `schema:"username" validate:"omitempty,max=100"`
}
