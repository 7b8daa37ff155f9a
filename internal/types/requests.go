package types

// RegisterRequest represents the body of POST /api/users/
type RegisterRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// LoginRequest represents the body of POST /api/auth/token/login/
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SetPasswordRequest represents the body of POST /api/users/set_password/
type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// IngredientAmount is one ingredient line of a recipe write
type IngredientAmount struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeRequest is the write representation of a recipe. On update every
// field is optional; a present tags or ingredients list replaces the
// current set wholesale.
type RecipeRequest struct {
	Name        *string             `json:"name"`
	Text        *string             `json:"text"`
	CookingTime *int                `json:"cooking_time"`
	Image       *string             `json:"image"`
	Tags        *[]uint             `json:"tags"`
	Ingredients *[]IngredientAmount `json:"ingredients"`
}
