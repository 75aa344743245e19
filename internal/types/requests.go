package types

// LoginRequest represents the request body for obtaining a token
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is returned by a successful login
type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

// IngredientAmount is one ingredient line of a recipe write request
type IngredientAmount struct {
	ID     string `json:"id" binding:"required"`
	Amount int    `json:"amount" binding:"required,min=1"`
}

// RecipeWriteRequest is the body of both create (POST) and update (PATCH).
// Image stays untyped so that a non-string value reaches the image decoder
// and is reported as such.
type RecipeWriteRequest struct {
	Ingredients []IngredientAmount `json:"ingredients" binding:"required,min=1,dive"`
	Tags        []string           `json:"tags" binding:"required"`
	Image       any                `json:"image" binding:"required"`
	Name        string             `json:"name" binding:"required,max=200"`
	Text        string             `json:"text" binding:"required"`
	CookingTime *int               `json:"cooking_time" binding:"required,min=1"`
}
