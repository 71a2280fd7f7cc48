package types

// TokenInfo represents validated access token information
type TokenInfo struct {
	UserID   string
	Email    string
	Phone    string
	Name     string
	Role     string
	AuthRole string
	Valid    bool
}
