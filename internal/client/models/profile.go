package models

// BaseProfile is the one-per-user row in the profiles table. It is created
// lazily on first authenticated access when the signup provisioning did not
// get there first.
type BaseProfile struct {
	ID         string `json:"id"`
	Username   string `json:"username,omitempty"`
	FullName   string `json:"full_name,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	UserType   Role   `json:"user_type,omitempty"`
	Bio        string `json:"bio,omitempty"`
	Website    string `json:"website,omitempty"`
	IsArtist   bool   `json:"is_artist,omitempty"`
	IsVerified bool   `json:"is_verified,omitempty"`
}

// SellerProfile is the role-specific row for sellers.
type SellerProfile struct {
	ID           string   `json:"id"`
	Bio          string   `json:"bio,omitempty"`
	PortfolioURL string   `json:"portfolio_url,omitempty"`
	SocialLinks  []string `json:"social_links,omitempty"`
	TotalSales   int64    `json:"total_sales,omitempty"`
}

// BuyerProfile is the role-specific row for everyone else.
type BuyerProfile struct {
	ID            string   `json:"id"`
	Favorites     []string `json:"favorites,omitempty"`
	PurchaseCount int64    `json:"purchase_count,omitempty"`
	SavedItems    []string `json:"saved_items,omitempty"`
}
