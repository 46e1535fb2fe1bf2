package domain

// RoleAdmin is the role string that unlocks partner and user management.
const RoleAdmin = "admin"

// User is a dashboard account belonging to a partner organization.
type User struct {
	ID        string `json:"_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Partner   string `json:"partner"`
	CreatedAt string `json:"createdAt"`
}

// CreateUser is the payload for provisioning a new account.
type CreateUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
	Partner  string `json:"partner,omitempty"`
}

// PartnerData is the mutable part of a partner record.
type PartnerData struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	LogoImage   string `json:"logoImage"`
}

// CreatePartner provisions a partner together with its first user.
type CreatePartner struct {
	PartnerData
	FirstUser CreateUser `json:"firstUser"`
}

// Partner is a server-canonical partner organization.
type Partner struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	LogoImage   string `json:"logoImage"`
	Users       []User `json:"users"`
	CreatedAt   string `json:"createdAt"`
}

// Collection is a named catalog grouping of activations.
type Collection struct {
	ID            string         `json:"_id"`
	Thumb         string         `json:"thumb"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	Tags          []string       `json:"tags"`
	ExternalLinks []ExternalLink `json:"externalLinks"`
	PublisherIcon string         `json:"publisherIcon"`
	PublisherName string         `json:"publisherName"`
	Activations   []Activation   `json:"activations"`
	CatalogLabel  string         `json:"catalogLabel,omitempty"`
	TotalLikes    int            `json:"totalLikes"`
	TotalViews    int            `json:"totalViews"`
}

// Stats is the aggregate usage summary shown on the dashboard. The same
// shape is served for the current user and per partner.
type Stats struct {
	ActivationsCount     int `json:"activationsCount"`
	CollectionsCount     int `json:"collectionsCount"`
	TotalActivationViews int `json:"totalActivationViews"`
	TotalActivationScans int `json:"totalActivationScans"`
	TotalCollectionViews int `json:"totalCollectionViews"`
}

// CollectionData is the mutable part of a collection record.
type CollectionData struct {
	Thumb         string         `json:"thumb"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	Tags          []string       `json:"tags"`
	ExternalLinks []ExternalLink `json:"externalLinks"`
	CatalogLabel  string         `json:"catalogLabel,omitempty"`
}

// LoginResponse carries the bearer token issued by the auth endpoint.
type LoginResponse struct {
	Token string `json:"token"`
}

// IsAdmin reports whether the user may manage partners and accounts.
func IsAdmin(u *User) bool {
	return u != nil && u.Role == RoleAdmin
}
