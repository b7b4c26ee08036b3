package handlers

import "showroom/internal/domain"

// JSON shapes returned by the API. Storage columns never leave through anything else.

type itemView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ImageURL    string   `json:"imageUrl"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	ViewCount   int64    `json:"viewCount"`
	LikeCount   int64    `json:"likeCount"`
	OwnerUserID string   `json:"ownerUserId"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
	IsLiked     bool     `json:"isLiked"`
	IsViewed    bool     `json:"isViewed"`
}

func toItemView(it domain.Item) itemView {
	return itemView{
		ID: it.ID, Name: it.Name, ImageURL: it.ImageURL, Description: it.Description,
		Tags: it.Tags(), ViewCount: it.ViewCount, LikeCount: it.LikeCount,
		OwnerUserID: it.OwnerUserID, CreatedAt: it.CreatedAt, UpdatedAt: it.UpdatedAt,
		IsLiked: it.IsLiked, IsViewed: it.IsViewed,
	}
}

type interactionView struct {
	UserID    string `json:"userId"`
	ItemID    string `json:"itemId"`
	Viewed    bool   `json:"viewed"`
	Liked     bool   `json:"liked"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

type categoryView struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	IsParent  bool          `json:"isParent"`
	ParentID  string        `json:"parentId,omitempty"`
	Parent    *categoryView `json:"parent,omitempty"`
	Active    bool          `json:"active"`
	CreatedAt string        `json:"createdAt"`
	UpdatedAt string        `json:"updatedAt"`
}

func toCategoryView(c domain.Category) categoryView {
	info := c.Info()
	v := categoryView{
		ID: info.ID, Name: info.Name, Active: info.Active,
		CreatedAt: info.CreatedAt, UpdatedAt: info.UpdatedAt,
	}
	switch c := c.(type) {
	case domain.ParentCategory:
		v.IsParent = true
	case domain.ChildCategory:
		v.ParentID = c.ParentID
		if c.Parent != nil {
			p := toCategoryView(*c.Parent)
			v.Parent = &p
		}
	}
	return v
}

type productView struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Price       int64         `json:"price"`
	ImageURL    string        `json:"imageUrl"`
	CategoryID  string        `json:"categoryId"`
	Category    *categoryView `json:"category,omitempty"`
	IsPopular   bool          `json:"isPopular"`
	Rating      float64       `json:"rating"`
	Active      bool          `json:"active"`
	CreatedAt   string        `json:"createdAt"`
	UpdatedAt   string        `json:"updatedAt"`
}

func toProductView(p domain.Product) productView {
	v := productView{
		ID: p.ID, Name: p.Name, Description: p.Description, Price: p.Price, ImageURL: p.ImageURL,
		CategoryID: p.CategoryID, IsPopular: p.IsPopular, Rating: p.Rating, Active: p.Active,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
	if p.Category != nil {
		c := toCategoryView(*p.Category)
		v.Category = &c
	}
	return v
}

func toProductViews(ps []domain.Product) []productView {
	out := make([]productView, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductView(p))
	}
	return out
}

type ownershipView struct {
	ID           string       `json:"id"`
	ProductID    string       `json:"productId"`
	PurchaseDate string       `json:"purchaseDate"`
	IsUsed       bool         `json:"isUsed"`
	Product      *productView `json:"product,omitempty"`
}

type userView struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Balance   int64  `json:"balance"`
	CreatedAt string `json:"createdAt"`
}

func toUserView(u domain.User) userView {
	return userView{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, Balance: u.Balance, CreatedAt: u.CreatedAt}
}

type userStatsView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	CreatedAt  string `json:"createdAt"`
	TotalViews int64  `json:"totalViews"`
	TotalLikes int64  `json:"totalLikes"`
	TotalItems int64  `json:"totalItems"`
}

type pageView struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}
