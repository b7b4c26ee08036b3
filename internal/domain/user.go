package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID        string `db:"id"`
	Email     string `db:"email"`
	Name      string `db:"name"`
	Hash      string `db:"password_hash"`
	Role      string `db:"role"`
	Balance   int64  `db:"balance"`
	CreatedAt string `db:"created_at"`
}

type UserStats struct {
	User
	TotalViews int64 `db:"total_views"`
	TotalLikes int64 `db:"total_likes"`
	TotalItems int64 `db:"total_items"`
}

type UserQuery struct {
	Page      int
	Limit     int
	Search    string
	SortKey   string // totalViews | totalLikes | totalItems | name | createdAt
	SortOrder SortOrder
}
