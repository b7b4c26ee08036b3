package domain

// Category is either a ParentCategory or a ChildCategory. The hierarchy is
// two levels deep by construction: only ChildCategory carries a parent.
type Category interface {
	Info() CategoryInfo
	isCategory()
}

type CategoryInfo struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt string
	UpdatedAt string
}

type ParentCategory struct {
	CategoryInfo
}

type ChildCategory struct {
	CategoryInfo
	ParentID string
	Parent   *ParentCategory // populated by joined reads
}

func (c ParentCategory) Info() CategoryInfo { return c.CategoryInfo }
func (c ChildCategory) Info() CategoryInfo  { return c.CategoryInfo }

func (ParentCategory) isCategory() {}
func (ChildCategory) isCategory()  {}

type Product struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	Description string  `db:"description"`
	Price       int64   `db:"price"` // credits
	ImageURL    string  `db:"image_url"`
	CategoryID  string  `db:"category_id"`
	IsPopular   bool    `db:"is_popular"`
	Rating      float64 `db:"rating"`
	Active      bool    `db:"active"`
	CreatedAt   string  `db:"created_at"`
	UpdatedAt   string  `db:"updated_at"`

	Category *ChildCategory `db:"-"`
}

type ProductFields struct {
	Name        *string
	Description *string
	Price       *int64
	ImageURL    *string
	CategoryID  *string
	IsPopular   *bool
	Active      *bool
}

type Ownership struct {
	ID           string `db:"id"`
	UserID       string `db:"user_id"`
	ProductID    string `db:"product_id"`
	PurchaseDate string `db:"purchase_date"`
	IsUsed       bool   `db:"is_used"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`

	Product *Product `db:"-"`
}

type PurchaseResult struct {
	Success    bool
	Message    string
	NewBalance int64
}
