package domain

import "encoding/json"

type Item struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	ImageURL    string `db:"image_url"`
	Description string `db:"description"`
	TagsJSON    string `db:"tags_json"`
	ViewCount   int64  `db:"view_count"`
	LikeCount   int64  `db:"like_count"`
	OwnerUserID string `db:"owner_user_id"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`

	// Per-caller annotations, only set by listings that were given a user id.
	IsLiked  bool `db:"-"`
	IsViewed bool `db:"-"`
}

// Tags decodes TagsJSON; malformed or empty payloads yield no tags.
func (it Item) Tags() []string {
	if it.TagsJSON == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(it.TagsJSON), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

// ItemFields are the owner-editable display fields. Nil pointers are left unchanged on update.
type ItemFields struct {
	Name        *string
	ImageURL    *string
	Description *string
	Tags        []string
}

// Interaction is the ledger row for one (user, item) pair.
type Interaction struct {
	UserID    string `db:"user_id"`
	ItemID    string `db:"item_id"`
	Viewed    bool   `db:"viewed"`
	Liked     bool   `db:"liked"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type ItemQuery struct {
	Page      int
	Limit     int
	Search    string
	SortKey   string // name | viewCount | likeCount | createdAt | updatedAt
	SortOrder SortOrder
	UserID    string // annotate isLiked/isViewed for this user
	OwnerID   string // only items created by this user
}
