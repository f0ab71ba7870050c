package model

// Vote is one account's signed preference on one post. The composite key
// allows a single row per (user, post); Value is always +1 or -1.
type Vote struct {
	UserID uint `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	PostID uint `gorm:"primaryKey;autoIncrement:false;index" json:"post_id"`
	Value  int  `gorm:"not null" json:"value"`
}

type VoteKey struct {
	UserID uint
	PostID uint
}

func (v Vote) Key() VoteKey {
	return VoteKey{UserID: v.UserID, PostID: v.PostID}
}
