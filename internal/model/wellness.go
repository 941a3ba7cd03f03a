package model

type WellnessTip struct {
	Base
	Title    string `db:"title" json:"title"`
	Content  string `db:"content" json:"content"`
	Category string `db:"category" json:"category"`
	IsActive bool   `db:"is_active" json:"is_active"`
}

type CreateWellnessTipRequest struct {
	Title    string `json:"title" binding:"required,max=200"`
	Content  string `json:"content" binding:"required,max=4000"`
	Category string `json:"category" binding:"max=100"`
}
