package model

import "time"

// DailyMemo is keyed purely by its date. An empty memo is never stored:
// upserting empty content deletes the row.
type DailyMemo struct {
	MemoDate  Date      `json:"memo_date"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
