package model

import "time"

// Follow はユーザー間のフォロー関係を表す。
// UserIDがフォローする側（subscriber）、FollowingIDがフォローされる側（target）。
// (UserID, FollowingID) の組は一意で、自己フォローは存在しない。
type Follow struct {
	ID          string
	UserID      string
	FollowingID string
	CreatedAt   time.Time
}
