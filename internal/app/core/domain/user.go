package domain

import "strings"

// User 目前使用者
type User struct {
	UserName    string `json:"userName"`
	MemberSince string `json:"memberSince"`
}

// UserUpdate 部分更新，nil 欄位保留原值
type UserUpdate struct {
	UserName    string
	MemberSince *string
}

// Validate 登入一定要帶名稱
func (u UserUpdate) Validate() error {
	if strings.TrimSpace(u.UserName) == "" {
		return &ValidationError{Field: "userName", Err: ErrUserNameRequired}
	}
	return nil
}

// Merge 回傳合併後的新 User，MemberSince 只有在更新有帶值時才改變
func (u User) Merge(update UserUpdate) User {
	u.UserName = update.UserName
	if update.MemberSince != nil {
		u.MemberSince = *update.MemberSince
	}
	return u
}
