package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDescriptionRequired 描述不可為空
	ErrDescriptionRequired = errors.New("description is required")

	// ErrAmountNotFinite 金額必須是有限數值
	ErrAmountNotFinite = errors.New("amount must be a finite number")

	// ErrAmountInvalid 金額格式錯誤
	ErrAmountInvalid = errors.New("amount is not a valid number")

	// ErrDateInvalid 日期格式錯誤
	ErrDateInvalid = errors.New("date is not a valid ISO-8601 timestamp")

	// ErrUserNameRequired 登入名稱不可為空
	ErrUserNameRequired = errors.New("user name is required")
)

// ValidationError 輸入資料不合法，在修改狀態之前回傳給呼叫端
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// FetchError 遠端資料讀取或解析失敗
type FetchError struct {
	// Resource: "credits" 或 "debits"
	Resource string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
