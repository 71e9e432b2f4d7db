package record

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated 未认证会话禁止写入任何记录表——本系统唯一的授权规则。
var ErrNotAuthenticated = errors.New("not authenticated")

// ValidationError 提交前的字段校验错误：空必填字段、越界评分、非法枚举。
// 校验失败时不会发起任何存储操作；错误串可直接展示给用户。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation err 是否为校验错误。
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
