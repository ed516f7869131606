package service

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated 请求没有有效身份
	ErrUnauthenticated = errors.New("用户未登录")
	// ErrNotFound 资源不存在
	ErrNotFound = errors.New("资源不存在")
	// ErrNotificationNotFound 通知不存在
	ErrNotificationNotFound = fmt.Errorf("通知%w", ErrNotFound)
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = fmt.Errorf("用户%w", ErrNotFound)
	// ErrForbidden 不是通知的接收者
	ErrForbidden = errors.New("无权操作该通知")
	// ErrPersistence 存储操作失败
	ErrPersistence = errors.New("存储操作失败")
	// ErrInvalidInput 触发参数不合法
	ErrInvalidInput = errors.New("参数错误")
)

func persistenceError(err error) error {
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
