package domain

import "errors"

// ErrDuplicate 唯一键冲突（仓储层翻译自驱动错误）
var ErrDuplicate = errors.New("duplicate key")

// ErrNotFound 写操作目标不存在
var ErrNotFound = errors.New("record not found")
