package storage

import "errors"

// ErrNotFound 执行记录不存在
var ErrNotFound = errors.New("执行记录不存在")
