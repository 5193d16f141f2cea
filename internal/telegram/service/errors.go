package service

import "errors"

var (
	// ErrUnauthorized 调用者不在管理员列表中
	ErrUnauthorized = errors.New("🚫 You are not authorized!")

	// ErrInvalidInterval 转发周期不是正整数
	ErrInvalidInterval = errors.New("❌ Invalid input. Please enter a positive number.")

	// ErrFileTooLarge 上传文件超过大小限制
	ErrFileTooLarge = errors.New("❌ File is too large. Please upload a TXT file under 1 MiB.")

	// ErrEmptyLink 未提供消息链接
	ErrEmptyLink = errors.New("❌ Message link is empty.")
)
