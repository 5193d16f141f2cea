package models

// Response 管理员交互的输出
//
// 传输层先发送 Document（如有），再发送 Text
type Response struct {
	Text     string
	Document *Document
	Menu     bool // 附带管理菜单键盘
	Back     bool // 附带 "Back" 按钮
}

// Document 待发送的文本文件
type Document struct {
	FileName string
	Content  []byte
}
