package types

import (
	"strings"
	"time"
)

// Document 入站的采购询价文档 (邮件/系统通知)，已解析为文本，不含附件二进制
type Document struct {
	ID          string       `json:"id"`
	Subject     string       `json:"subject"`
	Sender      string       `json:"sender"`
	Recipients  []string     `json:"recipients,omitempty"`
	Body        string       `json:"body"` // 可能是截断后的预览
	Attachments []Attachment `json:"attachments,omitempty"`
	ReceivedAt  time.Time    `json:"received_at"`
}

// Attachment 附件引用，只保留元数据
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Ref         string `json:"ref,omitempty"` // 对象存储里的 key
}

// SenderDomain 返回发件人邮箱的域名 (小写)
func (d *Document) SenderDomain() string {
	at := strings.LastIndex(d.Sender, "@")
	if at == -1 {
		return ""
	}
	domain := strings.TrimRight(d.Sender[at+1:], "> ")
	return strings.ToLower(domain)
}

// IsEmpty 主题和正文都为空时无法抽取任何东西
func (d *Document) IsEmpty() bool {
	return strings.TrimSpace(d.Subject) == "" && strings.TrimSpace(d.Body) == ""
}
