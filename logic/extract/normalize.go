package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"rfq-match/types"
)

// NormalizeDocument 返回清洗后的副本，原文档不修改
func NormalizeDocument(doc *types.Document) *types.Document {
	out := *doc
	out.Subject = strings.Join(strings.Fields(cleanText(doc.Subject)), " ")
	out.Body = cleanText(doc.Body)
	out.Sender = strings.TrimSpace(doc.Sender)
	return &out
}

func cleanText(content string) string {
	// 移除 Null 字节 (常见于邮件网关转换错误)
	content = strings.ReplaceAll(content, "\x00", "")

	// 移除无效的 UTF-8 字符
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	// 其他控制字符替换为空格，保留换行和制表符
	content = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, content)

	// 去除首尾空白
	return strings.TrimSpace(content)
}

// fullText 规则阶段统一在 "主题 + 正文" 上匹配
func fullText(doc *types.Document) string {
	return doc.Subject + "\n" + doc.Body
}
