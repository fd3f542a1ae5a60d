package mailer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

// buildMessage 将 Email 组装为 RFC 5322 报文。
//
// 无附件时正文直接作为 text/html 实体；有附件时构造 multipart/mixed，
// 调用方提供的 Content-Type / Content-Transfer-Encoding 头部作用于正文部分，
// 外层实体必须是 multipart，因此不会照搬到外层。
func buildMessage(email *Email) []byte {
	var buf bytes.Buffer

	writeHeader(&buf, "From", email.From)
	writeHeader(&buf, "To", email.To)
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", email.Subject))
	writeHeader(&buf, "Date", time.Now().UTC().Format(time.RFC1123Z))
	writeHeader(&buf, "Message-ID", fmt.Sprintf("<%s@formreply>", uuid.NewString()))

	bodyType := "text/html; charset=UTF-8"
	bodyEncoding := ""
	extra := make(map[string]string, len(email.Headers))
	for k, v := range email.Headers {
		switch k {
		case HeaderContentType:
			bodyType = v
		case HeaderContentTransferEncoding:
			bodyEncoding = v
		case HeaderMIMEVersion:
			// 统一写出，避免重复
		default:
			extra[k] = v
		}
	}
	for _, k := range sortedKeys(extra) {
		writeHeader(&buf, k, extra[k])
	}
	writeHeader(&buf, HeaderMIMEVersion, MIMEVersionValue)

	if email.Attachment == nil {
		writeHeader(&buf, HeaderContentType, bodyType)
		if bodyEncoding != "" {
			writeHeader(&buf, HeaderContentTransferEncoding, bodyEncoding)
		}
		buf.WriteString("\r\n")
		buf.WriteString(email.HTMLBody)
		buf.WriteString("\r\n")
		return buf.Bytes()
	}

	boundary := "formreply-" + uuid.NewString()
	writeHeader(&buf, HeaderContentType, fmt.Sprintf("multipart/mixed; boundary=%q", boundary))
	buf.WriteString("\r\n")

	// 正文部分
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	writeHeader(&buf, HeaderContentType, bodyType)
	if bodyEncoding != "" {
		writeHeader(&buf, HeaderContentTransferEncoding, bodyEncoding)
	}
	buf.WriteString("\r\n")
	buf.WriteString(email.HTMLBody)
	buf.WriteString("\r\n")

	// 附件部分
	att := email.Attachment
	contentType := att.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(att.Filename))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	writeHeader(&buf, HeaderContentType, fmt.Sprintf("%s; name=%q", contentType, att.Filename))
	writeHeader(&buf, "Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Filename))
	writeHeader(&buf, HeaderContentTransferEncoding, "base64")
	buf.WriteString("\r\n")
	writeBase64(&buf, att.Content)

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	fmt.Fprintf(buf, "%s: %s\r\n", key, value)
}

// writeBase64 按76列换行写出base64内容
func writeBase64(buf *bytes.Buffer, content []byte) {
	encoded := base64.StdEncoding.EncodeToString(content)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	if len(encoded) > 0 {
		buf.WriteString(encoded)
		buf.WriteString("\r\n")
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
