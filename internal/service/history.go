package service

import (
	"formreply/backend/internal/domain"
)

// 历史表格的排序与分页默认值
const (
	SortAsc  = "asc"
	SortDesc = "desc" // 默认按插入顺序倒序，与原表格的 # 列默认排序一致

	DefaultPageSize = 20
	MaxPageSize     = 100
)

// HistoryQuery 历史页的查询参数。
type HistoryQuery struct {
	Page     int
	PageSize int
	Sort     string // "asc" 或 "desc"，按插入顺序
}

// HistoryRow 历史表格的一行投影。
type HistoryRow struct {
	Seq        int    `json:"seq"` // 展示序号，按当前排序 1 起编号
	SentBy     string `json:"sentBy"`
	SentAt     string `json:"sentAt"` // 短格式时间
	Message    string `json:"message"`
	Attachment string `json:"attachment"` // 下载链接；无附件或文件缺失时为 "none"
}

// HistoryPage 历史表格的一页。
type HistoryPage struct {
	Rows     []HistoryRow `json:"rows"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
	Sort     string       `json:"sort"`
}

// 历史行的时间展示格式（对应原实现的 short 日期格式）
const historyTimeFormat = "2006-01-02 15:04"

// ListReplies 返回指定提交的全部回复记录，按插入顺序升序。只读、无副作用。
func (s *ReplyService) ListReplies(formID, submissionID string) ([]domain.Reply, error) {
	return s.replies.ListReplies(formID, submissionID)
}

// History 查询历史回复并投影为分页表格。排序与分页只是展示层面的重排，
// 不改动任何数据。附件引用解析失败（文件被外部删除）时该行显示 "none"，
// 页面不报错。
func (s *ReplyService) History(formID, submissionID string, query HistoryQuery) (*HistoryPage, error) {
	replies, err := s.replies.ListReplies(formID, submissionID)
	if err != nil {
		return nil, err
	}

	sort := normalizeSort(query.Sort)
	page, pageSize := normalizePaging(query.Page, query.PageSize)

	if sort == SortDesc {
		reverse(replies)
	}

	total := len(replies)
	offset := (page - 1) * pageSize
	if offset > total {
		offset = total
	}
	end := offset + pageSize
	if end > total {
		end = total
	}

	rows := make([]HistoryRow, 0, end-offset)
	for i, reply := range replies[offset:end] {
		rows = append(rows, HistoryRow{
			Seq:        offset + i + 1,
			SentBy:     reply.FromAddress,
			SentAt:     reply.SentAt.Format(historyTimeFormat),
			Message:    reply.Message,
			Attachment: s.attachmentCell(reply.AttachmentID),
		})
	}

	return &HistoryPage{
		Rows:     rows,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Sort:     sort,
	}, nil
}

// attachmentCell 将附件弱引用解析为下载链接，失败时降级为 "none"。
func (s *ReplyService) attachmentCell(attachmentID string) string {
	if attachmentID == "" {
		return "none"
	}
	url, err := s.fsStore.ResolveURL(attachmentID)
	if err != nil {
		return "none"
	}
	return url
}

func normalizeSort(sort string) string {
	if sort == SortAsc {
		return SortAsc
	}
	return SortDesc
}

func normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func reverse(replies []domain.Reply) {
	for i, j := 0, len(replies)-1; i < j; i, j = i+1, j-1 {
		replies[i], replies[j] = replies[j], replies[i]
	}
}
