package domain

// NoticeLevel 通知级别
type NoticeLevel string

const (
	NoticeStatus NoticeLevel = "status"
	NoticeError  NoticeLevel = "error"
)

// Notice 表示一条面向用户的处理结果通知。
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	Address string      `json:"address,omitempty"` // 对应的收件人地址（逐收件人通知）
}

// Notices 按产生顺序收集通知，替代宿主框架的 messenger。
type Notices struct {
	items []Notice
}

// AddStatus 追加一条成功通知。
func (n *Notices) AddStatus(address, message string) {
	n.items = append(n.items, Notice{Level: NoticeStatus, Message: message, Address: address})
}

// AddError 追加一条错误通知。
func (n *Notices) AddError(address, message string) {
	n.items = append(n.items, Notice{Level: NoticeError, Message: message, Address: address})
}

// Items 返回按序通知列表。
func (n *Notices) Items() []Notice {
	return n.items
}

// HasErrors 判断是否包含错误级别通知。
func (n *Notices) HasErrors() bool {
	for _, item := range n.items {
		if item.Level == NoticeError {
			return true
		}
	}
	return false
}
