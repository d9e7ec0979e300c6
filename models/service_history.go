package models

import "time"

// HistoryParams 描述查询历史列表的参数（书签分页）
type HistoryParams struct {
	Cursor int64 `json:"cursor"` // rowid 书签，0 表示从最新开始
	Limit  int   `json:"limit"`  // 每页数量，默认 50，最大 200
}

// JournalEntry 一次已完成评估的记录
type JournalEntry struct {
	RowID           int64     `json:"row_id"`
	ID              string    `json:"id"`
	ImageID         string    `json:"image_id"`
	Source          string    `json:"source"`
	Provider        string    `json:"provider"`
	Model           string    `json:"model"`
	IsSetupValid    bool      `json:"is_setup_valid"`
	Verdict         string    `json:"verdict"`
	SetupType       string    `json:"setup_type"`
	ConfluenceScore int       `json:"confluence_score"`
	Result          string    `json:"result"` // AnalysisResult JSON
	CreatedAt       time.Time `json:"created_at"`
}

// JournalStats 汇总统计
type JournalStats struct {
	Total        int    `json:"total"`
	Approved     int    `json:"approved"`
	ApprovalRate string `json:"approval_rate"` // 百分比，两位小数
	AverageScore string `json:"average_score"` // 两位小数
	TopSetupType string `json:"top_setup_type"`
}
