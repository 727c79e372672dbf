package otx

import (
	"fmt"
	"time"
)

// RawIndicator 表示 pulse 里的原始指标，类型与值均为自由文本。
type RawIndicator struct {
	Type  string `json:"type"`
	Value string `json:"indicator"`
}

// Pulse 表示订阅源下发的一个情报集合，抓取后只读。
type Pulse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Created     string         `json:"created"`
	Modified    string         `json:"modified"`
	References  []string       `json:"references"`
	Tags        []string       `json:"tags"`
	Indicators  []RawIndicator `json:"indicators"`
}

// OTX 接口使用的时间格式。
const timeLayout = "2006-01-02T15:04:05.000000"

var modifiedLayouts = []string{
	timeLayout,
	time.RFC3339,
	"2006-01-02 15:04:05.000000",
}

// ModifiedTime 解析 Modified 字段，源端格式并不统一。
func (p Pulse) ModifiedTime() (time.Time, error) {
	for _, layout := range modifiedLayouts {
		if t, err := time.Parse(layout, p.Modified); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析修改时间 %q", p.Modified)
}
