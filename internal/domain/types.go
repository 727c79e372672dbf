package domain

import "time"

// CRITs 指标类型枚举，词表映射的目标集合。
const (
	TypeIPv4Address  = "IPv4 Address"
	TypeIPv4Subnet   = "IPv4 Subnet"
	TypeIPv6Address  = "IPv6 Address"
	TypeDomain       = "Domain"
	TypeURI          = "URI"
	TypeMD5          = "MD5"
	TypeSHA1         = "SHA1"
	TypeSHA256       = "SHA256"
	TypeEmailAddress = "Email Address"
	TypeFilePath     = "File Path"
	TypeImphash      = "Imphash"
	TypeMutex        = "Mutex"
)

// RelRelatedTo 是 Event 与 Indicator 之间关系边的类型。
const RelRelatedTo = "RELATED_TO"

// CanonicalIndicator 表示翻译后的标准指标，(Type, Value) 共同唯一。
type CanonicalIndicator struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Ticket 是嵌在 Event 上的导入凭据，Number 为来源 pulse 的标识。
type Ticket struct {
	Number string    `json:"ticket_number"`
	Date   time.Time `json:"date"`
}

// ImportResult 汇总单个 pulse 导入的结果。
type ImportResult struct {
	EventID           string   `json:"event_id"`
	IndicatorsCreated int      `json:"indicators_created"`
	IndicatorsReused  int      `json:"indicators_reused"`
	IndicatorsSkipped int      `json:"indicators_skipped"`
	EdgesCreated      int      `json:"edges_created"`
	SkippedTypes      []string `json:"skipped_types,omitempty"`
}
