package vocab

import (
	"fmt"
	"os"
	"strings"

	"otx2crits/internal/domain"
	"gopkg.in/yaml.v3"
)

// Table 是外部词表：源类型到标准类型的映射，进程启动时加载一次，运行期不可变。
// 映射值为空字符串表示该源类型被刻意丢弃（如 PEhash、CVE、Yara）。
type Table struct {
	Types     []string          `yaml:"types"`
	Mappings  map[string]string `yaml:"mappings"`
	Normalize Normalize         `yaml:"normalize"`
}

// Normalize 描述值的归一化规则，同样由外部词表提供。
type Normalize struct {
	TrimSpace bool     `yaml:"trim_space"`
	Lowercase []string `yaml:"lowercase"`
}

// LoadTable 从文件加载词表，并校验映射目标都落在标准类型集合内。
func LoadTable(path string) (Table, error) {
	var t Table
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("读取词表失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("解析词表失败: %w", err)
	}
	if err := t.validate(); err != nil {
		return t, err
	}
	return t, nil
}

func (t Table) validate() error {
	if len(t.Mappings) == 0 {
		return fmt.Errorf("词表缺少 mappings")
	}
	allowed := make(map[string]bool, len(t.Types))
	for _, typ := range t.Types {
		allowed[typ] = true
	}
	for src, dst := range t.Mappings {
		if dst == "" {
			continue
		}
		if !allowed[dst] {
			return fmt.Errorf("映射 %q -> %q 的目标类型不在标准集合内", src, dst)
		}
	}
	return nil
}

// DefaultTable 返回与原始脚本一致的内置词表，供测试和缺省配置使用。
func DefaultTable() Table {
	return Table{
		Types: []string{
			domain.TypeIPv4Address, domain.TypeIPv4Subnet, domain.TypeIPv6Address,
			domain.TypeDomain, domain.TypeURI, domain.TypeMD5, domain.TypeSHA1,
			domain.TypeSHA256, domain.TypeEmailAddress, domain.TypeFilePath,
			domain.TypeImphash, domain.TypeMutex,
		},
		Mappings: map[string]string{
			"FileHash-SHA256": domain.TypeSHA256,
			"FileHash-SHA1":   domain.TypeSHA1,
			"FileHash-MD5":    domain.TypeMD5,
			"URI":             domain.TypeURI,
			"URL":             domain.TypeURI,
			"hostname":        domain.TypeDomain,
			"domain":          domain.TypeDomain,
			"IPv4":            domain.TypeIPv4Address,
			"IPv6":            domain.TypeIPv6Address,
			"CIDR":            domain.TypeIPv4Subnet,
			"email":           domain.TypeEmailAddress,
			"Email":           domain.TypeEmailAddress,
			"filepath":        domain.TypeFilePath,
			"Filepath":        domain.TypeFilePath,
			"FilePath":        domain.TypeFilePath,
			"Imphash":         domain.TypeImphash,
			"mutex":           domain.TypeMutex,
			"Mutex":           domain.TypeMutex,
			"PEhash":          "",
			"CVE":             "",
			"Yara":            "",
		},
		Normalize: Normalize{
			TrimSpace: true,
			Lowercase: []string{domain.TypeDomain, domain.TypeEmailAddress},
		},
	}
}

// TranslationError 表示某个源类型无法翻译，是单指标级的可恢复错误。
type TranslationError struct {
	RawType string
	Reason  string
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("无法翻译指标类型 %q: %s", e.RawType, e.Reason)
}

// Translator 把源指标翻译成标准指标，是注入词表之外无状态的纯函数。
type Translator struct {
	mappings  map[string]string
	allowed   map[string]bool
	lowercase map[string]bool
	trimSpace bool
}

// NewTranslator 根据词表构建 Translator。
func NewTranslator(t Table) (*Translator, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	allowed := make(map[string]bool, len(t.Types))
	for _, typ := range t.Types {
		allowed[typ] = true
	}
	lowercase := make(map[string]bool, len(t.Normalize.Lowercase))
	for _, typ := range t.Normalize.Lowercase {
		lowercase[typ] = true
	}
	return &Translator{
		mappings:  t.Mappings,
		allowed:   allowed,
		lowercase: lowercase,
		trimSpace: t.Normalize.TrimSpace,
	}, nil
}

// Translate 将 (rawType, rawValue) 翻译为标准指标。
// 未映射的类型与空值返回 *TranslationError，调用方按跳过处理。
func (tr *Translator) Translate(rawType, rawValue string) (domain.CanonicalIndicator, error) {
	target, ok := tr.mappings[rawType]
	if !ok {
		return domain.CanonicalIndicator{}, &TranslationError{RawType: rawType, Reason: "词表中无此类型"}
	}
	if target == "" {
		return domain.CanonicalIndicator{}, &TranslationError{RawType: rawType, Reason: "词表标记为不支持"}
	}

	value := rawValue
	if tr.trimSpace {
		value = strings.TrimSpace(value)
	}
	if value == "" {
		return domain.CanonicalIndicator{}, &TranslationError{RawType: rawType, Reason: "指标值为空"}
	}
	if tr.lowercase[target] {
		value = strings.ToLower(value)
	}
	return domain.CanonicalIndicator{Type: target, Value: value}, nil
}
