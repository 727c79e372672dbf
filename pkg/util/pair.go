package util

import "strings"

// PairKey 返回 (type, value) 对的稳定去重键。
// 用不可打印分隔符避免 "a|b"+"c" 与 "a"+"b|c" 之类的碰撞。
func PairKey(typ, value string) string {
	var sb strings.Builder
	sb.Grow(len(typ) + len(value) + 1)
	sb.WriteString(typ)
	sb.WriteByte(0x1f)
	sb.WriteString(value)
	return sb.String()
}
