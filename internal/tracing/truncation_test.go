package tracing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateStringShortInput(t *testing.T) {
	assert.Equal(t, "hello", TruncateString("hello", 10), "短于上限的字符串应原样返回")
}

func TestTruncateStringLongInput(t *testing.T) {
	long := strings.Repeat("a", 50) + strings.Repeat("b", 50)
	got := TruncateString(long, 21)
	assert.LessOrEqual(t, len([]rune(got)), 21)
	assert.Contains(t, got, "...", "截断后应包含省略号")
	assert.True(t, strings.HasPrefix(got, "aaa"), "应保留开头部分")
	assert.True(t, strings.HasSuffix(got, "bbb"), "应保留结尾部分")
}

func TestMaskPII(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"a", "*"},
		{"张三", "张*"},
		{"王小明", "王*明"},
		{"13812345678", "13*******78"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, MaskPII(c.in), "输入: %q", c.in)
	}
}

func TestSafeAttributeValueMasksSensitiveNames(t *testing.T) {
	got := SafeAttributeValue("user.email", "myemail@example.com", DefaultMaxLength)
	assert.NotEqual(t, "myemail@example.com", got, "email字段应被掩码")
	assert.Contains(t, got, "*")
}

func TestSafeAttributeValueTruncatesNonSensitive(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := SafeAttributeValue("db.statement", long, DefaultMaxLength)
	assert.LessOrEqual(t, len([]rune(got)), DefaultMaxLength)
}

func TestSafeDocumentContentLimit(t *testing.T) {
	long := strings.Repeat("r", MaxDocumentLength*2)
	got := SafeDocumentContent(long)
	assert.LessOrEqual(t, len([]rune(got)), MaxDocumentLength)
}
