package applyflow

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 固定的"今天"，避免测试结果依赖运行时刻
var testNow = time.Date(2026, 8, 28, 15, 30, 45, 0, time.UTC)

// dateOffset 相对testNow偏移指定天数的日期字符串
func dateOffset(days int) string {
	return testNow.AddDate(0, 0, days).Format("2006-01-02")
}

// validDraft 构造一份能通过全部校验的草稿
func validDraft() *ApplicationDraft {
	return &ApplicationDraft{
		ResumeURL:     "https://cdn.example.com/resumes/alice.pdf",
		AvailableFrom: dateOffset(10),
	}
}

// TestValidateFormValidDraft 验证合法草稿通过校验且错误集为空
func TestValidateFormValidDraft(t *testing.T) {
	result := ValidateFormAt(validDraft(), false, testNow)

	assert.True(t, result.IsValid, "合法草稿应通过校验")
	assert.Empty(t, result.Errors, "通过校验时错误集应为空")
}

// TestValidateFormResumeRequired 验证无上传文件且链接为空时报告简历缺失
func TestValidateFormResumeRequired(t *testing.T) {
	draft := validDraft()
	draft.ResumeURL = ""

	result := ValidateFormAt(draft, false, testNow)

	assert.False(t, result.IsValid)
	assert.Equal(t, MsgResumeRequired, result.Errors[FieldResume], "应报告简历来源缺失")
	// 纯空白的链接同样视为缺失
	draft.ResumeURL = "   "
	result = ValidateFormAt(draft, false, testNow)
	assert.Equal(t, MsgResumeRequired, result.Errors[FieldResume])
}

// TestValidateFormUploadedFileSkipsURLChecks 验证有上传文件时跳过链接的全部检查
func TestValidateFormUploadedFileSkipsURLChecks(t *testing.T) {
	draft := validDraft()
	draft.ResumeURL = "not-a-url" // 格式非法，但有上传文件时不应被检查

	result := ValidateFormAt(draft, true, testNow)

	assert.True(t, result.IsValid, "存在上传文件时不应校验手动链接")
	assert.NotContains(t, result.Errors, FieldResumeURL)
	assert.NotContains(t, result.Errors, FieldResume)
}

// TestValidateFormResumeURLOrdering 验证链接检查按 格式->最短->最长 顺序只报第一条
func TestValidateFormResumeURLOrdering(t *testing.T) {
	tests := []struct {
		name      string
		resumeURL string
		wantMsg   string
	}{
		{"格式无效", "ftp://example.com/resume.pdf", MsgResumeURLInvalid},
		{"无协议头", "example.com/resume.pdf", MsgResumeURLInvalid},
		{"过短", "http://a", MsgResumeURLTooShort},
		{"过长", "https://example.com/" + strings.Repeat("x", 500), MsgResumeURLTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			draft.ResumeURL = tt.resumeURL

			result := ValidateFormAt(draft, false, testNow)

			assert.False(t, result.IsValid)
			assert.Equal(t, tt.wantMsg, result.Errors[FieldResumeURL])
		})
	}
}

// TestValidateFormResumeURLBoundaries 验证链接长度边界值（10和500为合法值）
func TestValidateFormResumeURLBoundaries(t *testing.T) {
	// 恰好10个字符
	draft := validDraft()
	draft.ResumeURL = "https://ab" // len == 10
	require.Len(t, draft.ResumeURL, 10)
	result := ValidateFormAt(draft, false, testNow)
	assert.True(t, result.IsValid, "长度恰好为10的链接应合法")

	// 恰好500个字符
	base := "https://example.com/"
	draft.ResumeURL = base + strings.Repeat("x", 500-len(base))
	require.Len(t, draft.ResumeURL, 500)
	result = ValidateFormAt(draft, false, testNow)
	assert.True(t, result.IsValid, "长度恰好为500的链接应合法")
}

// TestValidateFormResumeURLCountsRunes 验证链接长度按字符数而非字节数计算
func TestValidateFormResumeURLCountsRunes(t *testing.T) {
	// 500个字符的含中文路径链接，UTF-8字节数远超500
	base := "https://example.com/简历/"
	draft := validDraft()
	draft.ResumeURL = base + strings.Repeat("简", 500-utf8.RuneCountInString(base))
	require.Equal(t, 500, utf8.RuneCountInString(draft.ResumeURL))
	require.Greater(t, len(draft.ResumeURL), 500, "用例需要字节数超过上限")

	result := ValidateFormAt(draft, false, testNow)

	assert.True(t, result.IsValid, "500个多字节字符的链接应合法")

	// 再多一个字符即超限
	draft.ResumeURL += "简"
	result = ValidateFormAt(draft, false, testNow)
	assert.Equal(t, MsgResumeURLTooLong, result.Errors[FieldResumeURL])
}

// TestValidateFormCoverLetter 验证求职信可选且长度约束只对非空值生效
func TestValidateFormCoverLetter(t *testing.T) {
	// 留空合法
	draft := validDraft()
	draft.CoverLetter = ""
	result := ValidateFormAt(draft, false, testNow)
	assert.True(t, result.IsValid, "空求职信应合法")

	// 49个字符过短
	draft.CoverLetter = strings.Repeat("a", 49)
	result = ValidateFormAt(draft, false, testNow)
	assert.Equal(t, MsgCoverLetterTooShort, result.Errors[FieldCoverLetter])

	// 50个字符恰好合法
	draft.CoverLetter = strings.Repeat("a", 50)
	result = ValidateFormAt(draft, false, testNow)
	assert.True(t, result.IsValid)

	// 1000个字符恰好合法
	draft.CoverLetter = strings.Repeat("a", 1000)
	result = ValidateFormAt(draft, false, testNow)
	assert.True(t, result.IsValid)

	// 1001个字符过长
	draft.CoverLetter = strings.Repeat("a", 1001)
	result = ValidateFormAt(draft, false, testNow)
	assert.Equal(t, MsgCoverLetterTooLong, result.Errors[FieldCoverLetter])
}

// TestValidateFormCoverLetterCountsRunes 验证长度按字符数而非字节数计算
func TestValidateFormCoverLetterCountsRunes(t *testing.T) {
	draft := validDraft()
	// 50个中文字符，UTF-8编码下字节数远超50
	draft.CoverLetter = strings.Repeat("好", 50)

	result := ValidateFormAt(draft, false, testNow)

	assert.True(t, result.IsValid, "50个多字节字符的求职信应合法")
}

// TestValidateFormAvailableFrom 验证到岗日期窗口[今天, 一年后]
func TestValidateFormAvailableFrom(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantMsg string // 为空表示应合法
	}{
		{"缺失", "", MsgAvailableFromInvalid},
		{"格式错误", "2026/09/01", MsgAvailableFromInvalid},
		{"非日期", "not-a-date", MsgAvailableFromInvalid},
		{"昨天", dateOffset(-1), MsgAvailableFromPast},
		{"今天", dateOffset(0), ""},
		{"十天后", dateOffset(10), ""},
		{"恰好一年后", testNow.AddDate(1, 0, 0).Format("2006-01-02"), ""},
		{"超过一年", dateOffset(400), MsgAvailableFromTooFar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			draft.AvailableFrom = tt.value

			result := ValidateFormAt(draft, false, testNow)

			if tt.wantMsg == "" {
				assert.True(t, result.IsValid, "日期 %q 应合法", tt.value)
			} else {
				assert.Equal(t, tt.wantMsg, result.Errors[FieldAvailableFrom])
			}
		})
	}
}

// TestValidateFormCollectsAllErrors 验证校验不短路，一次返回全部字段错误
func TestValidateFormCollectsAllErrors(t *testing.T) {
	draft := &ApplicationDraft{
		ResumeURL:     "",
		CoverLetter:   "too short",
		AvailableFrom: dateOffset(-5),
	}

	result := ValidateFormAt(draft, false, testNow)

	require.False(t, result.IsValid)
	assert.Len(t, result.Errors, 3, "三个字段的错误应同时返回")
	assert.Equal(t, MsgResumeRequired, result.Errors[FieldResume])
	assert.Equal(t, MsgCoverLetterTooShort, result.Errors[FieldCoverLetter])
	assert.Equal(t, MsgAvailableFromPast, result.Errors[FieldAvailableFrom])
}

// TestValidateFormIsPure 验证校验函数不修改草稿
func TestValidateFormIsPure(t *testing.T) {
	draft := validDraft()
	snapshot := *draft

	_ = ValidateFormAt(draft, false, testNow)

	assert.Equal(t, snapshot, *draft, "校验不应修改草稿内容")
}

// TestCheckResumeFile 验证上传前的本地类型和大小检查
func TestCheckResumeFile(t *testing.T) {
	const maxSize = 5 * 1024 * 1024

	tests := []struct {
		name        string
		fileName    string
		contentType string
		size        int64
		wantMsg     string
	}{
		{"合法PDF", "resume.pdf", "application/pdf", 1024, ""},
		{"大小恰好等于上限", "resume.pdf", "application/pdf", maxSize, ""},
		{"超过上限一字节", "resume.pdf", "application/pdf", maxSize + 1, MsgFileTooLarge},
		{"MIME带参数", "resume.txt", "text/plain; charset=utf-8", 100, ""},
		{"MIME为空回退扩展名", "resume.docx", "", 100, ""},
		{"扩展名大小写不敏感", "RESUME.PDF", "", 100, ""},
		{"类型不允许", "photo.png", "image/png", 100, MsgFileTypeNotAllowed},
		{"无扩展名且MIME未知", "resume", "application/octet-stream", 100, MsgFileTypeNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckResumeFile(tt.fileName, tt.contentType, tt.size)

			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr, "本地检查失败应返回FieldError")
			assert.Equal(t, FieldResume, fieldErr.Field)
			assert.Equal(t, tt.wantMsg, fieldErr.Message)
		})
	}
}

// TestResolveJobID 验证岗位ID按 id -> jobId -> postId 顺序解析
func TestResolveJobID(t *testing.T) {
	assert.Equal(t, "j-1", (&JobDetails{ID: "j-1", JobID: "j-2", PostID: "j-3"}).ResolveJobID())
	assert.Equal(t, "j-2", (&JobDetails{JobID: "j-2", PostID: "j-3"}).ResolveJobID())
	assert.Equal(t, "j-3", (&JobDetails{PostID: "j-3"}).ResolveJobID())
	assert.Equal(t, "", (&JobDetails{}).ResolveJobID())

	var nilJob *JobDetails
	assert.Equal(t, "", nilJob.ResolveJobID(), "nil岗位信息应解析为空ID")
}

// TestAuthoritativeResumeURL 验证已上传文件的URL优先于手动链接
func TestAuthoritativeResumeURL(t *testing.T) {
	draft := &ApplicationDraft{ResumeURL: "https://manual.example.com/resume.pdf"}
	assert.Equal(t, "https://manual.example.com/resume.pdf", draft.AuthoritativeResumeURL())

	draft.SetUploadedFile("resume.pdf", 1024, "https://cdn.example.com/uploaded.pdf")
	assert.Equal(t, "https://cdn.example.com/uploaded.pdf", draft.AuthoritativeResumeURL(), "上传文件存在时应以其URL为准")

	draft.RemoveUploadedFile()
	assert.Equal(t, "https://manual.example.com/resume.pdf", draft.AuthoritativeResumeURL(), "移除上传文件后恢复使用手动链接")
}
