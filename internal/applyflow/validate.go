package applyflow

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"job-board-go/internal/constants"
)

// ValidationResult 表单校验结果
// Errors的键为字段键（见errors.go中的Field*常量），值为展示给用户的消息
type ValidationResult struct {
	IsValid bool
	Errors  map[string]string
}

// ValidateForm 对申请草稿做完整校验
// 所有字段独立校验不短路，一次返回全部错误；hasUploadedFile为true时
// 跳过简历链接的全部检查（已上传文件优先于手动链接）。
// 该函数是纯函数，不读写草稿之外的任何状态。
func ValidateForm(draft *ApplicationDraft, hasUploadedFile bool) ValidationResult {
	return ValidateFormAt(draft, hasUploadedFile, time.Now())
}

// ValidateFormAt 同ValidateForm，但以给定时刻作为"今天"计算日期窗口
func ValidateFormAt(draft *ApplicationDraft, hasUploadedFile bool, now time.Time) ValidationResult {
	errs := make(map[string]string)

	validateResumeSource(draft, hasUploadedFile, errs)
	validateCoverLetter(draft.CoverLetter, errs)
	validateAvailableFrom(draft.AvailableFrom, now, errs)

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// validateResumeSource 校验简历来源：已上传文件或手动填写的链接二者取一
// 链接检查按 格式 -> 最小长度 -> 最大长度 的顺序，只报告第一条失败
func validateResumeSource(draft *ApplicationDraft, hasUploadedFile bool, errs map[string]string) {
	if hasUploadedFile {
		return
	}

	trimmed := strings.TrimSpace(draft.ResumeURL)
	if trimmed == "" {
		errs[FieldResume] = MsgResumeRequired
		return
	}

	if !isValidHTTPURL(trimmed) {
		errs[FieldResumeURL] = MsgResumeURLInvalid
		return
	}
	length := utf8.RuneCountInString(trimmed)
	if length < constants.ResumeURLMinLength {
		errs[FieldResumeURL] = MsgResumeURLTooShort
		return
	}
	if length > constants.ResumeURLMaxLength {
		errs[FieldResumeURL] = MsgResumeURLTooLong
	}
}

// isValidHTTPURL 链接必须是带host的绝对http/https URL
func isValidHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// validateCoverLetter 求职信可选，留空合法；非空时按字符数校验长度
func validateCoverLetter(coverLetter string, errs map[string]string) {
	if coverLetter == "" {
		return
	}

	length := utf8.RuneCountInString(coverLetter)
	if length < constants.CoverLetterMinLength {
		errs[FieldCoverLetter] = MsgCoverLetterTooShort
		return
	}
	if length > constants.CoverLetterMaxLength {
		errs[FieldCoverLetter] = MsgCoverLetterTooLong
	}
}

// validateAvailableFrom 到岗日期必填，且须落在[今天, 一年后]闭区间内
// 比较前将两端都归一化到当天零点，避免时分秒造成边界误判
func validateAvailableFrom(value string, now time.Time, errs map[string]string) {
	if value == "" {
		errs[FieldAvailableFrom] = MsgAvailableFromInvalid
		return
	}

	parsed, err := time.ParseInLocation(constants.AvailableFromDateLayout, value, now.Location())
	if err != nil {
		errs[FieldAvailableFrom] = MsgAvailableFromInvalid
		return
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, now.Location())

	if day.Before(today) {
		errs[FieldAvailableFrom] = MsgAvailableFromPast
		return
	}
	if day.After(today.AddDate(1, 0, 0)) {
		errs[FieldAvailableFrom] = MsgAvailableFromTooFar
	}
}

// CheckResumeFile 上传前的本地前置检查：文件类型和大小
// 类型以MIME为准，MIME为空或不在白名单时回退到扩展名判断；
// 大小为闭区间上界，恰好等于上限的文件合法。
// 检查失败返回*FieldError，调用方不应发起网络请求。
func CheckResumeFile(fileName, contentType string, size int64) error {
	if !isAllowedResumeType(fileName, contentType) {
		return &FieldError{Field: FieldResume, Message: MsgFileTypeNotAllowed}
	}
	if size > constants.MaxResumeFileSize {
		return &FieldError{Field: FieldResume, Message: MsgFileTooLarge}
	}
	return nil
}

func isAllowedResumeType(fileName, contentType string) bool {
	if contentType != "" {
		// 部分浏览器会在MIME后附加参数，如 "text/plain; charset=utf-8"
		mimeType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
		if constants.AllowedResumeMIMETypes[strings.ToLower(mimeType)] {
			return true
		}
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	return constants.AllowedResumeExtensions[ext]
}
