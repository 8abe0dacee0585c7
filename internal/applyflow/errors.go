package applyflow

import (
	"errors"
	"fmt"
)

// 校验错误的字段键，与前端表单控件一一对应
const (
	FieldResume        = "resume"
	FieldResumeURL     = "resumeUrl"
	FieldCoverLetter   = "coverLetter"
	FieldAvailableFrom = "availableFrom"
)

// 字段级校验消息
const (
	MsgResumeRequired       = "请上传简历文件或填写简历链接"
	MsgResumeURLInvalid     = "简历链接格式无效，必须是有效的URL"
	MsgResumeURLTooShort    = "简历链接过短，至少10个字符"
	MsgResumeURLTooLong     = "简历链接过长，最多500个字符"
	MsgCoverLetterTooShort  = "求职信过短，至少50个字符"
	MsgCoverLetterTooLong   = "求职信过长，最多1000个字符"
	MsgAvailableFromInvalid = "请选择有效的到岗日期"
	MsgAvailableFromPast    = "到岗日期不能早于今天"
	MsgAvailableFromTooFar  = "到岗日期不能晚于一年之后"
	MsgFileTypeNotAllowed   = "不支持的文件类型，仅支持PDF、DOC、DOCX和TXT"
	MsgFileTooLarge         = "文件大小超过5MB限制"
)

var (
	// ErrLoginRequired 未登录用户尝试提交申请
	ErrLoginRequired = errors.New("请先登录后再提交申请")

	// ErrInvalidJobDetails 岗位信息缺少可用的岗位ID，属于集成错误而非用户错误
	ErrInvalidJobDetails = errors.New("岗位信息无效，缺少岗位ID")

	// ErrUploadInFlight 同一草稿已有简历上传进行中
	ErrUploadInFlight = errors.New("已有简历文件正在上传中，请等待完成")
)

// FieldError 单个字段的校验错误
// 上传器在本地前置检查失败时返回该类型，不发起任何网络请求
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("字段 %s 校验失败: %s", e.Field, e.Message)
}

// UploadFailedError 简历上传失败
// 包装传输错误或服务端错误，文件引用保持上传前的状态
type UploadFailedError struct {
	Reason string
	Err    error
}

func (e *UploadFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("简历上传失败: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("简历上传失败: %s", e.Reason)
}

func (e *UploadFailedError) Unwrap() error {
	return e.Err
}
