// Package applyflow 实现岗位申请提交流程的客户端工作流：
// 上传能力预检、简历文件上传（带进度）、表单校验与申请提交。
package applyflow

// UploadedFile 已成功上传的简历文件引用
// 仅在上传成功后由草稿持有，只能由用户显式移除
type UploadedFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"` // 字节数
	URL  string `json:"url"`
}

// ApplicationDraft 申请表单草稿，生命周期与一次打开的申请对话框一致
type ApplicationDraft struct {
	// CoverLetter 求职信，可选；非空时须满足长度约束
	CoverLetter string

	// ResumeURL 手动填写的简历链接；上传文件存在时该字段被忽略
	ResumeURL string

	// AvailableFrom 到岗日期，ISO日历日期格式（如 "2026-09-01"），必填
	AvailableFrom string

	// UploadedFile 上传成功的简历文件，未上传时为nil
	UploadedFile *UploadedFile
}

// HasUploadedFile 草稿是否持有已上传的简历文件
func (d *ApplicationDraft) HasUploadedFile() bool {
	return d.UploadedFile != nil && d.UploadedFile.URL != ""
}

// AuthoritativeResumeURL 解析提交时实际生效的简历URL
// 已上传文件的URL优先，无上传文件时才使用手动填写的链接
func (d *ApplicationDraft) AuthoritativeResumeURL() string {
	if d.HasUploadedFile() {
		return d.UploadedFile.URL
	}
	return d.ResumeURL
}

// SetUploadedFile 记录上传成功的文件引用
func (d *ApplicationDraft) SetUploadedFile(name string, size int64, url string) {
	d.UploadedFile = &UploadedFile{Name: name, Size: size, URL: url}
}

// RemoveUploadedFile 用户显式移除已上传的文件
func (d *ApplicationDraft) RemoveUploadedFile() {
	d.UploadedFile = nil
}

// Reset 提交成功后将草稿恢复为空状态
func (d *ApplicationDraft) Reset() {
	*d = ApplicationDraft{}
}

// JobDetails 岗位信息，由岗位列表服务提供，本流程只读不修改
type JobDetails struct {
	// 不同后端版本的岗位ID字段名不一致，这里保留三个候选字段，
	// ResolveJobID 按声明顺序取第一个非空值
	ID     string `json:"id"`
	JobID  string `json:"jobId"`
	PostID string `json:"postId"`

	Title             string `json:"title"`
	Company           string `json:"company"`
	Location          string `json:"location"`
	SalaryDisplayText string `json:"salary"`
}

// ResolveJobID 按 id -> jobId -> postId 的顺序解析岗位标识
// 三者均为空时返回空字符串，调用方应视为集成错误
func (j *JobDetails) ResolveJobID() string {
	if j == nil {
		return ""
	}
	for _, candidate := range []string{j.ID, j.JobID, j.PostID} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// User 当前登录用户
type User struct {
	ApplicantID string
	DisplayName string
	Token       string // 提交接口的Bearer令牌
}

// SubmissionResult 提交结果
// Accepted为true表示申请已在服务端持久化；为false时FieldErrors或
// Message说明拒绝原因（字段级校验错误或服务端拒绝消息）
type SubmissionResult struct {
	Accepted    bool
	Message     string
	FieldErrors map[string]string
}
