package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// UploadModulePrefix 上传模块
	UploadModulePrefix = "upload"
	// FileModulePrefix 文件模块
	FileModulePrefix = "file"

	// EntityGate 上传能力开关实体
	EntityGate = "gate"
	// EntityDedupSet 去重集合实体
	EntityDedupSet = "dedup_set"
	// EntityMD5ToURL MD5到存储URL的映射实体
	EntityMD5ToURL = "md5_to_url"

	// KeyUploadGateDisabled 上传能力运维开关 (STRING)
	// 存在即表示直传被临时关闭，网关将回退到手动URL路径
	// 格式: app:upload:gate:disabled
	KeyUploadGateDisabled = AppPrefix + ":" + UploadModulePrefix + ":" + EntityGate + ":disabled"

	// KeyResumeFileMD5Set 简历文件MD5集合，用于快速去重 (SET)
	// 格式: app:file:dedup_set
	KeyResumeFileMD5Set = AppPrefix + ":" + FileModulePrefix + ":" + EntityDedupSet

	// KeyResumeFileMD5ToURL MD5到已存储简历URL的映射 (STRING)
	// 格式: app:file:md5_to_url:{md5}
	KeyResumeFileMD5ToURL = AppPrefix + ":" + FileModulePrefix + ":" + EntityMD5ToURL + ":%s"
)
