package queue

// 主题命名规范：fs.<域>.<动作>，尽量稳定且向后兼容.
const (
	TopicFileStored    = "fs.file.stored"    // 单个文件已写入上传根目录
	TopicBatchRejected = "fs.batch.rejected" // 整批上传被拒绝，未写入任何文件
)

// Topics 全部主题，用于调试订阅.
var Topics = []string{TopicFileStored, TopicBatchRejected}
