package usecase

var (
	SyncMessage = syncMessage
	SyncLockKey = syncLockKey
)
