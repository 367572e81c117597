package memory

import (
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
)

// Memory is an in-process repository for development and tests
type Memory struct {
	call        *callRepository
	contact     *contactRepository
	participant *participantRepository
	actionItem  *actionItemRepository
	syncLog     *syncLogRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		call:        newCallRepository(),
		contact:     newContactRepository(),
		participant: newParticipantRepository(),
		actionItem:  newActionItemRepository(),
		syncLog:     newSyncLogRepository(),
	}
}

func (m *Memory) Call() interfaces.CallRepository {
	return m.call
}

func (m *Memory) Contact() interfaces.ContactRepository {
	return m.contact
}

func (m *Memory) Participant() interfaces.ParticipantRepository {
	return m.participant
}

func (m *Memory) ActionItem() interfaces.ActionItemRepository {
	return m.actionItem
}

func (m *Memory) SyncLog() interfaces.SyncLogRepository {
	return m.syncLog
}

func (m *Memory) Close() error {
	return nil
}
