package syncqueue

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskCRMSyncDue = "crmsync.outbox.due"

type CRMSyncDuePayload struct {
	OutboxID string `json:"outboxId"`
}

func NewCRMSyncDueTask(payload CRMSyncDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCRMSyncDue, data), nil
}

func ParseCRMSyncDuePayload(task *asynq.Task) (CRMSyncDuePayload, error) {
	var payload CRMSyncDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CRMSyncDuePayload{}, err
	}
	return payload, nil
}
