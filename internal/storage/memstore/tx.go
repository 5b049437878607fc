package memstore

import (
	"context"
	"sync"

	"qufit/backend/internal/models"
	"qufit/backend/internal/storage"
)

// txStore routes writes through the Store's helpers and keeps their undo functions.
type txStore struct {
	*Store

	undoMu sync.Mutex
	undo   []func()
}

func (tx *txStore) record(undo func(), err error) error {
	if err != nil {
		return err
	}
	tx.undoMu.Lock()
	tx.undo = append(tx.undo, undo)
	tx.undoMu.Unlock()
	return nil
}

func (tx *txStore) rollback() {
	tx.undoMu.Lock()
	defer tx.undoMu.Unlock()
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

// Transaction nests by joining the outer transaction.
func (tx *txStore) Transaction(ctx context.Context, fn func(tx storage.Storage) error) error {
	return fn(tx)
}

func (tx *txStore) CreateRoom(ctx context.Context, room *models.Room) error {
	return tx.record(tx.createRoom(room))
}

func (tx *txStore) SaveRoom(ctx context.Context, room *models.Room) error {
	return tx.record(tx.saveRoom(room))
}

func (tx *txStore) DeleteRoom(ctx context.Context, roomID string) error {
	return tx.record(tx.deleteRoom(roomID))
}

func (tx *txStore) CreateParticipant(ctx context.Context, p *models.Participant) error {
	return tx.record(tx.createParticipant(p))
}

func (tx *txStore) DeleteParticipant(ctx context.Context, participantID string) error {
	return tx.record(tx.deleteParticipant(participantID))
}

func (tx *txStore) SaveMember(ctx context.Context, member *models.Member) error {
	return tx.record(tx.saveMember(member))
}
