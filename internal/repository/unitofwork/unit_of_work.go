package unitofwork

import (
	"context"

	"memento-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	PhotoRepository() contract.PhotoRepository
	SessionRepository() contract.SessionRepository
	MessageRepository() contract.MessageRepository
}
