package inmemdb

import (
	"context"

	"github.com/trezcool/tathmini/core/user"
)

func (repo *userRepository) CreateSession(_ context.Context, sess user.Session) error {
	repo.sess.Lock()
	defer repo.sess.Unlock()

	repo.sess.table[sess.ID] = &sess
	return nil
}

func (repo *userRepository) GetSession(_ context.Context, id string) (user.Session, error) {
	repo.sess.RLock()
	defer repo.sess.RUnlock()

	if sess, ok := repo.sess.table[id]; ok {
		return *sess, nil
	}
	return user.Session{}, user.ErrSessionNotFound
}

func (repo *userRepository) DeleteSessions(_ context.Context, ids ...string) error {
	repo.sess.Lock()
	defer repo.sess.Unlock()

	for _, id := range ids {
		delete(repo.sess.table, id)
	}
	return nil
}

func (repo *userRepository) DeleteUserSessions(_ context.Context, userID string) error {
	repo.sess.Lock()
	defer repo.sess.Unlock()

	for id, sess := range repo.sess.table {
		if sess.UserID == userID {
			delete(repo.sess.table, id)
		}
	}
	return nil
}
