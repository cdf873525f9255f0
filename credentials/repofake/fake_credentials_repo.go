package repofake

import (
	"errors"
	"sync"

	"github.com/jrsteele09/go-navigraph-efb/credentials"
	interrors "github.com/jrsteele09/go-navigraph-efb/internal/errors"
)

var _ credentials.Repo = (*FakeCredentialsRepo)(nil)

type FakeCredentialsRepo struct {
	token    string
	hasToken bool
	lock     sync.RWMutex

	// Failure injection for storage-unavailable tests
	FailLoad bool
	FailSave bool

	SaveCalls int
}

func NewFakeCredentialsRepo() *FakeCredentialsRepo {
	return &FakeCredentialsRepo{}
}

// NewFakeCredentialsRepoWithToken seeds the store, simulating a prior session.
func NewFakeCredentialsRepoWithToken(token string) *FakeCredentialsRepo {
	return &FakeCredentialsRepo{token: token, hasToken: true}
}

func (cr *FakeCredentialsRepo) Load() (string, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	if cr.FailLoad || !cr.hasToken {
		return "", interrors.ErrNoStoredToken
	}
	return cr.token, nil
}

func (cr *FakeCredentialsRepo) Save(refreshToken string) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	cr.SaveCalls++
	if cr.FailSave {
		return errors.New("store unavailable")
	}
	cr.token = refreshToken
	cr.hasToken = true
	return nil
}

// Stored returns the currently persisted token for assertions.
func (cr *FakeCredentialsRepo) Stored() (string, bool) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()
	return cr.token, cr.hasToken
}
