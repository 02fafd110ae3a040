package greenstripes

import (
	"context"

	"github.com/toozej/greenstripes/internal/types"
	"github.com/toozej/greenstripes/pkg/link"
)

// User is a catalog user profile.
type User struct {
	session     *Session
	id          string
	displayName string
	loaded      bool
	loading     bool
	err         Error
}

// CanonicalName returns the user's unique name.
func (u *User) CanonicalName() string {
	return u.id
}

// DisplayName returns the user's display name, falling back to the
// canonical name until it is known.
func (u *User) DisplayName() string {
	if u.displayName == "" {
		return u.id
	}
	return u.displayName
}

// Loaded reports whether the profile has been fetched.
func (u *User) Loaded() bool {
	return u.loaded
}

// Error returns IsLoading while the profile is being fetched, the code of
// a failed profile load, or OK.
func (u *User) Error() Error {
	if u.loading {
		return IsLoading
	}
	return u.err
}

// Link returns the user's profile link.
func (u *User) Link() link.Link {
	return link.ForUser(u.id)
}

func (u *User) update(rec types.UserRecord) {
	if rec.DisplayName != "" {
		u.displayName = rec.DisplayName
		if !u.loaded {
			u.loaded = true
			u.session.markUpdated()
		}
	}
}

func (u *User) load() {
	if u.loaded || u.loading {
		return
	}
	u.loading = true
	s := u.session
	submit(s, "user", func(ctx context.Context) (types.UserRecord, error) {
		return s.backend.User(ctx, u.id)
	}, func(rec types.UserRecord, err error) {
		u.loading = false
		if err != nil {
			u.err = codeFor(err)
			return
		}
		u.err = OK
		if rec.DisplayName == "" {
			rec.DisplayName = rec.ID
		}
		u.update(rec)
	})
}

// userFor returns the interned user for rec, loading the profile when the
// record is incomplete.
func (s *Session) userFor(rec types.UserRecord) *User {
	u, ok := s.users[rec.ID]
	if !ok {
		u = &User{session: s, id: rec.ID}
		s.users[rec.ID] = u
	}
	u.update(rec)
	if !u.loaded {
		u.load()
	}
	return u
}
