package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"user-service/internal/domain"
	"user-service/internal/repository"
)

type memUserRepo struct {
	repository.UserRepository

	mu      sync.Mutex
	nextID  int64
	users   map[int64]domain.User
	updates int
	getErr  error
}

func newMemUserRepo(seed ...domain.User) *memUserRepo {
	r := &memUserRepo{users: make(map[int64]domain.User)}
	for _, u := range seed {
		if u.ID == 0 {
			r.nextID++
			u.ID = r.nextID
		} else if u.ID > r.nextID {
			r.nextID = u.ID
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) Create(_ context.Context, u *domain.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.users {
		if strings.EqualFold(other.Username, u.Username) {
			return 0, domain.ErrUsernameTaken
		}
	}
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = *u
	return u.ID, nil
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *memUserRepo) GetAll(context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	out := make([]domain.User, 0, len(r.users))
	for id := int64(1); id <= r.nextID; id++ {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.updates++
	r.users[u.ID] = *u
	return nil
}

func (r *memUserRepo) Delete(ctx context.Context, u *domain.User) error {
	return r.Update(ctx, u)
}

func (r *memUserRepo) get(id int64) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id]
}

type sentMail struct {
	to, subject, body string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

var errStorage = errors.New("storage unavailable")

// storedUser returns a persisted-looking record with the given password.
func storedUser(h PasswordHasher, id int64, username, password string, role domain.Role) domain.User {
	hash, err := h.HashPassword(password)
	if err != nil {
		panic(err)
	}
	u := domain.NewUser(domain.NewUserParams{
		FirstName:     "Test",
		LastFirstName: "User",
		Mail:          username + "@example.com",
		Phone:         "70012345",
		CI:            "100000" + string(rune('0'+id%10)),
		Role:          role,
		Username:      username,
		PasswordHash:  hash,
	})
	u.ID = id
	return *u
}
