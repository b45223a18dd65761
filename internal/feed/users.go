// internal/feed/users.go
package feed

import (
	"context"
	"strings"
	"time"

	"hellofeed/internal/cache"
	"hellofeed/internal/models"
	"hellofeed/internal/store"
	"hellofeed/internal/utils"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// UserService owns profile documents. Authentication lives with the
// external identity provider; the profile is keyed by the identity's user
// id, so CreateProfile is the "first sign-in" hook rather than a signup.
type UserService struct {
	store   store.Store
	posts   *PostService
	cache   *cache.UserCache
	metrics *utils.MetricsCollector
}

func NewUserService(st store.Store, posts *PostService, userCache *cache.UserCache, metrics *utils.MetricsCollector) *UserService {
	return &UserService{
		store:   st,
		posts:   posts,
		cache:   userCache,
		metrics: metrics,
	}
}

// UpdateProfileRequest carries the editable profile fields. Nil pointers
// mean "leave unchanged".
type UpdateProfileRequest struct {
	Username  *string `json:"username,omitempty"`
	FullName  *string `json:"fullname,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"image,omitempty"`
}

// CreateProfile stores the profile document for a freshly authenticated
// identity. Creating twice for the same id is an error, not an overwrite.
func (s *UserService) CreateProfile(ctx context.Context, id uuid.UUID, username, fullName, email string) (*models.User, error) {
	if id == uuid.Nil {
		return nil, utils.NewUnauthorizedError("missing identity")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "username is required", nil)
	}

	if _, err := s.store.GetUser(ctx, id); err == nil {
		return nil, utils.NewAppError(utils.ErrUserAlreadyExists, "profile already exists: "+id.String(), nil)
	} else if !utils.IsErrorCode(err, utils.ErrUserNotFound) {
		return nil, err
	}

	user := &models.User{
		ID:        id,
		Username:  username,
		FullName:  strings.TrimSpace(fullName),
		Email:     email,
		CreatedAt: time.Now(),
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	s.cache.Put(user)
	return user, nil
}

// Get reads one profile, cache-aside.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.cache.Get(id); ok {
		return user, nil
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Put(user)
	return user, nil
}

// List returns every profile, used for the people-search surface.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.store.ListUsers(ctx)
}

// Update applies the non-nil fields to the caller's own profile.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*models.User, error) {
	if id == uuid.Nil {
		return nil, utils.NewUnauthorizedError("missing identity")
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, utils.NewAppError(utils.ErrInvalidInput, "username cannot be empty", nil)
		}
		user.Username = username
	}
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}

	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	s.cache.Invalidate(id)
	return user, nil
}

// Delete tears down an account: every post (with its subcollections), both
// directions of the follow graph, then the profile document. Follow edges
// come down concurrently; posts go through the post cascade one at a time
// so each post's own sweep stays intact.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	startTime := time.Now()

	posts, err := s.store.ListUserPosts(ctx, id)
	if err != nil {
		return err
	}
	for _, post := range posts {
		if err := s.posts.Delete(ctx, post.ID, id); err != nil {
			return err
		}
	}

	followers, err := s.store.ListFollowers(ctx, id)
	if err != nil {
		return err
	}
	following, err := s.store.ListFollowing(ctx, id)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, followerID := range followers {
		fid := followerID
		g.Go(func() error {
			_, err := s.store.SetFollow(gctx, fid, id, false)
			return err
		})
	}
	for _, targetID := range following {
		tid := targetID
		g.Go(func() error {
			_, err := s.store.SetFollow(gctx, id, tid, false)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(id)

	s.metrics.AddOperationLatency("delete_user", time.Since(startTime))
	return nil
}

// ListenUsers delivers the profile directory on every profile change.
func (s *UserService) ListenUsers(ctx context.Context, fn func([]*models.User)) (func(), error) {
	snapshot := func() {
		users, err := s.store.ListUsers(ctx)
		if err != nil {
			return
		}
		fn(users)
	}

	cancel, err := s.store.Watch(ctx, store.ScopeUsers(), snapshot)
	if err != nil {
		return nil, err
	}
	snapshot()
	return cancel, nil
}
