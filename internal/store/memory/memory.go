// internal/store/memory/memory.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"hellofeed/internal/models"
	"hellofeed/internal/store"
	"hellofeed/internal/utils"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory store.Store implementation. A single mutex
// serializes every mutation, which is what stands in for the managed
// backend's transaction primitive: ToggleLike and SetFollow hold the lock
// across their read-then-write pair.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]*models.User
	posts         map[uuid.UUID]*models.Post
	likes         map[uuid.UUID]map[uuid.UUID]time.Time // postID -> userID -> likedAt
	comments      map[uuid.UUID]map[uuid.UUID]*models.Comment
	bookmarks     map[uuid.UUID]map[uuid.UUID]time.Time // userID -> postID -> savedAt
	followers     map[uuid.UUID]map[uuid.UUID]time.Time // targetID -> followerID
	following     map[uuid.UUID]map[uuid.UUID]time.Time // followerID -> targetID
	notifications map[uuid.UUID]*models.Notification

	watch *watchRegistry
}

var _ store.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[uuid.UUID]*models.User),
		posts:         make(map[uuid.UUID]*models.Post),
		likes:         make(map[uuid.UUID]map[uuid.UUID]time.Time),
		comments:      make(map[uuid.UUID]map[uuid.UUID]*models.Comment),
		bookmarks:     make(map[uuid.UUID]map[uuid.UUID]time.Time),
		followers:     make(map[uuid.UUID]map[uuid.UUID]time.Time),
		following:     make(map[uuid.UUID]map[uuid.UUID]time.Time),
		notifications: make(map[uuid.UUID]*models.Notification),
		watch:         newWatchRegistry(),
	}
}

// ---- Users ----

func (s *MemoryStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	saved := *user
	s.users[user.ID] = &saved
	s.mu.Unlock()

	s.watch.notify(store.ScopeUsers())
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, utils.NewUserNotFoundError(id.String())
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		copied := *u
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	delete(s.users, id)
	s.mu.Unlock()

	s.watch.notify(store.ScopeUsers())
	return nil
}

func (s *MemoryStore) AdjustUserPostCount(ctx context.Context, id uuid.UUID, delta int) error {
	s.mu.Lock()
	user, ok := s.users[id]
	if ok {
		user.Posts += delta
		if user.Posts < 0 {
			user.Posts = 0
		}
	}
	s.mu.Unlock()

	if !ok {
		return utils.NewUserNotFoundError(id.String())
	}
	s.watch.notify(store.ScopeUsers())
	return nil
}

// ---- Posts ----

func (s *MemoryStore) SavePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	saved := *post
	s.posts[post.ID] = &saved
	s.mu.Unlock()

	s.watch.notify(store.ScopePosts(), store.ScopePost(post.ID))
	return nil
}

func (s *MemoryStore) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, utils.NewPostNotFoundError(id.String())
	}
	copied := *post
	return &copied, nil
}

func (s *MemoryStore) ListPosts(ctx context.Context, limit int, before time.Time) ([]*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if !before.IsZero() && !p.CreatedAt.Before(before) {
			continue
		}
		copied := *p
		posts = append(posts, &copied)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (s *MemoryStore) ListUserPosts(ctx context.Context, authorID uuid.UUID) ([]*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var posts []*models.Post
	for _, p := range s.posts {
		if p.AuthorID == authorID {
			copied := *p
			posts = append(posts, &copied)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (s *MemoryStore) UpdatePostCaption(ctx context.Context, postID, ownerID uuid.UUID, caption string) (bool, error) {
	s.mu.Lock()
	post, ok := s.posts[postID]
	updated := ok && post.AuthorID == ownerID
	if updated {
		post.Caption = caption
		post.UpdatedAt = time.Now()
	}
	s.mu.Unlock()

	if updated {
		s.watch.notify(store.ScopePosts(), store.ScopePost(postID))
	}
	return updated, nil
}

func (s *MemoryStore) AdjustPostCommentCount(ctx context.Context, postID uuid.UUID, delta int) error {
	s.mu.Lock()
	post, ok := s.posts[postID]
	if ok {
		post.CommentCount += delta
		if post.CommentCount < 0 {
			post.CommentCount = 0
		}
	}
	s.mu.Unlock()

	if !ok {
		return utils.NewPostNotFoundError(postID.String())
	}
	s.watch.notify(store.ScopePosts(), store.ScopePost(postID))
	return nil
}

func (s *MemoryStore) DeletePost(ctx context.Context, postID, ownerID uuid.UUID) (bool, error) {
	s.mu.Lock()
	post, ok := s.posts[postID]
	deleted := ok && post.AuthorID == ownerID
	if deleted {
		delete(s.posts, postID)
	}
	s.mu.Unlock()

	if deleted {
		s.watch.notify(store.ScopePosts(), store.ScopePost(postID))
	}
	return deleted, nil
}

// ---- Likes ----

func (s *MemoryStore) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, int, error) {
	s.mu.Lock()
	post, ok := s.posts[postID]
	if !ok {
		s.mu.Unlock()
		// No like record and no counter mutation when the post vanished.
		return false, 0, utils.NewPostNotFoundError(postID.String())
	}

	if _, ok := s.likes[postID]; !ok {
		s.likes[postID] = make(map[uuid.UUID]time.Time)
	}

	var liked bool
	if _, has := s.likes[postID][userID]; has {
		delete(s.likes[postID], userID)
		post.LikeCount--
		liked = false
	} else {
		s.likes[postID][userID] = time.Now()
		post.LikeCount++
		liked = true
	}
	newCount := post.LikeCount
	s.mu.Unlock()

	s.watch.notify(store.ScopePostLikes(postID), store.ScopePost(postID), store.ScopePosts())
	return liked, newCount, nil
}

func (s *MemoryStore) HasLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, has := s.likes[postID][userID]
	return has, nil
}

func (s *MemoryStore) ListPostLikes(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(s.likes[postID]))
	for userID := range s.likes[postID] {
		ids = append(ids, userID)
	}
	return ids, nil
}

func (s *MemoryStore) DeletePostLikes(ctx context.Context, postID uuid.UUID) error {
	s.mu.Lock()
	delete(s.likes, postID)
	if post, ok := s.posts[postID]; ok {
		post.LikeCount = 0
	}
	s.mu.Unlock()

	s.watch.notify(store.ScopePostLikes(postID), store.ScopePost(postID))
	return nil
}

// ---- Comments ----

func (s *MemoryStore) SaveComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	if _, ok := s.comments[comment.PostID]; !ok {
		s.comments[comment.PostID] = make(map[uuid.UUID]*models.Comment)
	}
	saved := *comment
	s.comments[comment.PostID][comment.ID] = &saved
	s.mu.Unlock()

	s.watch.notify(store.ScopePostComments(comment.PostID))
	return nil
}

func (s *MemoryStore) GetComment(ctx context.Context, postID, commentID uuid.UUID) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[postID][commentID]
	if !ok {
		return nil, utils.NewAppError(utils.ErrCommentNotFound, "Comment not found: "+commentID.String(), nil)
	}
	copied := *comment
	return &copied, nil
}

func (s *MemoryStore) ListComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := make([]*models.Comment, 0, len(s.comments[postID]))
	for _, c := range s.comments[postID] {
		copied := *c
		comments = append(comments, &copied)
	}
	// Oldest first, the order the comment screen renders.
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

func (s *MemoryStore) UpdateComment(ctx context.Context, postID, commentID, requesterID uuid.UUID, text string) (bool, error) {
	s.mu.Lock()
	comment, ok := s.comments[postID][commentID]
	updated := ok && comment.AuthorID == requesterID
	if updated {
		comment.Text = text
		comment.UpdatedAt = time.Now()
	}
	s.mu.Unlock()

	if updated {
		s.watch.notify(store.ScopePostComments(postID))
	}
	return updated, nil
}

func (s *MemoryStore) DeleteComment(ctx context.Context, postID, commentID, requesterID uuid.UUID) (bool, error) {
	s.mu.Lock()
	comment, ok := s.comments[postID][commentID]
	deleted := ok && comment.AuthorID == requesterID
	if deleted {
		delete(s.comments[postID], commentID)
	}
	s.mu.Unlock()

	if deleted {
		s.watch.notify(store.ScopePostComments(postID))
	}
	return deleted, nil
}

func (s *MemoryStore) DeletePostComments(ctx context.Context, postID uuid.UUID) error {
	s.mu.Lock()
	delete(s.comments, postID)
	if post, ok := s.posts[postID]; ok {
		post.CommentCount = 0
	}
	s.mu.Unlock()

	s.watch.notify(store.ScopePostComments(postID), store.ScopePost(postID))
	return nil
}

// ---- Bookmarks ----

func (s *MemoryStore) SaveBookmark(ctx context.Context, userID, postID uuid.UUID) error {
	s.mu.Lock()
	if _, ok := s.bookmarks[userID]; !ok {
		s.bookmarks[userID] = make(map[uuid.UUID]time.Time)
	}
	s.bookmarks[userID][postID] = time.Now()
	s.mu.Unlock()

	s.watch.notify(store.ScopeBookmarks(userID))
	return nil
}

func (s *MemoryStore) DeleteBookmark(ctx context.Context, userID, postID uuid.UUID) error {
	s.mu.Lock()
	delete(s.bookmarks[userID], postID)
	s.mu.Unlock()

	s.watch.notify(store.ScopeBookmarks(userID))
	return nil
}

func (s *MemoryStore) HasBookmark(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, has := s.bookmarks[userID][postID]
	return has, nil
}

func (s *MemoryStore) ListBookmarks(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(s.bookmarks[userID]))
	for postID := range s.bookmarks[userID] {
		ids = append(ids, postID)
	}
	return ids, nil
}

// ---- Follow edges ----

func (s *MemoryStore) SetFollow(ctx context.Context, followerID, targetID uuid.UUID, follow bool) (bool, error) {
	s.mu.Lock()
	_, exists := s.following[followerID][targetID]
	changed := follow != exists
	if changed {
		if follow {
			if _, ok := s.following[followerID]; !ok {
				s.following[followerID] = make(map[uuid.UUID]time.Time)
			}
			if _, ok := s.followers[targetID]; !ok {
				s.followers[targetID] = make(map[uuid.UUID]time.Time)
			}
			now := time.Now()
			s.following[followerID][targetID] = now
			s.followers[targetID][followerID] = now
		} else {
			delete(s.following[followerID], targetID)
			delete(s.followers[targetID], followerID)
		}
	}
	s.mu.Unlock()

	if changed {
		s.watch.notify(store.ScopeFollowing(followerID), store.ScopeFollowers(targetID))
	}
	return changed, nil
}

func (s *MemoryStore) HasFollowing(ctx context.Context, followerID, targetID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, has := s.following[followerID][targetID]
	return has, nil
}

func (s *MemoryStore) ListFollowers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(s.followers[userID]))
	for followerID := range s.followers[userID] {
		ids = append(ids, followerID)
	}
	return ids, nil
}

func (s *MemoryStore) ListFollowing(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(s.following[userID]))
	for targetID := range s.following[userID] {
		ids = append(ids, targetID)
	}
	return ids, nil
}

// ---- Notifications ----

func (s *MemoryStore) SaveNotification(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	saved := *n
	s.notifications[n.ID] = &saved
	s.mu.Unlock()

	s.watch.notify(store.ScopeNotifications(n.ReceiverID))
	return nil
}

func (s *MemoryStore) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrNotificationNotFound, "Notification not found: "+id.String(), nil)
	}
	copied := *n
	return &copied, nil
}

func (s *MemoryStore) ListNotifications(ctx context.Context, receiverID uuid.UUID, limit int) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*models.Notification
	for _, n := range s.notifications {
		if n.ReceiverID == receiverID {
			copied := *n
			list = append(list, &copied)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *MemoryStore) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	n, ok := s.notifications[id]
	var receiverID uuid.UUID
	if ok {
		n.Read = true
		receiverID = n.ReceiverID
	}
	s.mu.Unlock()

	if !ok {
		return utils.NewAppError(utils.ErrNotificationNotFound, "Notification not found: "+id.String(), nil)
	}
	s.watch.notify(store.ScopeNotifications(receiverID))
	return nil
}

func (s *MemoryStore) DeleteNotification(ctx context.Context, id, requesterID uuid.UUID) (bool, error) {
	s.mu.Lock()
	n, ok := s.notifications[id]
	deleted := ok && n.ReceiverID == requesterID
	var receiverID uuid.UUID
	if deleted {
		receiverID = n.ReceiverID
		delete(s.notifications, id)
	}
	s.mu.Unlock()

	if deleted {
		s.watch.notify(store.ScopeNotifications(receiverID))
	}
	return deleted, nil
}

// ---- Watch ----

func (s *MemoryStore) Watch(ctx context.Context, scope string, fn func()) (func(), error) {
	cancel := s.watch.register(scope, fn)

	var once sync.Once
	wrapped := func() {
		once.Do(cancel)
	}
	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			wrapped()
		}()
	}
	return wrapped, nil
}
